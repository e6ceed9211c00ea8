package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

// Table names shared by the SQL-backed stores.
const (
	SnapshotsTable = "network_graph_snapshots"
	EdgesTable     = "network_graph_edges"
)

// Snapshot is one persisted graph build. Edges are stored separately, one
// row per edge, keyed by snapshot ID and position.
type Snapshot struct {
	ID        uuid.UUID
	NetworkID string
	Hash      string
	Nodes     []string
	NodeCount int
	EdgeCount int
	CreatedAt time.Time
}

// NewSnapshot describes g as a new snapshot row.
func NewSnapshot(g *api.NetworkGraph) *Snapshot {
	return &Snapshot{
		ID:        uuid.New(),
		NetworkID: g.NetworkID,
		Hash:      GraphHash(g),
		Nodes:     append([]string(nil), g.Nodes...),
		NodeCount: len(g.Nodes),
		EdgeCount: len(g.Edges),
		CreatedAt: time.Now().UTC(),
	}
}
