// Package clickhouse stores graph snapshots in ClickHouse, one row per
// snapshot and one row per edge, for querying relationships across builds.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fabiosv/aws-resources-mapper/db"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "netmap",
		Username: "default",
	}
}

// Store implements db.GraphStore using ClickHouse
type Store struct {
	conn   clickhouse.Conn
	cfg    *Config
	logger zerolog.Logger
}

// NewStore opens a ClickHouse connection. The connection is lazy; call Ping
// to verify it.
func NewStore(cfg *Config, logger zerolog.Logger) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return newStoreFromConn(conn, cfg, logger), nil
}

func newStoreFromConn(conn clickhouse.Conn, cfg *Config, logger zerolog.Logger) *Store {
	return &Store{conn: conn, cfg: cfg, logger: logger}
}

func (s *Store) Name() string {
	return "clickhouse"
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Migrate creates the snapshot and edge tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + db.SnapshotsTable + ` (
		id UUID,
		network_id String,
		hash String,
		nodes Array(String),
		node_count UInt32,
		edge_count UInt32,
		created_at DateTime64(3)
	) ENGINE = MergeTree()
	ORDER BY (network_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS ` + db.EdgesTable + ` (
		snapshot_id UUID,
		network_id String,
		position UInt32,
		source String,
		target String,
		kind LowCardinality(String)
	) ENGINE = MergeTree()
	ORDER BY (network_id, snapshot_id, position)`,
}

func location(database string, id uuid.UUID) string {
	return fmt.Sprintf("clickhouse://%s/%s/%s", database, db.SnapshotsTable, id)
}

// Save writes g as a new snapshot. A graph identical to an existing snapshot
// of the same network is not written twice; the existing location is returned.
func (s *Store) Save(ctx context.Context, g *api.NetworkGraph) (string, error) {
	snapshot := db.NewSnapshot(g)

	existing, err := s.FindSnapshotByHash(ctx, snapshot.NetworkID, snapshot.Hash)
	if err != nil {
		return "", err
	}
	if existing != nil {
		s.logger.Info().
			Str("snapshot_id", existing.ID.String()).
			Msg("graph unchanged, reusing snapshot")
		return location(s.cfg.Database, existing.ID), nil
	}

	// The snapshot row is the commit marker: it goes in after its edges so a
	// failed edge batch leaves no hash behind and a retry writes the graph again.
	loc := location(s.cfg.Database, snapshot.ID)
	if err := s.BulkInsertEdges(ctx, snapshot, g.Edges); err != nil {
		return loc, err
	}
	if err := s.CreateSnapshot(ctx, snapshot); err != nil {
		return loc, err
	}
	return loc, nil
}

// CreateSnapshot inserts a snapshot row
func (s *Store) CreateSnapshot(ctx context.Context, snapshot *db.Snapshot) error {
	query := `
		INSERT INTO ` + db.SnapshotsTable + ` (
			id, network_id, hash, nodes, node_count, edge_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if err := s.conn.Exec(ctx, query,
		snapshot.ID,
		snapshot.NetworkID,
		snapshot.Hash,
		snapshot.Nodes,
		uint32(snapshot.NodeCount),
		uint32(snapshot.EdgeCount),
		snapshot.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}

// BulkInsertEdges inserts every edge of a snapshot in one batch
func (s *Store) BulkInsertEdges(ctx context.Context, snapshot *db.Snapshot, edges []api.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO `+db.EdgesTable+` (
			snapshot_id, network_id, position, source, target, kind
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for i, e := range edges {
		if err := batch.Append(
			snapshot.ID, snapshot.NetworkID, uint32(i),
			e.Source, e.Target, string(e.Kind),
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send edge batch: %w", err)
	}
	return nil
}

// FindSnapshotByHash finds a snapshot of networkID by its content hash
func (s *Store) FindSnapshotByHash(ctx context.Context, networkID, hash string) (*db.Snapshot, error) {
	query := `
		SELECT id, network_id, hash, nodes, node_count, edge_count, created_at
		FROM ` + db.SnapshotsTable + `
		WHERE network_id = ? AND hash = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	snapshot, err := s.scanSnapshot(s.conn.QueryRow(ctx, query, networkID, hash))
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot by hash: %w", err)
	}
	return snapshot, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanSnapshot(row rowScanner) (*db.Snapshot, error) {
	var snapshot db.Snapshot
	var nodeCount, edgeCount uint32
	var createdAt time.Time
	err := row.Scan(
		&snapshot.ID, &snapshot.NetworkID, &snapshot.Hash, &snapshot.Nodes,
		&nodeCount, &edgeCount, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snapshot.NodeCount = int(nodeCount)
	snapshot.EdgeCount = int(edgeCount)
	snapshot.CreatedAt = createdAt
	return &snapshot, nil
}
