package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fabiosv/aws-resources-mapper/db"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
	apperrors "github.com/fabiosv/aws-resources-mapper/pkg/errors"
)

func sampleGraph() *api.NetworkGraph {
	return &api.NetworkGraph{
		NetworkID: "vpc-1",
		Nodes:     []string{"subnet-a", "10.0.0.0/24", "sg-1"},
		Edges: []api.Edge{
			{Source: "subnet-a", Target: "10.0.0.0/24", Kind: api.EdgeKindSubnetCIDR},
			{Source: "sg-1", Target: "vpc-1", Kind: api.EdgeKindSGVPC},
		},
	}
}

func TestStore_SaveJSON(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, db.EncodeOptions{Format: db.FormatJSON}, zerolog.Nop())

	location, err := store.Save(context.Background(), sampleGraph())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vpc-1_network_graph.json"), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)

	var doc api.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{"subnet-a", "10.0.0.0/24", "sg-1"}, doc.Nodes)
	assert.Equal(t, [][2]string{{"subnet-a", "10.0.0.0/24"}, {"sg-1", "vpc-1"}}, doc.Edges)
	assert.Contains(t, string(data), "\n  \"nodes\"")
}

func TestStore_SaveTaggedYAML(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, db.EncodeOptions{Format: db.FormatYAML, Tagged: true}, zerolog.Nop())

	location, err := store.Save(context.Background(), sampleGraph())
	require.NoError(t, err)
	assert.Equal(t, "vpc-1_network_graph.yaml", filepath.Base(location))

	data, err := os.ReadFile(location)
	require.NoError(t, err)

	var doc api.TaggedDocument
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "vpc-1", doc.NetworkID)
	require.Len(t, doc.Edges, 2)
	assert.Equal(t, api.EdgeKindSGVPC, doc.Edges[1].Kind)
}

func TestStore_SaveCompressed(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, db.EncodeOptions{Format: db.FormatJSON, Compress: true}, zerolog.Nop())

	location, err := store.Save(context.Background(), sampleGraph())
	require.NoError(t, err)
	assert.Equal(t, "vpc-1_network_graph.json.sz", filepath.Base(location))

	raw, err := os.ReadFile(location)
	require.NoError(t, err)
	data, err := io.ReadAll(snappy.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)

	var doc api.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Edges, 2)
}

func TestStore_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, db.EncodeOptions{}, zerolog.Nop())

	g := sampleGraph()
	_, err := store.Save(context.Background(), g)
	require.NoError(t, err)

	g.Edges = g.Edges[:1]
	location, err := store.Save(context.Background(), g)
	require.NoError(t, err)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	var doc api.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Edges, 1)
}

func TestStore_UnwritableDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing", "nested")
	store := db.Instrument(NewStore(dir, db.EncodeOptions{}, zerolog.Nop()), nil)

	_, err := store.Save(context.Background(), sampleGraph())
	require.Error(t, err)

	var persistErr *apperrors.PersistError
	require.True(t, errors.As(err, &persistErr))
	assert.Equal(t, filepath.Join(dir, "vpc-1_network_graph.json"), persistErr.Location)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewStore(t.TempDir(), db.EncodeOptions{}, zerolog.Nop())
	_, err := store.Save(ctx, sampleGraph())
	assert.ErrorIs(t, err, context.Canceled)
}
