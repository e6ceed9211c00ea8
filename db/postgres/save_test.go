package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

var snapshotColumns = []string{"id", "network_id", "hash", "nodes", "node_count", "edge_count", "created_at"}

func testGraph() *api.NetworkGraph {
	return &api.NetworkGraph{
		NetworkID: "vpc-1",
		Nodes:     []string{"sg-1", "s-1"},
		Edges: []api.Edge{
			{Source: "sg-1", Target: "vpc-1", Kind: api.EdgeKindSGVPC},
			{Source: "s-1", Target: "10.0.0.0/24", Kind: api.EdgeKindSubnetCIDR},
		},
	}
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStoreFromDB(conn, zerolog.Nop()), mock
}

func expectNoSnapshot(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT id, network_id, hash").
		WithArgs("vpc-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(snapshotColumns))
}

// expectWrite queues the transaction for testGraph. A non-nil edgeErr fails
// the second edge and expects a rollback instead of a commit.
func expectWrite(mock sqlmock.Sqlmock, edgeErr error) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO network_graph_snapshots").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare("COPY")
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "vpc-1", int64(0), "sg-1", "vpc-1", "sg-vpc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if edgeErr != nil {
		prep.ExpectExec().WillReturnError(edgeErr)
		mock.ExpectRollback()
		return
	}
	prep.ExpectExec().
		WithArgs(sqlmock.AnyArg(), "vpc-1", int64(1), "s-1", "10.0.0.0/24", "subnet-cidr").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
}

func TestSave_NewSnapshot(t *testing.T) {
	store, mock := newMockStore(t)
	expectNoSnapshot(mock)
	expectWrite(mock, nil)

	loc, err := store.Save(context.Background(), testGraph())
	require.NoError(t, err)

	assert.Contains(t, loc, "postgres://network_graph_snapshots/")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_UnchangedGraphReusesSnapshot(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.MustParse("6f1c2a4e-0000-4000-8000-000000000001")
	mock.ExpectQuery("SELECT id, network_id, hash").
		WithArgs("vpc-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(snapshotColumns).
			AddRow(id.String(), "vpc-1", "abc", "{sg-1,s-1}", 2, 2, time.Now()))

	loc, err := store.Save(context.Background(), testGraph())
	require.NoError(t, err)

	assert.Equal(t, location(id), loc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_EdgeFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	expectNoSnapshot(mock)
	expectWrite(mock, errors.New("connection reset"))

	_, err := store.Save(context.Background(), testGraph())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to copy edge 1")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_RetryAfterEdgeFailureWritesGraph(t *testing.T) {
	store, mock := newMockStore(t)
	expectNoSnapshot(mock)
	expectWrite(mock, errors.New("connection reset"))
	// the rolled back snapshot row is gone, so the retry finds nothing
	expectNoSnapshot(mock)
	expectWrite(mock, nil)

	_, err := store.Save(context.Background(), testGraph())
	require.Error(t, err)

	loc, err := store.Save(context.Background(), testGraph())
	require.NoError(t, err)

	assert.Contains(t, loc, "postgres://network_graph_snapshots/")
	assert.NoError(t, mock.ExpectationsWereMet())
}
