package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabiosv/aws-resources-mapper/db"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
	"github.com/fabiosv/aws-resources-mapper/pkg/metrics"
)

const inventoryJSON = `{
	"vpc": {"VpcId": "vpc-1"},
	"subnets": [{"SubnetId": "subnet-a", "CidrBlock": "10.0.0.0/24"}],
	"security_groups": [
		{"GroupId": "sg-1", "VpcId": "vpc-1", "Rules": [
			{"ReferencedGroupInfo": {"GroupId": "sg-2"}}
		]},
		{"GroupId": "sg-2"}
	],
	"network_interfaces": [],
	"network_acls": [],
	"internet_gateways": [{"InternetGatewayId": "igw-1", "Attachments": [{"VpcId": "vpc-1"}]}],
	"route_tables": []
}`

type recordingStore struct {
	saved []*api.NetworkGraph
	err   error
}

func (r *recordingStore) Name() string { return "recording" }

func (r *recordingStore) Save(_ context.Context, g *api.NetworkGraph) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.saved = append(r.saved, g)
	return "mem://" + g.NetworkID, nil
}

func (r *recordingStore) Close() error { return nil }

func newTestServer(store db.GraphStore, reg *metrics.Registry, apiKey string) *Server {
	cfg := DefaultConfig()
	cfg.APIKey = apiKey
	cfg.Version = "1.2.3"
	return NewServer(cfg, store, reg, zerolog.Nop())
}

func postGraph(t *testing.T, s *Server, query, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/graph"+query, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

type plainResponse struct {
	BuildID   string           `json:"build_id"`
	NetworkID string           `json:"network_id"`
	Graph     api.Document     `json:"graph"`
	Summary   api.GraphSummary `json:"summary"`
	Location  string           `json:"location"`
}

func TestHandleGraph_Plain(t *testing.T) {
	s := newTestServer(nil, nil, "")

	rec := postGraph(t, s, "", inventoryJSON, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp plainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.BuildID)
	assert.Equal(t, "vpc-1", resp.NetworkID)
	assert.Equal(t, []string{"subnet-a", "10.0.0.0/24", "sg-1", "sg-2", "igw-1"}, resp.Graph.Nodes)
	assert.Equal(t, [][2]string{
		{"subnet-a", "10.0.0.0/24"},
		{"sg-1", "vpc-1"},
		{"sg-1", "sg-2"},
		{"igw-1", "vpc-1"},
	}, resp.Graph.Edges)
	assert.Equal(t, api.GraphSummary{Nodes: 5, Edges: 4, Kinds: map[api.EdgeKind]int{
		api.EdgeKindSubnetCIDR:        1,
		api.EdgeKindSGVPC:             1,
		api.EdgeKindSGReferencedGroup: 1,
		api.EdgeKindIGWVPC:            1,
	}}, resp.Summary)
}

func TestHandleGraph_TaggedWithNetworkID(t *testing.T) {
	s := newTestServer(nil, nil, "")

	rec := postGraph(t, s, "?tagged=true&network_id=vpc-override", inventoryJSON, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		NetworkID string             `json:"network_id"`
		Graph     api.TaggedDocument `json:"graph"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "vpc-override", resp.NetworkID)
	assert.Equal(t, "vpc-override", resp.Graph.NetworkID)
	require.Len(t, resp.Graph.Edges, 4)
	assert.Equal(t, api.EdgeKindSGReferencedGroup, resp.Graph.Edges[2].Kind)
}

func TestHandleGraph_IncludeNetworkNode(t *testing.T) {
	s := newTestServer(nil, nil, "")

	rec := postGraph(t, s, "?include_network_node=1", inventoryJSON, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp plainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "vpc-1", resp.Graph.Nodes[0])
}

func TestHandleGraph_BadRequests(t *testing.T) {
	s := newTestServer(nil, nil, "")

	tests := []struct {
		name  string
		query string
		body  string
		code  string
	}{
		{"empty body", "", "", "invalid_request"},
		{"malformed json", "", "{not json", "invalid_inventory"},
		{"bad boolean", "?tagged=maybe", inventoryJSON, "invalid_parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postGraph(t, s, tt.query, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error)
		})
	}
}

func TestHandleGraph_MalformedRecordWarning(t *testing.T) {
	s := newTestServer(nil, nil, "")

	body := `{"subnets": [{"CidrBlock": "10.0.0.0/24"}, {"SubnetId": "subnet-b"}]}`
	rec := postGraph(t, s, "", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Graph    api.Document  `json:"graph"`
		Warnings []api.Warning `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"subnet-b"}, resp.Graph.Nodes)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "subnets", resp.Warnings[0].Category)
	assert.Equal(t, 0, resp.Warnings[0].Index)
}

func TestHandleGraph_Persist(t *testing.T) {
	store := &recordingStore{}
	s := newTestServer(store, nil, "")

	rec := postGraph(t, s, "?persist=true", inventoryJSON, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp plainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mem://vpc-1", resp.Location)
	require.Len(t, store.saved, 1)
	assert.Len(t, store.saved[0].Edges, 4)
}

func TestHandleGraph_PersistFailure(t *testing.T) {
	store := db.Instrument(&recordingStore{err: errors.New("bucket gone")}, nil)
	s := newTestServer(store, nil, "")

	rec := postGraph(t, s, "?persist=true", inventoryJSON, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "persist_failed", resp.Error)
	assert.Contains(t, resp.Message, "bucket gone")
}

func TestHandleGraph_PersistWithoutStore(t *testing.T) {
	s := newTestServer(nil, nil, "")

	rec := postGraph(t, s, "?persist=true", inventoryJSON, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleGraph_APIKey(t *testing.T) {
	s := newTestServer(nil, nil, "secret")

	rec := postGraph(t, s, "", inventoryJSON, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postGraph(t, s, "", inventoryJSON, map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(nil, nil, "secret")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := metrics.NewRegistry()
	s := newTestServer(nil, reg, "")

	rec := postGraph(t, s, "", inventoryJSON, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.BuildsTotal.WithLabelValues("success")))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "netmap_graph_builds_total")
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(nil, nil, "")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/graph", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
