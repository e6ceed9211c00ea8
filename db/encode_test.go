package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		name      string
		networkID string
		opts      EncodeOptions
		expected  string
	}{
		{"default json", "vpc-1", EncodeOptions{}, "vpc-1_network_graph.json"},
		{"yaml", "vpc-1", EncodeOptions{Format: FormatYAML}, "vpc-1_network_graph.yaml"},
		{"text", "vpc-1", EncodeOptions{Format: FormatText}, "vpc-1_network_graph.txt"},
		{"compressed", "vpc-1", EncodeOptions{Compress: true}, "vpc-1_network_graph.json.sz"},
		{"no network id", "", EncodeOptions{}, "network_graph.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileName(tt.networkID, tt.opts))
		})
	}
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := Encode(&api.NetworkGraph{}, EncodeOptions{Format: "xml"})
	assert.Error(t, err)
}

func TestEncode_EmptyGraph(t *testing.T) {
	data, err := Encode(&api.NetworkGraph{}, EncodeOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, string(data))
}

func TestEncode_Text(t *testing.T) {
	g := &api.NetworkGraph{
		Nodes: []string{"subnet-a", "10.0.0.0/24"},
		Edges: []api.Edge{{Source: "subnet-a", Target: "10.0.0.0/24", Kind: api.EdgeKindSubnetCIDR}},
	}

	data, err := Encode(g, EncodeOptions{Format: FormatText})
	require.NoError(t, err)
	assert.Equal(t, "Network Map:\nNodes:\n - subnet-a\n - 10.0.0.0/24\nEdges:\n - subnet-a -> 10.0.0.0/24\n", string(data))

	data, err = Encode(g, EncodeOptions{Format: FormatText, Tagged: true})
	require.NoError(t, err)
	assert.Contains(t, string(data), " - subnet-a -> 10.0.0.0/24 (subnet-cidr)\n")

	empty, err := Encode(&api.NetworkGraph{}, EncodeOptions{Format: FormatText})
	require.NoError(t, err)
	assert.Equal(t, "Network Map:\nNodes:\nEdges:\n", string(empty))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType(EncodeOptions{Format: FormatText}))
}

func TestGraphHash(t *testing.T) {
	g := &api.NetworkGraph{
		Nodes: []string{"a"},
		Edges: []api.Edge{{Source: "a", Target: "b", Kind: api.EdgeKindSGVPC}},
	}
	same := &api.NetworkGraph{
		Nodes: []string{"a"},
		Edges: []api.Edge{{Source: "a", Target: "b", Kind: api.EdgeKindSGVPC}},
	}
	otherKind := &api.NetworkGraph{
		Nodes: []string{"a"},
		Edges: []api.Edge{{Source: "a", Target: "b", Kind: api.EdgeKindENIVPC}},
	}

	assert.Equal(t, GraphHash(g), GraphHash(same))
	assert.NotEqual(t, GraphHash(g), GraphHash(otherKind))
	assert.Len(t, GraphHash(g), 64)
}
