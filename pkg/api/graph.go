// Package api defines the network relationship graph model.
package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// EdgeKind tags an edge with the relationship that produced it.
type EdgeKind string

const (
	EdgeKindSubnetCIDR        EdgeKind = "subnet-cidr"
	EdgeKindSGVPC             EdgeKind = "sg-vpc"
	EdgeKindSGReferencedGroup EdgeKind = "sg-rule-referenced-group"
	EdgeKindSGCIDRIPv4        EdgeKind = "sg-rule-cidr-ipv4"
	EdgeKindSGCIDRIPv6        EdgeKind = "sg-rule-cidr-ipv6"
	EdgeKindENISecurityGroup  EdgeKind = "eni-security-group"
	EdgeKindENISubnet         EdgeKind = "eni-subnet"
	EdgeKindENIVPC            EdgeKind = "eni-vpc"
	EdgeKindACLVPC            EdgeKind = "acl-vpc"
	EdgeKindACLSubnet         EdgeKind = "acl-subnet"
	EdgeKindIGWVPC            EdgeKind = "igw-vpc"
	EdgeKindRouteTableSubnet  EdgeKind = "route-table-subnet"
	EdgeKindRouteToGateway    EdgeKind = "route-to-gateway"
	EdgeKindRouteToInstance   EdgeKind = "route-to-instance"
	EdgeKindRouteToInterface  EdgeKind = "route-to-interface"
	EdgeKindRouteToPeering    EdgeKind = "route-to-peering"

	// Extended categories
	EdgeKindNATSubnet          EdgeKind = "nat-subnet"
	EdgeKindNATVPC             EdgeKind = "nat-vpc"
	EdgeKindEndpointVPC        EdgeKind = "vpce-vpc"
	EdgeKindEndpointSubnet     EdgeKind = "vpce-subnet"
	EdgeKindEndpointRouteTable EdgeKind = "vpce-route-table"
	EdgeKindEndpointSG         EdgeKind = "vpce-security-group"
	EdgeKindPeeringRequester   EdgeKind = "peering-requester"
	EdgeKindPeeringAccepter    EdgeKind = "peering-accepter"
	EdgeKindRDSSecurityGroup   EdgeKind = "rds-security-group"
)

// Symmetric reports whether the relationship has no natural direction.
// Only security group to security group references qualify today; route
// targets, attachments and memberships are all directed.
func (k EdgeKind) Symmetric() bool {
	return k == EdgeKindSGReferencedGroup
}

// Edge is a directed relationship between two node identifiers.
type Edge struct {
	Source string   `json:"source" yaml:"source"`
	Target string   `json:"target" yaml:"target"`
	Kind   EdgeKind `json:"kind" yaml:"kind"`
}

// Pair returns the plain (source, target) projection used by the output document.
func (e Edge) Pair() [2]string {
	return [2]string{e.Source, e.Target}
}

// Canonical returns the edge with its endpoints in lexical order.
func (e Edge) Canonical() Edge {
	if e.Target < e.Source {
		e.Source, e.Target = e.Target, e.Source
	}
	return e
}

// NetworkGraph is the immutable result of one graph build.
type NetworkGraph struct {
	NetworkID string
	Nodes     []string
	Edges     []Edge
}

// Document is the documented output format: nodes plus plain edge pairs.
type Document struct {
	Nodes []string    `json:"nodes" yaml:"nodes"`
	Edges [][2]string `json:"edges" yaml:"edges"`
}

// TaggedDocument keeps the relationship kind of every edge.
type TaggedDocument struct {
	NetworkID string   `json:"network_id,omitempty" yaml:"network_id,omitempty"`
	Nodes     []string `json:"nodes" yaml:"nodes"`
	Edges     []Edge   `json:"edges" yaml:"edges"`
}

// Document projects the graph into the plain output format.
func (g *NetworkGraph) Document() Document {
	doc := Document{
		Nodes: make([]string, len(g.Nodes)),
		Edges: make([][2]string, 0, len(g.Edges)),
	}
	copy(doc.Nodes, g.Nodes)
	for _, e := range g.Edges {
		doc.Edges = append(doc.Edges, e.Pair())
	}
	return doc
}

// Tagged projects the graph into the provenance-preserving format.
func (g *NetworkGraph) Tagged() TaggedDocument {
	doc := TaggedDocument{
		NetworkID: g.NetworkID,
		Nodes:     make([]string, len(g.Nodes)),
		Edges:     make([]Edge, len(g.Edges)),
	}
	copy(doc.Nodes, g.Nodes)
	copy(doc.Edges, g.Edges)
	return doc
}

// HasNode reports whether id was registered as a standalone node.
func (g *NetworkGraph) HasNode(id string) bool {
	for _, n := range g.Nodes {
		if n == id {
			return true
		}
	}
	return false
}

// HasEdge reports whether the ordered pair exists, regardless of kind.
func (g *NetworkGraph) HasEdge(source, target string) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// KindStats counts edges per relationship kind.
func (g *NetworkGraph) KindStats() map[EdgeKind]int {
	stats := make(map[EdgeKind]int)
	for _, e := range g.Edges {
		stats[e.Kind]++
	}
	return stats
}

// SortedKinds returns the kinds present in the graph in lexical order.
func (g *NetworkGraph) SortedKinds() []EdgeKind {
	stats := g.KindStats()
	kinds := make([]EdgeKind, 0, len(stats))
	for k := range stats {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Summary counts nodes and edges and breaks edges down by kind.
func (g *NetworkGraph) Summary() GraphSummary {
	return GraphSummary{Nodes: len(g.Nodes), Edges: len(g.Edges), Kinds: g.KindStats()}
}

// Text renders the graph as a plain listing of nodes and "source -> target"
// edges. Tagged listings append the relationship kind to each edge.
func (g *NetworkGraph) Text(tagged bool) string {
	var sb strings.Builder
	sb.WriteString("Network Map:\nNodes:\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&sb, " - %s\n", n)
	}
	sb.WriteString("Edges:\n")
	for _, e := range g.Edges {
		if tagged {
			fmt.Fprintf(&sb, " - %s -> %s (%s)\n", e.Source, e.Target, e.Kind)
			continue
		}
		fmt.Fprintf(&sb, " - %s -> %s\n", e.Source, e.Target)
	}
	return sb.String()
}

func (g *NetworkGraph) String() string {
	return g.Text(false)
}

// MarshalJSON encodes the graph in the plain document format.
func (g *NetworkGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Document())
}

// MarshalYAML encodes the graph in the plain document format.
func (g *NetworkGraph) MarshalYAML() (any, error) {
	return g.Document(), nil
}
