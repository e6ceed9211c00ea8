package netgraph

import (
	"reflect"

	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

// accumulator collects the nodes and edges of a single build. Both sets keep
// insertion order and deduplicate by exact value.
type accumulator struct {
	nodes    []string
	nodeSeen map[string]struct{}

	edges    []api.Edge
	edgeSeen map[[2]string]struct{}

	// canonicalize sorts the endpoints of symmetric edge kinds before dedup.
	canonicalize bool
}

func newAccumulator(canonicalize bool) *accumulator {
	return &accumulator{
		nodes:        make([]string, 0),
		nodeSeen:     make(map[string]struct{}),
		edges:        make([]api.Edge, 0),
		edgeSeen:     make(map[[2]string]struct{}),
		canonicalize: canonicalize,
	}
}

// addNode registers id once. Empty identifiers come from absent optional
// fields and are ignored.
func (a *accumulator) addNode(id string) {
	if id == "" {
		return
	}
	if _, ok := a.nodeSeen[id]; ok {
		return
	}
	a.nodeSeen[id] = struct{}{}
	a.nodes = append(a.nodes, id)
}

// addNodes is the bulk form of addNode.
func (a *accumulator) addNodes(ids ...string) {
	for _, id := range ids {
		a.addNode(id)
	}
}

// addEdge registers the ordered pair once. (b, a) is a different edge from
// (a, b) unless canonicalization applies to kind. The first kind recorded for
// a pair is kept.
func (a *accumulator) addEdge(source, target string, kind api.EdgeKind) {
	if source == "" || target == "" {
		return
	}
	e := api.Edge{Source: source, Target: target, Kind: kind}
	if a.canonicalize && kind.Symmetric() {
		e = e.Canonical()
	}

	key := e.Pair()
	if _, ok := a.edgeSeen[key]; ok {
		return
	}
	a.edgeSeen[key] = struct{}{}
	a.edges = append(a.edges, e)
}

// freeze copies the accumulated sets into a new graph value.
func (a *accumulator) freeze(networkID string) *api.NetworkGraph {
	g := &api.NetworkGraph{
		NetworkID: networkID,
		Nodes:     make([]string, len(a.nodes)),
		Edges:     make([]api.Edge, len(a.edges)),
	}
	copy(g.Nodes, a.nodes)
	copy(g.Edges, a.edges)
	return g
}

// FlattenIDs flattens arbitrarily nested identifier collections into scalar
// identifiers, preserving order. Slices and arrays are walked at any depth
// whatever their element type, so [][][]string and []any mixing levels are
// handled alike. Non-string leaves are ignored.
func FlattenIDs(values ...any) []string {
	out := make([]string, 0, len(values))
	var walk func(v reflect.Value)
	walk = func(v reflect.Value) {
		switch v.Kind() {
		case reflect.Interface, reflect.Pointer:
			if !v.IsNil() {
				walk(v.Elem())
			}
		case reflect.String:
			out = append(out, v.String())
		case reflect.Slice, reflect.Array:
			for i := 0; i < v.Len(); i++ {
				walk(v.Index(i))
			}
		}
	}
	for _, v := range values {
		walk(reflect.ValueOf(v))
	}
	return out
}
