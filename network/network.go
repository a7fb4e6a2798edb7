// Package network routes over the road graph: it snaps coordinates to road
// nodes and finds the nearest points of interest by shortest-path distance.
package network

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"resilience-distances/roads"
	"slices"
	"sync"
)

var ErrEmpty = errors.New("network has no nodes")

// Network is an immutable routable graph plus the POI categories registered
// on it. It is safe for concurrent use.
type Network struct {
	ids   []string
	index map[string]int32
	xs    []float64
	ys    []float64

	// compressed adjacency: the neighbours of node i are
	// targets[offsets[i]:offsets[i+1]]
	offsets []int32
	targets []int32
	weights []float64

	tree *nodeTree

	mu   sync.RWMutex
	pois map[string]*category
}

type Stats struct {
	Nodes        int
	Edges        int
	SkippedLinks int
}

// New builds a network from the nodes and links that fall inside component.
// Links with either end outside the component are dropped, as are links
// whose ends are missing from nodes.
func New(nodes []roads.Node, links []roads.Link, component map[string]struct{}) (*Network, Stats, error) {
	n := &Network{
		index: make(map[string]int32, len(component)),
		pois:  make(map[string]*category),
	}

	for _, node := range nodes {
		if _, ok := component[node.Identifier]; !ok {
			continue
		}
		if _, dup := n.index[node.Identifier]; dup {
			continue
		}
		n.index[node.Identifier] = int32(len(n.ids))
		n.ids = append(n.ids, node.Identifier)
		n.xs = append(n.xs, node.X)
		n.ys = append(n.ys, node.Y)
	}
	if len(n.ids) == 0 {
		return nil, Stats{}, ErrEmpty
	}

	type edge struct {
		a, b int32
		w    float64
	}
	var stats Stats
	edges := make([]edge, 0, len(links))
	for _, l := range links {
		_, inStart := component[l.StartNode]
		_, inEnd := component[l.EndNode]
		if !inStart || !inEnd {
			continue
		}
		a, okA := n.index[l.StartNode]
		b, okB := n.index[l.EndNode]
		if !okA || !okB {
			stats.SkippedLinks++
			continue
		}
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		edges = append(edges, edge{a, b, l.Length})
	}

	// keep the shortest of parallel links
	slices.SortFunc(edges, func(x, y edge) int {
		return cmp.Or(cmp.Compare(x.a, y.a), cmp.Compare(x.b, y.b), cmp.Compare(x.w, y.w))
	})
	edges = slices.CompactFunc(edges, func(x, y edge) bool { return x.a == y.a && x.b == y.b })

	n.offsets = make([]int32, len(n.ids)+1)
	for _, e := range edges {
		n.offsets[e.a+1]++
		n.offsets[e.b+1]++
	}
	for i := 1; i < len(n.offsets); i++ {
		n.offsets[i] += n.offsets[i-1]
	}
	n.targets = make([]int32, 2*len(edges))
	n.weights = make([]float64, 2*len(edges))
	fill := slices.Clone(n.offsets[:len(n.ids)])
	for _, e := range edges {
		n.targets[fill[e.a]] = e.b
		n.weights[fill[e.a]] = e.w
		fill[e.a]++
		n.targets[fill[e.b]] = e.a
		n.weights[fill[e.b]] = e.w
		fill[e.b]++
	}

	n.tree = newNodeTree(n.xs, n.ys)

	stats.Nodes = len(n.ids)
	stats.Edges = len(edges)
	if stats.SkippedLinks > 0 {
		slog.Warn("links reference unknown nodes", "count", stats.SkippedLinks)
	}
	return n, stats, nil
}

// FromTables runs the full preparation: build the graph from links, keep its
// largest connected component, and index that component for routing.
func FromTables(nodes []roads.Node, links []roads.Link) (*Network, Stats, error) {
	links, dropped := roads.KnownLinks(nodes, links)
	if dropped > 0 {
		slog.Warn("dropped links with unknown nodes", "count", dropped)
	}

	g := BuildGraph(links)
	lcc := g.LargestComponent()
	slog.Info("largest connected component", "nodes", len(lcc), "graph_nodes", g.Len())

	net, stats, err := New(nodes, links, lcc)
	if err != nil {
		return nil, Stats{}, err
	}
	stats.SkippedLinks += dropped
	return net, stats, nil
}

func (n *Network) Len() int {
	return len(n.ids)
}

func (n *Network) Has(id string) bool {
	_, ok := n.index[id]
	return ok
}

// Coord returns the location of the node with identifier id.
func (n *Network) Coord(id string) (float64, float64, bool) {
	i, ok := n.index[id]
	if !ok {
		return 0, 0, false
	}
	return n.xs[i], n.ys[i], true
}

// NodeIDs maps each coordinate to the identifier of the nearest node by
// straight-line distance. When maxDist is positive, coordinates further than
// maxDist from every node map to "".
func (n *Network) NodeIDs(xs, ys []float64, maxDist float64) ([]string, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("got %d x and %d y coordinates", len(xs), len(ys))
	}

	out := make([]string, len(xs))
	for i := range xs {
		idx, d := n.tree.nearest(xs[i], ys[i])
		if maxDist > 0 && d > maxDist {
			continue
		}
		out[i] = n.ids[idx]
	}
	return out, nil
}

// NodeID is NodeIDs for one coordinate with no mapping limit. It also returns
// the straight-line distance to the node.
func (n *Network) NodeID(x, y float64) (string, float64) {
	idx, d := n.tree.nearest(x, y)
	return n.ids[idx], d
}

// ShortestPath returns the network distance between two nodes, or +Inf when
// to is unreachable.
func (n *Network) ShortestPath(ctx context.Context, from, to string) (float64, error) {
	a, ok := n.index[from]
	if !ok {
		return 0, fmt.Errorf("unknown node %q", from)
	}
	b, ok := n.index[to]
	if !ok {
		return 0, fmt.Errorf("unknown node %q", to)
	}

	dist := math.Inf(1)
	_, err := n.search(ctx, []label{{node: a}}, 1, math.Inf(1), func(l label) bool {
		if l.node == b {
			dist = l.dist
			return false
		}
		return true
	})
	return dist, err
}
