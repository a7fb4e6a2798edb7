package network

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"math"
	"resilience-distances/roads"
	"sort"
)

// Graph is the weighted undirected road graph keyed by OS node identifier.
// It is only used to find connected components; routing happens on a Network.
type Graph struct {
	ids   map[string]int64
	names []string
	g     *simple.WeightedUndirectedGraph
}

func BuildGraph(links []roads.Link) *Graph {
	g := &Graph{
		ids: make(map[string]int64),
		g:   simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
	}
	for _, l := range links {
		from := g.node(l.StartNode)
		to := g.node(l.EndNode)
		if from == to {
			continue
		}
		if e := g.g.WeightedEdge(from, to); e != nil && e.Weight() <= l.Length {
			continue
		}
		g.g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(from), T: simple.Node(to), W: l.Length})
	}
	return g
}

func (g *Graph) node(name string) int64 {
	if id, ok := g.ids[name]; ok {
		return id
	}
	id := int64(len(g.names))
	g.ids[name] = id
	g.names = append(g.names, name)
	g.g.AddNode(simple.Node(id))
	return id
}

func (g *Graph) Len() int {
	return len(g.names)
}

// Weight returns the length of the edge between a and b.
func (g *Graph) Weight(a, b string) (float64, bool) {
	from, okA := g.ids[a]
	to, okB := g.ids[b]
	if !okA || !okB {
		return 0, false
	}
	e := g.g.WeightedEdge(from, to)
	if e == nil {
		return 0, false
	}
	return e.Weight(), true
}

// Components returns every connected component, largest first. Equal sized
// components are ordered by their smallest identifier.
func (g *Graph) Components() [][]string {
	raw := topo.ConnectedComponents(g.g)

	out := make([][]string, len(raw))
	for i, c := range raw {
		names := make([]string, len(c))
		for j, n := range c {
			names[j] = g.names[n.ID()]
		}
		sort.Strings(names)
		out[i] = names
	}

	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i][0] < out[j][0]
	})
	return out
}

func (g *Graph) LargestComponent() map[string]struct{} {
	comps := g.Components()
	if len(comps) == 0 {
		return map[string]struct{}{}
	}
	set := make(map[string]struct{}, len(comps[0]))
	for _, n := range comps[0] {
		set[n] = struct{}{}
	}
	return set
}
