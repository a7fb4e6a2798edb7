package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var ErrUnknownCategory = errors.New("unknown poi category")

type category struct {
	maxDist  float64
	maxItems int
	ids      []string
	nodes    []int32
}

// SetPOIs registers a category of points of interest, snapping each to its
// nearest node. maxDist and maxItems bound later NearestPOIs queries on the
// category. Setting an existing category replaces it.
func (n *Network) SetPOIs(name string, maxDist float64, maxItems int, ids []string, xs, ys []float64) error {
	if len(ids) != len(xs) || len(xs) != len(ys) {
		return fmt.Errorf("poi category %s: got %d ids, %d x and %d y", name, len(ids), len(xs), len(ys))
	}
	if maxItems < 1 {
		return fmt.Errorf("poi category %s: max items must be positive, got %d", name, maxItems)
	}
	if maxDist <= 0 {
		return fmt.Errorf("poi category %s: max distance must be positive, got %f", name, maxDist)
	}

	c := &category{
		maxDist:  maxDist,
		maxItems: maxItems,
		ids:      append([]string(nil), ids...),
		nodes:    make([]int32, len(ids)),
	}
	for i := range ids {
		c.nodes[i], _ = n.tree.nearest(xs[i], ys[i])
	}

	n.mu.Lock()
	n.pois[name] = c
	n.mu.Unlock()
	return nil
}

func (n *Network) category(name string) (*category, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.pois[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, name)
	}
	return c, nil
}

// POINode returns the node the i-th POI of a category was snapped to.
func (n *Network) POINode(name string, i int) (string, error) {
	c, err := n.category(name)
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(c.nodes) {
		return "", fmt.Errorf("poi category %s has no poi %d", name, i)
	}
	return n.ids[c.nodes[i]], nil
}

type Nearest struct {
	Distances []float64
	POIs      []string // "" where fewer than k POIs are in range
}

// NearestResult holds the k nearest POIs for every node of a network.
type NearestResult struct {
	net      *Network
	k        int
	maxDist  float64
	category *category
	found    *settled
}

// NearestPOIs finds, for every node, the k closest POIs of a category by
// network distance, up to maxDist. Slots without a POI in range report
// maxDist and an empty id.
func (n *Network) NearestPOIs(ctx context.Context, maxDist float64, name string, k int) (*NearestResult, error) {
	c, err := n.category(name)
	if err != nil {
		return nil, err
	}
	if k < 1 || k > c.maxItems {
		return nil, fmt.Errorf("poi category %s: k must be between 1 and %d, got %d", name, c.maxItems, k)
	}
	if maxDist <= 0 || maxDist > c.maxDist {
		return nil, fmt.Errorf("poi category %s: distance must be in (0, %f], got %f", name, c.maxDist, maxDist)
	}

	starts := make([]label, len(c.nodes))
	for i, node := range c.nodes {
		starts[i] = label{node: node, src: int32(i)}
	}

	start := time.Now()
	found, err := n.search(ctx, starts, k, maxDist, nil)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, err)
	}
	slog.Debug("nearest pois", "category", name, "pois", len(c.nodes), "k", k, "duration_secs", time.Since(start).Seconds())

	return &NearestResult{net: n, k: k, maxDist: maxDist, category: c, found: found}, nil
}

func (r *NearestResult) K() int {
	return r.k
}

func (r *NearestResult) MaxDistance() float64 {
	return r.maxDist
}

// Node returns the nearest POIs of the node with identifier id.
func (r *NearestResult) Node(id string) (Nearest, bool) {
	i, ok := r.net.index[id]
	if !ok {
		return Nearest{}, false
	}
	return r.at(i), true
}

func (r *NearestResult) at(i int32) Nearest {
	out := Nearest{
		Distances: make([]float64, r.k),
		POIs:      make([]string, r.k),
	}
	count := int(r.found.count[i])
	base := int(i) * r.k
	for j := 0; j < r.k; j++ {
		if j < count {
			out.Distances[j] = r.found.dist[base+j]
			out.POIs[j] = r.category.ids[r.found.src[base+j]]
		} else {
			out.Distances[j] = r.maxDist
		}
	}
	return out
}

// Each calls fn for every node in the network in index order.
func (r *NearestResult) Each(fn func(id string, near Nearest)) {
	for i, id := range r.net.ids {
		fn(id, r.at(int32(i)))
	}
}
