package network

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"math"
)

type nodePoint struct {
	x, y float64
	idx  int32
}

func (p nodePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(nodePoint)
	switch d {
	case 0:
		return p.x - q.x
	case 1:
		return p.y - q.y
	default:
		panic("illegal dimension")
	}
}

func (p nodePoint) Dims() int { return 2 }

// Distance is squared planar distance, as kdtree expects.
func (p nodePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(nodePoint)
	dx := p.x - q.x
	dy := p.y - q.y
	return dx*dx + dy*dy
}

type nodePoints []nodePoint

func (p nodePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p nodePoints) Len() int                              { return len(p) }
func (p nodePoints) Pivot(d kdtree.Dim) int                { return plane{nodePoints: p, Dim: d}.Pivot() }
func (p nodePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

type plane struct {
	kdtree.Dim
	nodePoints
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.nodePoints[i].x < p.nodePoints[j].x
	case 1:
		return p.nodePoints[i].y < p.nodePoints[j].y
	default:
		panic("illegal dimension")
	}
}

func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.nodePoints = p.nodePoints[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.nodePoints[i], p.nodePoints[j] = p.nodePoints[j], p.nodePoints[i]
}

type nodeTree struct {
	t *kdtree.Tree
}

func newNodeTree(xs, ys []float64) *nodeTree {
	pts := make(nodePoints, len(xs))
	for i := range xs {
		pts[i] = nodePoint{x: xs[i], y: ys[i], idx: int32(i)}
	}
	return &nodeTree{t: kdtree.New(pts, false)}
}

// nearest returns the index of the closest node and its planar distance.
func (t *nodeTree) nearest(x, y float64) (int32, float64) {
	c, d := t.t.Nearest(nodePoint{x: x, y: y})
	return c.(nodePoint).idx, math.Sqrt(d)
}
