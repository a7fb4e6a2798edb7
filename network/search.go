package network

import (
	"container/heap"
	"context"
)

const ctxCheckEvery = 1 << 16

type label struct {
	dist float64
	node int32
	src  int32
}

type labelHeap []label

func (h labelHeap) Len() int { return len(h) }

func (h labelHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	if h[i].src != h[j].src {
		return h[i].src < h[j].src
	}
	return h[i].node < h[j].node
}

func (h labelHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *labelHeap) Push(x any) { *h = append(*h, x.(label)) }

func (h *labelHeap) Pop() any {
	old := *h
	l := old[len(old)-1]
	*h = old[:len(old)-1]
	return l
}

// settled holds, for every node, up to k labels in the order they were
// settled: slot j of node i is at i*k+j.
type settled struct {
	k     int
	count []int32
	dist  []float64
	src   []int32
}

func (s *settled) has(node, src int32) bool {
	base := int(node) * s.k
	for j := 0; j < int(s.count[node]); j++ {
		if s.src[base+j] == src {
			return true
		}
	}
	return false
}

// search is a multi-source Dijkstra in which each node is settled by at most
// k distinct sources. Labels are settled in non-decreasing distance order and
// none beyond maxDist is settled. visit, if set, sees every settled label and
// can stop the search by returning false.
//
// A node that already has k sources settled cannot improve any further
// source's path to its neighbours: each of its k sources reaches those
// neighbours at least as cheaply. So labels stop expanding there.
func (n *Network) search(ctx context.Context, starts []label, k int, maxDist float64, visit func(label) bool) (*settled, error) {
	s := &settled{
		k:     k,
		count: make([]int32, len(n.ids)),
		dist:  make([]float64, len(n.ids)*k),
		src:   make([]int32, len(n.ids)*k),
	}

	h := make(labelHeap, 0, len(starts))
	for _, l := range starts {
		if l.dist <= maxDist {
			h = append(h, l)
		}
	}
	heap.Init(&h)

	pops := 0
	for h.Len() > 0 {
		pops++
		if pops%ctxCheckEvery == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		l := heap.Pop(&h).(label)
		c := s.count[l.node]
		if int(c) >= k || s.has(l.node, l.src) {
			continue
		}

		slot := int(l.node)*k + int(c)
		s.dist[slot] = l.dist
		s.src[slot] = l.src
		s.count[l.node]++

		if visit != nil && !visit(l) {
			return s, nil
		}

		for e := n.offsets[l.node]; e < n.offsets[l.node+1]; e++ {
			t := n.targets[e]
			if int(s.count[t]) >= k {
				continue
			}
			d := l.dist + n.weights[e]
			if d > maxDist {
				continue
			}
			heap.Push(&h, label{dist: d, node: t, src: l.src})
		}
	}
	return s, nil
}
