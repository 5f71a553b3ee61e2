package model

import (
	"container/heap"
	"fmt"
	"slices"
	"sort"
)

// IntervalGraph is the intersection graph of a set of closed intervals:
// one node per interval, an edge for every overlapping unordered pair.
type IntervalGraph struct {
	intervals []Interval
	neighbors [][]int
}

// BuildIntervalGraph builds the interval graph with a sorted sweep, in
// O(n log n) plus the size of the edge set. It fails on malformed
// (start > end) intervals.
func BuildIntervalGraph(intervals []Interval) (*IntervalGraph, error) {
	for i, interval := range intervals {
		if !interval.Valid() {
			return nil, fmt.Errorf("%w: interval %d is empty (%s)", ErrDataIntegrity, i, interval)
		}
	}

	graph := &IntervalGraph{
		intervals: slices.Clone(intervals),
		neighbors: make([][]int, len(intervals)),
	}

	order := make([]int, len(intervals))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return intervals[order[a]].Start.Before(intervals[order[b]].Start)
	})

	active := &endHeap{intervals: intervals}
	for _, node := range order {
		start := intervals[node].Start
		for active.Len() > 0 && intervals[active.ids[0]].End.Before(start) {
			heap.Pop(active)
		}
		for _, other := range active.ids {
			graph.neighbors[node] = append(graph.neighbors[node], other)
			graph.neighbors[other] = append(graph.neighbors[other], node)
		}
		heap.Push(active, node)
	}
	for _, adjacent := range graph.neighbors {
		slices.Sort(adjacent)
	}
	return graph, nil
}

// Len returns the number of nodes.
func (g *IntervalGraph) Len() int { return len(g.intervals) }

// Neighbors returns the nodes whose intervals overlap node i.
func (g *IntervalGraph) Neighbors(i int) []int { return g.neighbors[i] }

// HasEdge reports whether the intervals of i and j overlap.
func (g *IntervalGraph) HasEdge(i, j int) bool {
	_, found := slices.BinarySearch(g.neighbors[i], j)
	return found && i != j
}

// Edges returns every overlapping unordered pair, lexicographically
// ordered.
func (g *IntervalGraph) Edges() [][2]int {
	var edges [][2]int
	for i, adjacent := range g.neighbors {
		for _, j := range adjacent {
			if i < j {
				edges = append(edges, [2]int{i, j})
			}
		}
	}
	return edges
}

// MaximalCliques enumerates the maximal cliques of the graph with a
// single sweep. Interval graphs are chordal, so each maximal clique is
// the active set right before some interval expires.
func (g *IntervalGraph) MaximalCliques() [][]int {
	type event struct {
		node  int
		start bool
	}
	events := make([]event, 0, 2*len(g.intervals))
	for i := range g.intervals {
		events = append(events, event{i, true}, event{i, false})
	}
	at := func(e event) (t int64, start bool) {
		if e.start {
			return g.intervals[e.node].Start.Unix(), true
		}
		return g.intervals[e.node].End.Unix(), false
	}
	sort.SliceStable(events, func(a, b int) bool {
		ta, startA := at(events[a])
		tb, startB := at(events[b])
		if ta != tb {
			return ta < tb
		}
		// Closed intervals: an interval starting the day another ends
		// still overlaps it, so starts are processed first.
		return startA && !startB
	})

	active := map[int]struct{}{}
	grown := false
	var cliques [][]int
	for _, e := range events {
		if e.start {
			active[e.node] = struct{}{}
			grown = true
			continue
		}
		if grown {
			clique := make([]int, 0, len(active))
			for node := range active {
				clique = append(clique, node)
			}
			slices.Sort(clique)
			cliques = append(cliques, clique)
			grown = false
		}
		delete(active, e.node)
	}
	return cliques
}

type endHeap struct {
	intervals []Interval
	ids       []int
}

func (h *endHeap) Len() int { return len(h.ids) }

func (h *endHeap) Less(a, b int) bool {
	return h.intervals[h.ids[a]].End.Before(h.intervals[h.ids[b]].End)
}

func (h *endHeap) Swap(a, b int) { h.ids[a], h.ids[b] = h.ids[b], h.ids[a] }

func (h *endHeap) Push(x any) { h.ids = append(h.ids, x.(int)) }

func (h *endHeap) Pop() any {
	last := h.ids[len(h.ids)-1]
	h.ids = h.ids[:len(h.ids)-1]
	return last
}
