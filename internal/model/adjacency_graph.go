package model

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// AdjacencyGraph is the bed graph for one named adjacency type. The
// symmetric closure of the declared neighbour lists is computed here:
// bed A listing bed B is enough for the edge (A, B) to exist.
type AdjacencyGraph struct {
	adjacencyType string
	neighbors     map[int][]int
}

// BuildAdjacencyGraph builds the graph for the given adjacency type
// over all loaded beds. It fails with ErrUnknownAdjacencyType when no
// bed declares that adjacency-type column.
func BuildAdjacencyGraph(beds []Bed, adjacencyType string) (*AdjacencyGraph, error) {
	declared := lo.SomeBy(beds, func(bed Bed) bool {
		_, ok := bed.Adjacent[adjacencyType]
		return ok
	})
	if !declared {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdjacencyType, adjacencyType)
	}

	graph := &AdjacencyGraph{
		adjacencyType: adjacencyType,
		neighbors:     make(map[int][]int, len(beds)),
	}
	for _, bed := range beds {
		if _, ok := graph.neighbors[bed.ID]; !ok {
			graph.neighbors[bed.ID] = nil
		}
	}
	for _, bed := range beds {
		for _, other := range bed.Adjacent[adjacencyType] {
			if _, ok := graph.neighbors[other]; !ok {
				return nil, fmt.Errorf(
					"%w: bed %d lists %d for adjacency type %q",
					ErrDanglingAdjacencyReference, bed.ID, other, adjacencyType,
				)
			}
			graph.addEdge(bed.ID, other)
		}
	}
	return graph, nil
}

func (g *AdjacencyGraph) addEdge(a, b int) {
	if a == b {
		return
	}
	if !slices.Contains(g.neighbors[a], b) {
		g.neighbors[a] = append(g.neighbors[a], b)
		slices.Sort(g.neighbors[a])
	}
	if !slices.Contains(g.neighbors[b], a) {
		g.neighbors[b] = append(g.neighbors[b], a)
		slices.Sort(g.neighbors[b])
	}
}

// Neighbors returns the beds adjacent to the given bed, sorted.
func (g *AdjacencyGraph) Neighbors(bed int) []int {
	return g.neighbors[bed]
}

// HasEdge reports whether two beds are adjacent.
func (g *AdjacencyGraph) HasEdge(a, b int) bool {
	return slices.Contains(g.neighbors[a], b)
}

// Edges returns every adjacency as ordered pairs in both directions,
// the tuple set used by spatial table constraints.
func (g *AdjacencyGraph) Edges() [][2]int {
	var edges [][2]int
	for bed, adjacent := range g.neighbors {
		for _, other := range adjacent {
			edges = append(edges, [2]int{bed, other})
		}
	}
	slices.SortFunc(edges, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	return edges
}

// Connected reports whether the induced subgraph on the given beds is
// connected. Singleton and empty sets count as connected.
func (g *AdjacencyGraph) Connected(beds []int) bool {
	if len(beds) <= 1 {
		return true
	}
	inSet := lo.SliceToMap(beds, func(bed int) (int, bool) { return bed, true })
	visited := map[int]bool{beds[0]: true}
	frontier := []int{beds[0]}
	for len(frontier) > 0 {
		bed := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, other := range g.neighbors[bed] {
			if inSet[other] && !visited[other] {
				visited[other] = true
				frontier = append(frontier, other)
			}
		}
	}
	return len(visited) == len(beds)
}

// SimplePaths enumerates every simple path visiting exactly length
// distinct beds, in both directions. These are the allowed tuples for
// hard crop-grouping constraints.
func (g *AdjacencyGraph) SimplePaths(length int) [][]int {
	if length <= 0 {
		return nil
	}
	sources := lo.Keys(g.neighbors)
	slices.Sort(sources)

	var paths [][]int
	var extend func(path []int)
	extend = func(path []int) {
		if len(path) == length {
			paths = append(paths, slices.Clone(path))
			return
		}
		for _, next := range g.neighbors[path[len(path)-1]] {
			if !slices.Contains(path, next) {
				extend(append(path, next))
			}
		}
	}
	for _, source := range sources {
		extend([]int{source})
	}
	return paths
}
