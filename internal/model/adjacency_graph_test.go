package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three beds in a row: 1 - 2 - 3, with bed 3 only declaring its side of
// the edge.
func rowOfBeds() []Bed {
	return []Bed{
		{ID: 1, Garden: "north", Adjacent: map[string][]int{"contiguity": {2}}},
		{ID: 2, Garden: "north", Adjacent: map[string][]int{"contiguity": {1}}},
		{ID: 3, Garden: "south", Adjacent: map[string][]int{"contiguity": {2}}},
	}
}

func TestBuildAdjacencyGraph(t *testing.T) {
	t.Run("computes the symmetric closure", func(t *testing.T) {
		// Arrange: bed 2 does not declare bed 3, only the reverse.
		beds := rowOfBeds()

		// Act
		graph, err := BuildAdjacencyGraph(beds, "contiguity")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []int{2}, graph.Neighbors(1))
		assert.Equal(t, []int{1, 3}, graph.Neighbors(2))
		assert.True(t, graph.HasEdge(2, 3))
		assert.Equal(t, [][2]int{{1, 2}, {2, 1}, {2, 3}, {3, 2}}, graph.Edges())
	})

	t.Run("unknown adjacency type", func(t *testing.T) {
		_, err := BuildAdjacencyGraph(rowOfBeds(), "shared_path")

		assert.ErrorIs(t, err, ErrUnknownAdjacencyType)
	})

	t.Run("dangling neighbour reference", func(t *testing.T) {
		beds := rowOfBeds()
		beds[0].Adjacent["contiguity"] = []int{2, 9}

		_, err := BuildAdjacencyGraph(beds, "contiguity")

		assert.ErrorIs(t, err, ErrDanglingAdjacencyReference)
	})
}

func TestAdjacencyGraphConnected(t *testing.T) {
	graph, err := BuildAdjacencyGraph(rowOfBeds(), "contiguity")
	require.NoError(t, err)

	assert.True(t, graph.Connected(nil))
	assert.True(t, graph.Connected([]int{2}))
	assert.True(t, graph.Connected([]int{1, 2, 3}))
	assert.False(t, graph.Connected([]int{1, 3}))
}

func TestSimplePaths(t *testing.T) {
	graph, err := BuildAdjacencyGraph(rowOfBeds(), "contiguity")
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1}, {2}, {3}}, graph.SimplePaths(1))
	assert.Equal(t, [][]int{{1, 2}, {2, 1}, {2, 3}, {3, 2}}, graph.SimplePaths(2))
	assert.Equal(t, [][]int{{1, 2, 3}, {3, 2, 1}}, graph.SimplePaths(3))
	assert.Empty(t, graph.SimplePaths(4))
	assert.Empty(t, graph.SimplePaths(0))
}
