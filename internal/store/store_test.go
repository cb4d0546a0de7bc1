package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-ciplan/internal/store"
)

func newGraph(t *testing.T) (graph.Graph[string, string], store.OrderedStore[string, string]) {
	t.Helper()

	s := store.NewMemoryStore[string, string]()
	g := graph.NewWithStore[string, string](func(v string) string { return v }, s, graph.Directed(), graph.PreventCycles())

	return g, s
}

func TestInsertionOrder(t *testing.T) {
	t.Parallel()

	g, s := newGraph(t)
	for _, v := range []string{"c", "a", "b"} {
		require.NoError(t, g.AddVertex(v))
	}
	require.NoError(t, g.AddEdge("c", "a"))
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("c", "b"))

	vertices, err := s.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, vertices)

	edges, err := s.ListEdges()
	require.NoError(t, err)
	require.Len(t, edges, 3)
	assert.Equal(t, "c", edges[0].Source)
	assert.Equal(t, "a", edges[0].Target)
	assert.Equal(t, "a", edges[1].Source)
	assert.Equal(t, "c", edges[2].Source)
	assert.Equal(t, "b", edges[2].Target)

	require.NoError(t, g.RemoveEdge("a", "b"))
	edges, err = s.ListEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestPreventCycles(t *testing.T) {
	t.Parallel()

	g, _ := newGraph(t)
	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddVertex(v))
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	err := g.AddEdge("c", "a")
	assert.ErrorIs(t, err, graph.ErrEdgeCreatesCycle)
}

func TestCreatesCycle(t *testing.T) {
	t.Parallel()

	g, s := newGraph(t)
	for _, v := range []string{"a", "b"} {
		require.NoError(t, g.AddVertex(v))
	}
	require.NoError(t, g.AddEdge("a", "b"))

	ms, ok := s.(*store.MemoryStore[string, string])
	require.True(t, ok)

	cycle, err := ms.CreatesCycle("b", "a")
	require.NoError(t, err)
	assert.True(t, cycle)

	cycle, err = ms.CreatesCycle("a", "b")
	require.NoError(t, err)
	assert.False(t, cycle)

	cycle, err = ms.CreatesCycle("a", "a")
	require.NoError(t, err)
	assert.True(t, cycle)

	_, err = ms.CreatesCycle("a", "missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}

func TestUpdateVertex(t *testing.T) {
	t.Parallel()

	g, s := newGraph(t)
	require.NoError(t, g.AddVertex("a", graph.VertexAttribute("color", "red")))

	err := s.UpdateVertex("a", func(p *graph.VertexProperties) {
		p.Attributes["color"] = "grey"
	})
	require.NoError(t, err)

	_, props, err := g.VertexWithProperties("a")
	require.NoError(t, err)
	assert.Equal(t, "grey", props.Attributes["color"])

	err = s.UpdateVertex("missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
}

func TestRemoveVertexWithEdges(t *testing.T) {
	t.Parallel()

	g, s := newGraph(t)
	require.NoError(t, g.AddVertex("a"))
	require.NoError(t, g.AddVertex("b"))
	require.NoError(t, g.AddEdge("a", "b"))

	assert.ErrorIs(t, g.RemoveVertex("a"), graph.ErrVertexHasEdges)

	require.NoError(t, g.RemoveEdge("a", "b"))
	require.NoError(t, g.RemoveVertex("a"))

	vertices, err := s.ListVertices()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, vertices)
}
