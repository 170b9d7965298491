// Package graph provides a small map-backed directed graph.
//
// Vertices are addressed by a comparable id and carry a payload of type V.
// Every vertex owns an ordered adjacency list of (neighbor, edge payload)
// pairs. When the edge payload is a bool it marks whether the edge points
// at the vertex's parent, which lets callers walk a tree in both directions
// without keeping a second index (see Parent).
//
// The graph performs no cycle detection. Callers that need a tree are
// responsible for building one.
package graph

// Edge is one outgoing edge in a vertex's adjacency list
type Edge[ID comparable, E any] struct {
	To   ID
	Data E
}

// Graph is a labeled directed graph
type Graph[ID comparable, V any, E any] struct {
	vertices  map[ID]*V
	adjacency map[ID][]Edge[ID, E]
}

// New creates an empty graph
func New[ID comparable, V any, E any]() *Graph[ID, V, E] {
	return &Graph[ID, V, E]{
		vertices:  make(map[ID]*V),
		adjacency: make(map[ID][]Edge[ID, E]),
	}
}

// NewVertex inserts a vertex, overwriting any payload already stored under id
func (g *Graph[ID, V, E]) NewVertex(id ID, vertex V) {
	g.vertices[id] = &vertex
}

// PushEdge appends a directed edge from -> to
func (g *Graph[ID, V, E]) PushEdge(from, to ID, data E) {
	g.adjacency[from] = append(g.adjacency[from], Edge[ID, E]{To: to, Data: data})
}

// Vertex returns a copy of the payload stored under id
func (g *Graph[ID, V, E]) Vertex(id ID) (V, bool) {
	v, ok := g.vertices[id]
	if !ok {
		var zero V
		return zero, false
	}
	return *v, true
}

// VertexMutable returns the payload stored under id for in-place changes
func (g *Graph[ID, V, E]) VertexMutable(id ID) (*V, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// Edges returns the outgoing edges of id in insertion order
func (g *Graph[ID, V, E]) Edges(id ID) []Edge[ID, E] {
	return g.adjacency[id]
}

// Len returns the number of vertices
func (g *Graph[ID, V, E]) Len() int {
	return len(g.vertices)
}

// Parent scans the outgoing edges of id for the one flagged as pointing at
// the parent and returns its target. A missing vertex or a vertex without a
// parent edge (the root) yields false.
func Parent[ID comparable, V any](g *Graph[ID, V, bool], id ID) (ID, bool) {
	for _, edge := range g.adjacency[id] {
		if edge.Data {
			return edge.To, true
		}
	}
	var zero ID
	return zero, false
}

// Children returns the targets of the non-parent edges of id in insertion order
func Children[ID comparable, V any](g *Graph[ID, V, bool], id ID) []ID {
	var children []ID
	for _, edge := range g.adjacency[id] {
		if !edge.Data {
			children = append(children, edge.To)
		}
	}
	return children
}
