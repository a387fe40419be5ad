package graph

import (
	"encoding/json"

	"github.com/kbukum/pipegraph/model"
	"github.com/kbukum/pipegraph/status"
)

// EdgeType selects how the renderer draws an edge.
type EdgeType string

const (
	EdgeSmooth         EdgeType = "smooth"
	EdgeBezierDirected EdgeType = "bezier-directed"
	EdgePipeline       EdgeType = "pipeline"
)

// Edge connects two nodes by id. Active is true when the source node is OPEN.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
	Active bool     `json:"active,omitempty"`
}

// Graph is an ordered collection of nodes and edges. Order is significant:
// the layout engine uses it to break ties.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) Node {
	if g == nil {
		return nil
	}
	for _, n := range g.Nodes {
		if n.Common().ID == id {
			return n
		}
	}
	return nil
}

// IDs returns the node ids in order.
func (g *Graph) IDs() []string {
	if g == nil {
		return nil
	}
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.Common().ID
	}
	return ids
}

// EdgeIDs returns the edge ids in order.
func (g *Graph) EdgeIDs() []string {
	if g == nil {
		return nil
	}
	ids := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		ids[i] = e.ID
	}
	return ids
}

// Index maps node ids to their position in Nodes.
func (g *Graph) Index() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.Common().ID] = i
	}
	return idx
}

// Clone returns a copy whose nodes can be repositioned without touching g.
// Model payloads are shared.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return &Graph{}
	}
	c := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: append([]Edge(nil), g.Edges...),
	}
	for i, n := range g.Nodes {
		c.Nodes[i] = n.clone()
	}
	return c
}

type wireNode struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Point    `json:"position"`
	Size     Size     `json:"size"`
	Meta     Meta     `json:"meta"`
	Data     any      `json:"data,omitempty"`
}

type wireGraph struct {
	Nodes []wireNode `json:"nodes"`
	Edges []Edge     `json:"edges"`
}

// MarshalJSON encodes the graph with a "type" discriminant on every node.
func (g *Graph) MarshalJSON() ([]byte, error) {
	w := wireGraph{
		Nodes: make([]wireNode, 0, len(g.Nodes)),
		Edges: g.Edges,
	}
	if w.Edges == nil {
		w.Edges = []Edge{}
	}
	for _, n := range g.Nodes {
		b := n.Common()
		w.Nodes = append(w.Nodes, wireNode{
			ID:       b.ID,
			Type:     n.Type(),
			Position: b.Position,
			Size:     b.Size,
			Meta:     b.Meta,
			Data:     n.Data(),
		})
	}
	return json.Marshal(w)
}

// builder accumulates nodes and edges, keeping the first of any duplicate id.
type builder struct {
	g     *Graph
	nodes map[string]struct{}
	edges map[string]struct{}
}

func newBuilder() *builder {
	return &builder{
		g:     &Graph{Nodes: []Node{}, Edges: []Edge{}},
		nodes: make(map[string]struct{}),
		edges: make(map[string]struct{}),
	}
}

func (b *builder) has(id string) bool {
	_, ok := b.nodes[id]
	return ok
}

func (b *builder) addNode(n Node) bool {
	id := n.Common().ID
	if id == "" || b.has(id) {
		return false
	}
	b.nodes[id] = struct{}{}
	b.g.Nodes = append(b.g.Nodes, n)
	return true
}

func (b *builder) addEdge(e Edge) bool {
	if e.ID == "" || e.Source == "" || e.Target == "" {
		return false
	}
	if _, dup := b.edges[e.ID]; dup {
		return false
	}
	b.edges[e.ID] = struct{}{}
	b.g.Edges = append(b.g.Edges, e)
	return true
}

// finish marks edges leaving OPEN nodes as active.
func (b *builder) finish() *Graph {
	states := make(map[string]*model.GateState, len(b.g.Nodes))
	for _, n := range b.g.Nodes {
		states[n.Common().ID] = n.Common().Meta.State
	}
	for i := range b.g.Edges {
		if s := states[b.g.Edges[i].Source]; s != nil {
			b.g.Edges[i].Active = status.Active(*s, true)
		}
	}
	return b.g
}

func statePtr(s model.GateState, known bool) *model.GateState {
	if !known {
		return nil
	}
	return &s
}
