package topology

import "maps"

// DefaultNodeType is the rendering variant given to nodes created without one.
const DefaultNodeType = "default"

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeData is the part of a node the edit dialog works on.
type NodeData struct {
	Label      string            `json:"label" yaml:"label"`
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Node is a vertex in the edited topology. Type selects the shape the frontend
// draws it with.
type Node struct {
	ID       string   `json:"id" yaml:"id" validate:"omitempty,max=128"`
	Position Position `json:"position" yaml:"position"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,max=64"`
	Data     NodeData `json:"data" yaml:"data"`
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Data.Attributes = maps.Clone(n.Data.Attributes)
	return n
}

// Edge connects two node IDs. Meta carries whatever the frontend's graph library
// attached to the edge (animation, style, labels...) and is dropped on SaveEdit.
type Edge struct {
	ID     string         `json:"id" yaml:"id" validate:"required"`
	Source string         `json:"source" yaml:"source" validate:"required"`
	Target string         `json:"target" yaml:"target" validate:"required"`
	Meta   map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

func (e Edge) Clone() Edge {
	e.Meta = maps.Clone(e.Meta)
	return e
}

// Stripped returns the edge with only its ID, Source and Target.
func (e Edge) Stripped() Edge {
	return Edge{ID: e.ID, Source: e.Source, Target: e.Target}
}

// Persona is a named preset topology used as the starting point of a session.
type Persona struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []Node `json:"nodes" yaml:"nodes"`
	Edges       []Edge `json:"edges" yaml:"edges"`
}

func (p Persona) Clone() Persona {
	p.Nodes = cloneNodes(p.Nodes)
	p.Edges = cloneEdges(p.Edges)
	return p
}

// State is a point-in-time copy of everything a Store holds. Nothing in a State
// aliases the store.
type State struct {
	Nodes       []Node   `json:"nodes"`
	Edges       []Edge   `json:"edges"`
	DialogOpen  bool     `json:"dialogOpen"`
	GraphShown  bool     `json:"graphShown"`
	PersonaType string   `json:"personaType,omitempty"`
	Persona     *Persona `json:"persona,omitempty"`
	EditBuffer  *Node    `json:"editBuffer,omitempty"`
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func cloneEdges(edges []Edge) []Edge {
	if edges == nil {
		return []Edge{}
	}
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = e.Clone()
	}
	return out
}
