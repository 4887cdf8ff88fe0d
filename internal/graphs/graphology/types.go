package graphology

type NodeAttributes struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	// Kind is the editor's node type, "type" is reserved by sigma for the
	// node program.
	Kind string `json:"kind,omitempty"`
	Name string `json:"name,omitempty"`
}

type Node struct {
	Key        string         `json:"key"`
	Attributes NodeAttributes `json:"attributes"`
}

type EdgeAttributes struct {
	Size int `json:"size"`
}

type Edge struct {
	Key        string         `json:"key"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Attributes EdgeAttributes `json:"attributes"`
}

type Options struct {
	Type           string `json:"type"`
	Multi          bool   `json:"multi"`
	AllowSelfLoops bool   `json:"allowSelfLoops"`
}

// SerializedGraph is what graphology's Graph.import expects.
type SerializedGraph struct {
	Attributes map[string]any `json:"attributes,omitempty"`
	Options    Options        `json:"options"`
	Nodes      []Node         `json:"nodes"`
	Edges      []Edge         `json:"edges"`
}

// Message types pushed to graphology frontends.
const (
	MsgNode       = "node"
	MsgNodeUpdate = "nodeupdate"
	MsgNodeDrop   = "nodedrop"
	MsgEdge       = "edge"
	MsgEdgeDrop   = "edgedrop"
)

// Message is one websocket frame of an incremental graphology stream.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type keyOnly struct {
	Key string `json:"key"`
}
