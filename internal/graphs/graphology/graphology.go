// Package graphology converts store snapshots to graphology's serialization
// format, either as one document or as a stream of incremental messages.
package graphology

import (
	"encoding/json"
	"hash/fnv"
	"io"
	"reflect"
	"sync"

	"github.com/psidex/topoedit/internal/graphs"
	"github.com/psidex/topoedit/internal/topology"
)

var palette = []string{"blue", "green", "orange", "purple", "red", "teal", "brown", "grey"}

const (
	baseSize = 2.0
	maxSize  = 10.0
)

// Graphology defines a Renderer that writes a serialized graphology graph.
type Graphology struct{}

var _ graphs.Renderer = Graphology{}

func (Graphology) Extension() string   { return ".json" }
func (Graphology) ContentType() string { return "application/json" }

func (Graphology) Render(w io.Writer, st topology.State) error {
	return json.NewEncoder(w).Encode(FromState(st))
}

// FromState builds the graphology document for st. Nodes grow with their
// degree.
func FromState(st topology.State) SerializedGraph {
	g := SerializedGraph{
		Attributes: map[string]any{},
		// The editor allows both parallel edges and self-loops.
		Options: Options{Type: "directed", Multi: true, AllowSelfLoops: true},
		Nodes:   make([]Node, 0, len(st.Nodes)),
		Edges:   make([]Edge, 0, len(st.Edges)),
	}
	if st.PersonaType != "" {
		g.Attributes["persona"] = st.PersonaType
	}

	degree := make(map[string]int, len(st.Nodes))
	for _, e := range st.Edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	for _, n := range st.Nodes {
		g.Nodes = append(g.Nodes, toNode(n, degree[n.ID]))
	}
	for _, e := range st.Edges {
		g.Edges = append(g.Edges, toEdge(e))
	}
	return g
}

func toNode(n topology.Node, degree int) Node {
	size := baseSize + 0.2*float64(degree)
	if size > maxSize {
		size = maxSize
	}
	return Node{
		Key: n.ID,
		Attributes: NodeAttributes{
			X:     n.Position.X,
			Y:     n.Position.Y,
			Size:  size,
			Label: n.Data.Label,
			Color: colorFor(n.Type),
			Kind:  n.Type,
			Name:  n.Data.Name,
		},
	}
}

func toEdge(e topology.Edge) Edge {
	return Edge{Key: e.ID, Source: e.Source, Target: e.Target, Attributes: EdgeAttributes{Size: 2}}
}

func colorFor(nodeType string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(nodeType))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Diff returns the messages that turn a frontend showing prev into one showing
// next. Drops come first so a re-keyed edge never collides with its old self.
func Diff(prev, next topology.State) []Message {
	a, b := FromState(prev), FromState(next)

	oldNodes := make(map[string]Node, len(a.Nodes))
	for _, n := range a.Nodes {
		oldNodes[n.Key] = n
	}
	newNodes := make(map[string]struct{}, len(b.Nodes))
	for _, n := range b.Nodes {
		newNodes[n.Key] = struct{}{}
	}
	oldEdges := make(map[string]Edge, len(a.Edges))
	for _, e := range a.Edges {
		oldEdges[e.Key] = e
	}
	newEdges := make(map[string]Edge, len(b.Edges))
	for _, e := range b.Edges {
		newEdges[e.Key] = e
	}

	var msgs []Message
	for _, e := range a.Edges {
		if ne, ok := newEdges[e.Key]; !ok || ne != e {
			msgs = append(msgs, Message{Type: MsgEdgeDrop, Data: keyOnly{e.Key}})
		}
	}
	for _, n := range a.Nodes {
		if _, ok := newNodes[n.Key]; !ok {
			msgs = append(msgs, Message{Type: MsgNodeDrop, Data: keyOnly{n.Key}})
		}
	}
	for _, n := range b.Nodes {
		old, ok := oldNodes[n.Key]
		switch {
		case !ok:
			msgs = append(msgs, Message{Type: MsgNode, Data: n})
		case !reflect.DeepEqual(old, n):
			msgs = append(msgs, Message{Type: MsgNodeUpdate, Data: n})
		}
	}
	for _, e := range b.Edges {
		if oe, ok := oldEdges[e.Key]; !ok || oe != e {
			msgs = append(msgs, Message{Type: MsgEdge, Data: e})
		}
	}
	return msgs
}

// Stream is a topology.Listener that forwards every change to send as
// graphology messages.
type Stream struct {
	mu   *sync.Mutex
	last topology.State
	send func(Message)
}

var _ topology.Listener = (*Stream)(nil)

// NewStream immediately sends the messages that build initial from an empty
// graph.
func NewStream(initial topology.State, send func(Message)) *Stream {
	s := &Stream{mu: &sync.Mutex{}, send: send}
	s.push(initial)
	return s
}

func (s *Stream) OnChange(c topology.Change) {
	s.push(c.State)
}

func (s *Stream) push(st topology.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range Diff(s.last, st) {
		s.send(m)
	}
	s.last = st
}
