package topology

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

const (
	DefaultCanvasWidth  = 1200
	DefaultCanvasHeight = 800

	// newNodeMarker is the label stem of nodes made by CreateDefaultNode.
	newNodeMarker = "new node"
	duplicateTag  = " duplicate"
)

type Option func(*Store)

// WithCanvas sets the canvas size used to place default nodes.
func WithCanvas(width, height float64) Option {
	return func(s *Store) { s.canvas = Position{X: width, Y: height} }
}

func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is the Graph Session Store: the editable nodes, edges and dialog state
// of one editing session, and the only way to change them.
//
// Every mutating method returns the Change it produced and hands the same
// Change to all subscribed listeners before returning. Listeners are called
// after the store's lock is released, so they may read from the store, but
// they are serialised so changes arrive in Seq order.
type Store struct {
	mu     *sync.Mutex
	emitMu *sync.Mutex
	logger *slog.Logger
	ids    IDGenerator
	canvas Position

	nodes       []Node
	edges       []Edge
	dialogOpen  bool
	graphShown  bool
	personaType string
	persona     *Persona
	editBuffer  *Node

	seq        uint64
	listeners  []*subscription
	listenerID int
}

type subscription struct {
	id int
	l  Listener
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		mu:     &sync.Mutex{},
		emitMu: &sync.Mutex{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:    NewSequentialIDs(),
		canvas: Position{X: DefaultCanvasWidth, Y: DefaultCanvasHeight},
		nodes:  []Node{},
		edges:  []Edge{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l for every future Change. The returned func removes it
// and is safe to call more than once.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listenerID++
	sub := &subscription{id: s.listenerID, l: l}
	s.listeners = append(s.listeners, sub)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(o *subscription) bool {
			return o.id == sub.id
		})
	}
}

// apply runs fn under the lock and, if it succeeds, records and publishes the
// resulting Change.
func (s *Store) apply(fn func() (Kind, string, error)) (Change, error) {
	s.mu.Lock()
	kind, nodeID, err := fn()
	if err != nil {
		s.mu.Unlock()
		return Change{}, err
	}

	s.seq++
	c := Change{Seq: s.seq, Kind: kind, NodeID: nodeID, State: s.snapshot()}
	listeners := slices.Clone(s.listeners)

	// Take the emit lock before giving up the state lock so that two
	// concurrent mutations publish in the order they were applied.
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()

	s.logger.Debug("applied change", "seq", c.Seq, "kind", c.Kind, "node", nodeID,
		"nodes", len(c.State.Nodes), "edges", len(c.State.Edges))

	for _, sub := range listeners {
		sub.l.OnChange(c)
	}
	return c, nil
}

// mustApply is apply for operations that cannot fail.
func (s *Store) mustApply(fn func() (Kind, string)) Change {
	c, _ := s.apply(func() (Kind, string, error) {
		kind, id := fn()
		return kind, id, nil
	})
	return c
}

// LoadPersona replaces the node and edge collections with copies of the
// persona's and records which persona was chosen. The persona is not checked.
func (s *Store) LoadPersona(personaType string, p Persona) Change {
	return s.mustApply(func() (Kind, string) {
		p = p.Clone()
		s.nodes = cloneNodes(p.Nodes)
		s.edges = cloneEdges(p.Edges)
		s.personaType = personaType
		s.persona = &p
		s.ids.Reseed(s.nodes)
		return KindLoadPersona, ""
	})
}

// CreateDefaultNode builds, but does not add, a node at the centre of the
// canvas labelled "new node N".
func (s *Store) CreateDefaultNode() Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaultNodeLocked()
}

func (s *Store) defaultNodeLocked() Node {
	count := 0
	for _, n := range s.nodes {
		if strings.Contains(n.Data.Label, newNodeMarker) {
			count++
		}
	}
	return Node{
		ID:       s.ids.Next(s.hasNodeLocked),
		Position: Position{X: s.canvas.X / 2, Y: s.canvas.Y / 2},
		Type:     DefaultNodeType,
		Data: NodeData{
			Label: fmt.Sprintf("%s %d", newNodeMarker, count+1),
		},
	}
}

// AddNode appends n, or a default node when n is nil, and opens the edit
// dialog on it. A node without an ID is given one.
func (s *Store) AddNode(n *Node) Change {
	return s.mustApply(func() (Kind, string) {
		return KindAddNode, s.addLocked(n)
	})
}

func (s *Store) addLocked(n *Node) string {
	var node Node
	if n == nil {
		node = s.defaultNodeLocked()
	} else {
		node = n.Clone()
		if node.ID == "" {
			node.ID = s.ids.Next(s.hasNodeLocked)
		}
		if node.Type == "" {
			node.Type = DefaultNodeType
		}
	}

	s.nodes = append(s.nodes, node)
	buf := node.Clone()
	s.editBuffer = &buf
	s.dialogOpen = true
	return node.ID
}

// EditNode opens the edit dialog on a copy of n, which must already be in the
// store.
func (s *Store) EditNode(n Node) (Change, error) {
	return s.apply(func() (Kind, string, error) {
		if s.indexLocked(n.ID) < 0 {
			return "", "", fmt.Errorf("edit %q: %w", n.ID, ErrNodeNotFound)
		}
		buf := n.Clone()
		s.editBuffer = &buf
		s.dialogOpen = true
		return KindEditNode, n.ID, nil
	})
}

// DuplicateNode adds a copy of n under a fresh ID with its label and name
// marked as a duplicate.
func (s *Store) DuplicateNode(n Node) Change {
	return s.mustApply(func() (Kind, string) {
		dup := n.Clone()
		dup.ID = ""
		dup.Data.Label += duplicateTag
		if dup.Data.Name != "" {
			dup.Data.Name += duplicateTag
		}
		return KindAddNode, s.addLocked(&dup)
	})
}

// UpdateEditBuffer sets one data field of the node being edited. "label" and
// "name" address the named fields; anything else is stored as an attribute.
func (s *Store) UpdateEditBuffer(property, value string) (Change, error) {
	return s.apply(func() (Kind, string, error) {
		if s.editBuffer == nil {
			return "", "", ErrNoPendingEdit
		}
		data := &s.editBuffer.Data
		switch property {
		case "label":
			data.Label = value
		case "name":
			data.Name = value
		default:
			if data.Attributes == nil {
				data.Attributes = make(map[string]string)
			}
			data.Attributes[property] = value
		}
		return KindUpdateBuffer, s.editBuffer.ID, nil
	})
}

// SaveEdit writes the edit buffer over the node with the same ID, reduces every
// edge to its ID, Source and Target, then closes the dialog. When there is
// nothing to save the store is left untouched.
func (s *Store) SaveEdit() (Change, error) {
	return s.apply(func() (Kind, string, error) {
		if s.editBuffer == nil {
			return "", "", ErrNoPendingEdit
		}
		i := s.indexLocked(s.editBuffer.ID)
		if i < 0 {
			return "", "", fmt.Errorf("save %q: %w", s.editBuffer.ID, ErrNodeNotFound)
		}

		id := s.editBuffer.ID
		s.nodes[i] = s.editBuffer.Clone()
		for j, e := range s.edges {
			s.edges[j] = e.Stripped()
		}
		s.dialogOpen = false
		s.editBuffer = nil
		return KindSaveEdit, id, nil
	})
}

// DeleteNode removes the node with n's ID together with every edge that starts
// or ends at it. ok is false, and no Change is published, if there was no such
// node.
func (s *Store) DeleteNode(n Node) (c Change, ok bool) {
	c, err := s.apply(func() (Kind, string, error) {
		i := s.indexLocked(n.ID)
		if i < 0 {
			return "", "", ErrNodeNotFound
		}
		s.nodes = slices.Delete(s.nodes, i, i+1)
		s.edges = slices.DeleteFunc(s.edges, func(e Edge) bool {
			return e.Source == n.ID || e.Target == n.ID
		})
		return KindDeleteNode, n.ID, nil
	})
	return c, err == nil
}

// MoveNode records a drag of node id to (x, y).
func (s *Store) MoveNode(id string, x, y float64) (Change, error) {
	return s.apply(func() (Kind, string, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return "", "", fmt.Errorf("move %q: %w", id, ErrNodeNotFound)
		}
		s.nodes[i].Position = Position{X: x, Y: y}
		return KindMoveNode, id, nil
	})
}

func (s *Store) OpenDialog() Change {
	return s.mustApply(func() (Kind, string) {
		s.dialogOpen = true
		return KindOpenDialog, ""
	})
}

// CloseDialog hides the dialog and drops any pending edit.
func (s *Store) CloseDialog() Change {
	return s.mustApply(func() (Kind, string) {
		s.dialogOpen = false
		s.editBuffer = nil
		return KindCloseDialog, ""
	})
}

// ReplaceEdges swaps in a copy of edges. Later changes to the caller's slice do
// not reach the store.
func (s *Store) ReplaceEdges(edges []Edge) Change {
	return s.mustApply(func() (Kind, string) {
		s.edges = cloneEdges(edges)
		return KindReplaceEdges, ""
	})
}

// Connect adds an edge from source to target. Both nodes must exist.
func (s *Store) Connect(source, target string) (Change, error) {
	return s.apply(func() (Kind, string, error) {
		for _, id := range []string{source, target} {
			if s.indexLocked(id) < 0 {
				return "", "", fmt.Errorf("connect %q: %w", id, ErrNodeNotFound)
			}
		}
		s.edges = append(s.edges, Edge{
			ID:     s.edgeIDLocked(source, target),
			Source: source,
			Target: target,
		})
		return KindConnect, "", nil
	})
}

// RevealGraph switches the frontend from persona selection to the canvas.
// There is no way back.
func (s *Store) RevealGraph() Change {
	return s.mustApply(func() (Kind, string) {
		s.graphShown = true
		return KindRevealGraph, ""
	})
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// SnapshotSeq is Snapshot together with the Seq of the last Change it
// includes. Subscribers use it to skip changes they have already seen.
func (s *Store) SnapshotSeq() (State, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), s.seq
}

func (s *Store) Nodes() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneNodes(s.nodes)
}

func (s *Store) Edges() []Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEdges(s.edges)
}

func (s *Store) DialogOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogOpen
}

func (s *Store) GraphShown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graphShown
}

func (s *Store) PersonaType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.personaType
}

// Persona returns the persona last loaded, if any.
func (s *Store) Persona() (Persona, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persona == nil {
		return Persona{}, false
	}
	return s.persona.Clone(), true
}

// EditBuffer returns the node being edited, if any.
func (s *Store) EditBuffer() (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editBuffer == nil {
		return Node{}, false
	}
	return s.editBuffer.Clone(), true
}

// snapshot must be called with s.mu held.
func (s *Store) snapshot() State {
	st := State{
		Nodes:       cloneNodes(s.nodes),
		Edges:       cloneEdges(s.edges),
		DialogOpen:  s.dialogOpen,
		GraphShown:  s.graphShown,
		PersonaType: s.personaType,
	}
	if s.persona != nil {
		p := s.persona.Clone()
		st.Persona = &p
	}
	if s.editBuffer != nil {
		n := s.editBuffer.Clone()
		st.EditBuffer = &n
	}
	return st
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.nodes, func(n Node) bool { return n.ID == id })
}

// edgeIDLocked returns e<source>-<target>, suffixed -2, -3... when an edge
// already holds that id.
func (s *Store) edgeIDLocked(source, target string) string {
	base := fmt.Sprintf("e%s-%s", source, target)
	used := func(id string) bool {
		return slices.ContainsFunc(s.edges, func(e Edge) bool { return e.ID == id })
	}
	id := base
	for n := 2; used(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func (s *Store) hasNodeLocked(id string) bool {
	return s.indexLocked(id) >= 0
}
