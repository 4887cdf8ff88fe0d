// Package command decodes editor commands sent by browsers and tools and
// applies them to a Graph Session Store.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/psidex/topoedit/internal/persona"
	"github.com/psidex/topoedit/internal/topology"
)

// Op names one store operation.
type Op string

const (
	OpLoadPersona       Op = "loadPersona"
	OpCreateDefaultNode Op = "createDefaultNode"
	OpAddNode           Op = "addNode"
	OpEditNode          Op = "editNode"
	OpDuplicateNode     Op = "duplicateNode"
	OpUpdateEditBuffer  Op = "updateEditBuffer"
	OpSaveEdit          Op = "saveEdit"
	OpDeleteNode        Op = "deleteNode"
	OpMoveNode          Op = "moveNode"
	OpOpenDialog        Op = "openDialog"
	OpCloseDialog       Op = "closeDialog"
	OpReplaceEdges      Op = "replaceEdges"
	OpConnect           Op = "connect"
	OpRevealGraph       Op = "revealGraph"
)

var ErrInvalid = errors.New("invalid command")

// Command is one request to change a store. Which fields matter depends on Op.
// Ops that act on an existing node take either Node or NodeID.
type Command struct {
	Op          Op              `json:"op" validate:"required,oneof=loadPersona createDefaultNode addNode editNode duplicateNode updateEditBuffer saveEdit deleteNode moveNode openDialog closeDialog replaceEdges connect revealGraph"`
	Node        *topology.Node  `json:"node,omitempty"`
	NodeID      string          `json:"nodeId,omitempty" validate:"required_if=Op moveNode"`
	Property    string          `json:"property,omitempty" validate:"required_if=Op updateEditBuffer,max=64"`
	Value       string          `json:"value,omitempty"`
	PersonaType string          `json:"personaType,omitempty" validate:"required_if=Op loadPersona"`
	Edges       []topology.Edge `json:"edges,omitempty" validate:"dive"`
	Source      string          `json:"source,omitempty" validate:"required_if=Op connect"`
	Target      string          `json:"target,omitempty" validate:"required_if=Op connect"`
	X           float64         `json:"x,omitempty"`
	Y           float64         `json:"y,omitempty"`
}

// Result is what applying a command produced. Change is nil when the store did
// not change, which only happens for createDefaultNode and for deleting a
// node that was not there.
type Result struct {
	Change *topology.Change `json:"change,omitempty"`
	// Node is the node createDefaultNode built.
	Node *topology.Node `json:"node,omitempty"`
}

var validate = validator.New()

// Validate checks c's fields without looking at any store.
func (c Command) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, formatValidationError(err))
	}
	switch c.Op {
	case OpEditNode, OpDuplicateNode, OpDeleteNode:
		if c.Node == nil && c.NodeID == "" {
			return fmt.Errorf("%w: %s needs node or nodeId", ErrInvalid, c.Op)
		}
	}
	return nil
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch e.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s long", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

// Apply validates c and runs it against s. catalog resolves loadPersona and
// may be nil when that op is not needed.
func Apply(s *topology.Store, catalog *persona.Catalog, c Command) (Result, error) {
	if err := c.Validate(); err != nil {
		return Result{}, err
	}

	var (
		change topology.Change
		err    error
	)
	switch c.Op {
	case OpLoadPersona:
		if catalog == nil {
			return Result{}, fmt.Errorf("%q: %w", c.PersonaType, persona.ErrUnknownPersona)
		}
		p, err := catalog.Get(c.PersonaType)
		if err != nil {
			return Result{}, err
		}
		change = s.LoadPersona(c.PersonaType, p)
	case OpCreateDefaultNode:
		n := s.CreateDefaultNode()
		return Result{Node: &n}, nil
	case OpAddNode:
		change = s.AddNode(c.Node)
	case OpEditNode:
		n, err := resolve(s, c)
		if err != nil {
			return Result{}, err
		}
		change, err = s.EditNode(n)
		if err != nil {
			return Result{}, err
		}
	case OpDuplicateNode:
		n, err := resolve(s, c)
		if err != nil {
			return Result{}, err
		}
		change = s.DuplicateNode(n)
	case OpUpdateEditBuffer:
		change, err = s.UpdateEditBuffer(c.Property, c.Value)
	case OpSaveEdit:
		change, err = s.SaveEdit()
	case OpDeleteNode:
		n := topology.Node{ID: c.NodeID}
		if c.Node != nil {
			n = *c.Node
		}
		var ok bool
		if change, ok = s.DeleteNode(n); !ok {
			return Result{}, nil
		}
	case OpMoveNode:
		change, err = s.MoveNode(c.NodeID, c.X, c.Y)
	case OpOpenDialog:
		change = s.OpenDialog()
	case OpCloseDialog:
		change = s.CloseDialog()
	case OpReplaceEdges:
		change = s.ReplaceEdges(c.Edges)
	case OpConnect:
		change, err = s.Connect(c.Source, c.Target)
	case OpRevealGraph:
		change = s.RevealGraph()
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Change: &change}, nil
}

// resolve returns c.Node, or the stored node called c.NodeID.
func resolve(s *topology.Store, c Command) (topology.Node, error) {
	if c.Node != nil {
		return *c.Node, nil
	}
	for _, n := range s.Nodes() {
		if n.ID == c.NodeID {
			return n, nil
		}
	}
	return topology.Node{}, fmt.Errorf("%q: %w", c.NodeID, topology.ErrNodeNotFound)
}
