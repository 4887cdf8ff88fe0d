package topology

import (
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator hands out node IDs. inUse reports whether an ID is already taken
// in the store; generators must never return such an ID.
type IDGenerator interface {
	Next(inUse func(id string) bool) string
	// Reseed is called after the node collection is replaced wholesale.
	Reseed(nodes []Node)
}

// SequentialIDs produces decimal IDs from a counter that only moves forward, so
// an ID freed by a delete is never handed out again in the same session.
type SequentialIDs struct {
	next int
}

func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

func (s *SequentialIDs) Next(inUse func(id string) bool) string {
	for {
		id := strconv.Itoa(s.next)
		s.next++
		if !inUse(id) {
			return id
		}
	}
}

// Reseed moves the counter past the largest numeric ID in nodes. It never moves
// the counter backwards.
func (s *SequentialIDs) Reseed(nodes []Node) {
	for _, n := range nodes {
		if v, err := strconv.Atoi(n.ID); err == nil && v >= s.next {
			s.next = v + 1
		}
	}
}

// UUIDs produces random v4 UUIDs.
type UUIDs struct{}

func (UUIDs) Next(inUse func(id string) bool) string {
	for {
		id := uuid.NewString()
		if !inUse(id) {
			return id
		}
	}
}

func (UUIDs) Reseed([]Node) {}
