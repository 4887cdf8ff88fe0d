package topology

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDs_SkipsIDsInUse(t *testing.T) {
	g := NewSequentialIDs()
	taken := map[string]bool{"0": true, "1": true}

	assert.Equal(t, "2", g.Next(func(id string) bool { return taken[id] }))
	assert.Equal(t, "3", g.Next(func(string) bool { return false }))
}

func TestSequentialIDs_Reseed(t *testing.T) {
	g := NewSequentialIDs()
	g.Reseed([]Node{{ID: "4"}, {ID: "router"}, {ID: "1"}})
	assert.Equal(t, "5", g.Next(func(string) bool { return false }))

	// A smaller persona does not rewind the counter.
	g.Reseed([]Node{{ID: "0"}})
	assert.Equal(t, "6", g.Next(func(string) bool { return false }))
}

func TestUUIDs(t *testing.T) {
	s := NewStore(WithIDGenerator(UUIDs{}))
	s.AddNode(nil)
	s.DuplicateNode(s.Nodes()[0])

	nodes := s.Nodes()
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		_, err := uuid.Parse(n.ID)
		assert.NoError(t, err)
	}
	assert.NotEqual(t, nodes[0].ID, nodes[1].ID)
}
