package graphs

import (
	"encoding/json"
	"io"

	"github.com/psidex/topoedit/internal/lib"
	"github.com/psidex/topoedit/internal/topology"
)

// Adjacency renders a node ID to neighbour IDs map as indented JSON. Every
// node gets an entry, edges whose source is missing are ignored. It does not
// de-duplicate edges.
type Adjacency struct{}

var _ Renderer = Adjacency{}

func (Adjacency) Extension() string   { return ".json" }
func (Adjacency) ContentType() string { return "application/json" }

func (Adjacency) Render(w io.Writer, st topology.State) error {
	present := lib.NewSet()
	node2node := make(map[string][]string, len(st.Nodes))
	for _, n := range st.Nodes {
		present.Add(n.ID)
		node2node[n.ID] = []string{}
	}
	for _, e := range st.Edges {
		if !present.Contains(e.Source) {
			continue
		}
		node2node[e.Source] = append(node2node[e.Source], e.Target)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(node2node)
}
