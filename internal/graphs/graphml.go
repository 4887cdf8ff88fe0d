package graphs

import (
	"io"

	"github.com/psidex/topoedit/internal/persona"
	"github.com/psidex/topoedit/internal/topology"
)

// GraphML writes the nodes and edges in the format persona files and the
// network runner read.
type GraphML struct{}

var _ Renderer = GraphML{}

func (GraphML) Extension() string   { return ".graphml" }
func (GraphML) ContentType() string { return "application/graphml+xml" }

func (GraphML) Render(w io.Writer, st topology.State) error {
	return persona.EncodeGraphML(w, st.Nodes, st.Edges)
}
