package graphs

import (
	"io"

	"github.com/psidex/topoedit/internal/persona"
	"github.com/psidex/topoedit/internal/topology"
)

// YAML writes a persona file that the catalog can load back. Type names the
// persona; empty leaves the file stem to decide it.
type YAML struct {
	Type string
}

var _ Renderer = YAML{}

func (YAML) Extension() string   { return ".yaml" }
func (YAML) ContentType() string { return "application/yaml" }

func (y YAML) Render(w io.Writer, st topology.State) error {
	b, err := persona.EncodeYAML(topology.Persona{Type: y.Type, Nodes: st.Nodes, Edges: st.Edges})
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
