package persona

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/psidex/topoedit/internal/topology"
)

// hclPersonaFile is the top-level structure of a persona file:
//
//	persona "triangle" {
//	  description = "three nodes"
//	  node "0" {
//	    label = "alice"
//	    x     = 100
//	    y     = 100
//	    attributes = { version = "26.0" }
//	  }
//	  edge "e0-1" {
//	    source = "0"
//	    target = "1"
//	  }
//	}
type hclPersonaFile struct {
	Personas []*hclPersona `hcl:"persona,block"`
}

type hclPersona struct {
	Type        string     `hcl:"type,label"`
	Description string     `hcl:"description,optional"`
	Nodes       []*hclNode `hcl:"node,block"`
	Edges       []*hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	ID         string            `hcl:"id,label"`
	Label      string            `hcl:"label,optional"`
	Name       string            `hcl:"name,optional"`
	Type       string            `hcl:"type,optional"`
	X          float64           `hcl:"x,optional"`
	Y          float64           `hcl:"y,optional"`
	Attributes map[string]string `hcl:"attributes,optional"`
}

type hclEdge struct {
	ID     string `hcl:"id,label"`
	Source string `hcl:"source"`
	Target string `hcl:"target"`
}

// DecodeHCL parses every persona block in src. filename is only used in
// diagnostics.
func DecodeHCL(src []byte, filename string) ([]topology.Persona, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var parsed hclPersonaFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	personas := make([]topology.Persona, 0, len(parsed.Personas))
	for _, hp := range parsed.Personas {
		p := topology.Persona{
			Type:        hp.Type,
			Description: hp.Description,
			Nodes:       make([]topology.Node, 0, len(hp.Nodes)),
			Edges:       make([]topology.Edge, 0, len(hp.Edges)),
		}
		for _, n := range hp.Nodes {
			nodeType := n.Type
			if nodeType == "" {
				nodeType = topology.DefaultNodeType
			}
			p.Nodes = append(p.Nodes, topology.Node{
				ID:       n.ID,
				Position: topology.Position{X: n.X, Y: n.Y},
				Type:     nodeType,
				Data: topology.NodeData{
					Label:      n.Label,
					Name:       n.Name,
					Attributes: n.Attributes,
				},
			})
		}
		for _, e := range hp.Edges {
			p.Edges = append(p.Edges, topology.Edge{ID: e.ID, Source: e.Source, Target: e.Target})
		}
		personas = append(personas, p)
	}

	return personas, nil
}
