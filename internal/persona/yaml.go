package persona

import (
	"gopkg.in/yaml.v3"

	"github.com/psidex/topoedit/internal/topology"
)

// DecodeYAML reads a persona such as:
//
//	type: triangle
//	description: three nodes
//	nodes:
//	  - id: "0"
//	    position: {x: 100, y: 100}
//	    data: {label: alice}
//	edges:
//	  - {id: e0-1, source: "0", target: "1"}
func DecodeYAML(b []byte) (topology.Persona, error) {
	var p topology.Persona
	if err := yaml.Unmarshal(b, &p); err != nil {
		return topology.Persona{}, err
	}
	if p.Nodes == nil {
		p.Nodes = []topology.Node{}
	}
	if p.Edges == nil {
		p.Edges = []topology.Edge{}
	}
	return p, nil
}

func EncodeYAML(p topology.Persona) ([]byte, error) {
	return yaml.Marshal(p)
}
