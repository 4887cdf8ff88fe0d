package persona

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/psidex/topoedit/internal/topology"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphML struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr,omitempty"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphMLData `xml:"data"`
}

type graphMLEdge struct {
	ID     string        `xml:"id,attr,omitempty"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// DecodeGraphML reads a GraphML document such as the ones networkx writes.
// Node data keys label, name, type, x and y fill the matching node fields; any
// other node key becomes an attribute and any edge key becomes edge metadata.
// Edges without an id are named e<source>-<target>.
func DecodeGraphML(r io.Reader) (topology.Persona, error) {
	var doc graphML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return topology.Persona{}, err
	}

	names := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		names[k.ID] = k.Name
	}
	keyName := func(id string) string {
		if name, ok := names[id]; ok && name != "" {
			return name
		}
		return id
	}

	p := topology.Persona{
		Nodes: make([]topology.Node, 0, len(doc.Graph.Nodes)),
		Edges: make([]topology.Edge, 0, len(doc.Graph.Edges)),
	}

	for _, gn := range doc.Graph.Nodes {
		n := topology.Node{ID: gn.ID, Type: topology.DefaultNodeType}
		for _, d := range gn.Data {
			var err error
			switch name := keyName(d.Key); name {
			case "label":
				n.Data.Label = d.Value
			case "name":
				n.Data.Name = d.Value
			case "type":
				n.Type = d.Value
			case "x":
				n.Position.X, err = strconv.ParseFloat(d.Value, 64)
			case "y":
				n.Position.Y, err = strconv.ParseFloat(d.Value, 64)
			default:
				if n.Data.Attributes == nil {
					n.Data.Attributes = make(map[string]string)
				}
				n.Data.Attributes[name] = d.Value
			}
			if err != nil {
				return topology.Persona{}, fmt.Errorf("node %q: %w", gn.ID, err)
			}
		}
		p.Nodes = append(p.Nodes, n)
	}

	for _, ge := range doc.Graph.Edges {
		e := topology.Edge{ID: ge.ID, Source: ge.Source, Target: ge.Target}
		if e.ID == "" {
			e.ID = fmt.Sprintf("e%s-%s", ge.Source, ge.Target)
		}
		for _, d := range ge.Data {
			if e.Meta == nil {
				e.Meta = make(map[string]any)
			}
			e.Meta[keyName(d.Key)] = d.Value
		}
		p.Edges = append(p.Edges, e)
	}

	return p, nil
}

// EncodeGraphML writes nodes and edges as a directed GraphML document that
// DecodeGraphML reads back.
func EncodeGraphML(w io.Writer, nodes []topology.Node, edges []topology.Edge) error {
	doc := graphML{
		Xmlns: graphMLNamespace,
		Keys: []graphMLKey{
			{ID: "label", For: "node", Name: "label", Type: "string"},
			{ID: "name", For: "node", Name: "name", Type: "string"},
			{ID: "type", For: "node", Name: "type", Type: "string"},
			{ID: "x", For: "node", Name: "x", Type: "double"},
			{ID: "y", For: "node", Name: "y", Type: "double"},
		},
		Graph: graphMLGraph{EdgeDefault: "directed"},
	}

	nodeAttrs := map[string]struct{}{}
	for _, n := range nodes {
		gn := graphMLNode{ID: n.ID, Data: []graphMLData{
			{Key: "label", Value: n.Data.Label},
			{Key: "name", Value: n.Data.Name},
			{Key: "type", Value: n.Type},
			{Key: "x", Value: strconv.FormatFloat(n.Position.X, 'f', -1, 64)},
			{Key: "y", Value: strconv.FormatFloat(n.Position.Y, 'f', -1, 64)},
		}}
		for _, k := range sortedKeys(n.Data.Attributes) {
			nodeAttrs[k] = struct{}{}
			gn.Data = append(gn.Data, graphMLData{Key: k, Value: n.Data.Attributes[k]})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, gn)
	}

	edgeAttrs := map[string]struct{}{}
	for _, e := range edges {
		ge := graphMLEdge{ID: e.ID, Source: e.Source, Target: e.Target}
		for _, k := range sortedKeys(e.Meta) {
			edgeAttrs[k] = struct{}{}
			ge.Data = append(ge.Data, graphMLData{Key: "edge_" + k, Value: fmt.Sprint(e.Meta[k])})
		}
		doc.Graph.Edges = append(doc.Graph.Edges, ge)
	}

	for _, k := range sortedKeys(nodeAttrs) {
		doc.Keys = append(doc.Keys, graphMLKey{ID: k, For: "node", Name: k, Type: "string"})
	}
	for _, k := range sortedKeys(edgeAttrs) {
		doc.Keys = append(doc.Keys, graphMLKey{ID: "edge_" + k, For: "edge", Name: k, Type: "string"})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
