package persona

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/topoedit/internal/topology"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestCatalog_Builtins(t *testing.T) {
	c := NewCatalog()

	assert.Equal(t, []string{"empty", "line", "mesh", "ring", "star"}, c.Types())

	for _, typ := range c.Types() {
		p, err := c.Get(typ)
		require.NoError(t, err)
		assert.Equal(t, typ, p.Type)
		assert.NoError(t,
			topology.Validate(topology.State{Nodes: p.Nodes, Edges: p.Edges},
				topology.ValidateOptions{RequireSequentialIDs: true}),
			"builtin %s", typ)
	}

	star, err := c.Get("star")
	require.NoError(t, err)
	assert.Len(t, star.Nodes, 6)
	assert.Len(t, star.Edges, 5)
	for _, e := range star.Edges {
		assert.Equal(t, "0", e.Source)
	}

	mesh, err := c.Get("mesh")
	require.NoError(t, err)
	assert.Len(t, mesh.Edges, 6)
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	c := NewCatalog()
	p, err := c.Get("ring")
	require.NoError(t, err)
	p.Nodes[0].Data.Label = "mutated"

	again, err := c.Get("ring")
	require.NoError(t, err)
	assert.Equal(t, "node 0", again.Nodes[0].Data.Label)
}

func TestCatalog_Unknown(t *testing.T) {
	_, err := NewCatalog().Get("hypercube")
	assert.ErrorIs(t, err, ErrUnknownPersona)
}

func TestCatalog_Add(t *testing.T) {
	c := NewCatalog()
	assert.Error(t, c.Add(topology.Persona{}))
	require.NoError(t, c.Add(topology.Persona{Type: "pair", Nodes: []topology.Node{{ID: "0"}, {ID: "1"}}}))

	var found bool
	for _, s := range c.List() {
		if s.Type == "pair" {
			found = true
			assert.Equal(t, 2, s.Nodes)
		}
	}
	assert.True(t, found)
}

const triangleYAML = `
description: three nodes
nodes:
  - id: "0"
    position: {x: 100, y: 100}
    data: {label: alice, attributes: {version: "26.0"}}
  - id: "1"
    data: {label: bob}
  - id: "2"
    data: {label: carol}
edges:
  - {id: e0-1, source: "0", target: "1"}
  - {id: e1-2, source: "1", target: "2", meta: {animated: true}}
`

const pairHCL = `
persona "pair" {
  description = "two peers"
  node "0" {
    label = "left"
    x     = 10
    y     = 20
    attributes = { version = "25.1" }
  }
  node "1" {
    label = "right"
    type  = "miner"
  }
  edge "e0-1" {
    source = "0"
    target = "1"
  }
}

persona "solo" {
  node "0" {}
}
`

const lineGraphML = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="node" attr.name="version" attr.type="string"/>
  <key id="d1" for="node" attr.name="label" attr.type="string"/>
  <key id="d2" for="edge" attr.name="latency" attr.type="string"/>
  <graph edgedefault="directed">
    <node id="0"><data key="d0">26.0</data><data key="d1">first</data></node>
    <node id="1"><data key="d0">25.0</data></node>
    <edge source="0" target="1"><data key="d2">100ms</data></edge>
  </graph>
</graphml>
`

func TestDecodeYAML(t *testing.T) {
	p, err := DecodeYAML([]byte(triangleYAML))
	require.NoError(t, err)

	require.Len(t, p.Nodes, 3)
	assert.Equal(t, topology.Position{X: 100, Y: 100}, p.Nodes[0].Position)
	assert.Equal(t, "26.0", p.Nodes[0].Data.Attributes["version"])
	require.Len(t, p.Edges, 2)
	assert.Equal(t, true, p.Edges[1].Meta["animated"])
}

func TestDecodeHCL(t *testing.T) {
	personas, err := DecodeHCL([]byte(pairHCL), "pair.hcl")
	require.NoError(t, err)
	require.Len(t, personas, 2)

	pair := personas[0]
	assert.Equal(t, "pair", pair.Type)
	assert.Equal(t, "two peers", pair.Description)
	require.Len(t, pair.Nodes, 2)
	assert.Equal(t, topology.Position{X: 10, Y: 20}, pair.Nodes[0].Position)
	assert.Equal(t, "25.1", pair.Nodes[0].Data.Attributes["version"])
	assert.Equal(t, topology.DefaultNodeType, pair.Nodes[0].Type)
	assert.Equal(t, "miner", pair.Nodes[1].Type)
	assert.Equal(t, []topology.Edge{{ID: "e0-1", Source: "0", Target: "1"}}, pair.Edges)

	assert.Equal(t, "solo", personas[1].Type)
	assert.Empty(t, personas[1].Edges)
}

func TestDecodeHCL_Invalid(t *testing.T) {
	_, err := DecodeHCL([]byte(`persona "x" { edge "e" { source = "0" } }`), "bad.hcl")
	assert.Error(t, err)
}

func TestDecodeGraphML(t *testing.T) {
	p, err := DecodeGraphML(strings.NewReader(lineGraphML))
	require.NoError(t, err)

	require.Len(t, p.Nodes, 2)
	assert.Equal(t, "first", p.Nodes[0].Data.Label)
	assert.Equal(t, "26.0", p.Nodes[0].Data.Attributes["version"])
	require.Len(t, p.Edges, 1)
	assert.Equal(t, "e0-1", p.Edges[0].ID)
	assert.Equal(t, "100ms", p.Edges[0].Meta["latency"])
}

func TestGraphML_RoundTrip(t *testing.T) {
	star, err := NewCatalog().Get("star")
	require.NoError(t, err)
	star.Nodes[1].Data.Attributes = map[string]string{"version": "26.0"}

	var buf bytes.Buffer
	require.NoError(t, EncodeGraphML(&buf, star.Nodes, star.Edges))
	assert.Contains(t, buf.String(), `edgedefault="directed"`)

	back, err := DecodeGraphML(&buf)
	require.NoError(t, err)
	assert.Equal(t, star.Nodes, back.Nodes)
	assert.Equal(t, star.Edges, back.Edges)
}

func TestCatalog_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "triangle.yaml"), []byte(triangleYAML), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "pairs.hcl"), []byte(pairHCL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "regtest.graphml"), []byte(lineGraphML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	c := NewCatalog()
	n, err := c.LoadDir(dir, discard)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for _, typ := range []string{"triangle", "pair", "solo", "regtest"} {
		_, err := c.Get(typ)
		assert.NoError(t, err, typ)
	}
}

func TestCatalog_LoadDirBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("nodes: [unclosed"), 0o644))

	_, err := NewCatalog().LoadDir(dir, discard)
	assert.ErrorContains(t, err, "broken.yaml")
}
