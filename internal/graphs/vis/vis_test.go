package vis

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xhtml "golang.org/x/net/html"

	"github.com/psidex/topoedit/internal/topology"
)

func TestReplayItems(t *testing.T) {
	st := topology.State{
		Nodes: []topology.Node{
			{ID: "10", Type: "router", Position: topology.Position{X: 3, Y: 4}, Data: topology.NodeData{Label: "a", Name: "tank-a"}},
			{ID: "20", Data: topology.NodeData{Label: "b"}},
		},
		Edges: []topology.Edge{
			{ID: "x", Source: "10", Target: "20"},
			// Same endpoints, drawn once.
			{ID: "y", Source: "10", Target: "20"},
			{ID: "z", Source: "20", Target: "missing"},
		},
	}

	items, err := replayItems(st)
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte("["+strings.TrimSuffix(items, ",")+"]"), &got))
	require.Len(t, got, 3)

	assert.Equal(t, "node", got[0]["type"])
	assert.Equal(t, map[string]any{
		"id": 1.0, "label": "a", "title": "tank-a", "group": "router", "x": 3.0, "y": 4.0,
	}, got[0]["data"])
	assert.Equal(t, "node", got[1]["type"])
	assert.Equal(t, "edge", got[2]["type"])
	assert.Equal(t, map[string]any{"from": 1.0, "to": 2.0}, got[2]["data"])
}

func TestRender(t *testing.T) {
	st := topology.State{Nodes: []topology.Node{{ID: "0", Data: topology.NodeData{Label: "</script><b>x</b>"}}}}

	var buf bytes.Buffer
	require.NoError(t, Vis{Delay: 10 * time.Millisecond}.Render(&buf, st))
	out := buf.String()

	assert.Contains(t, out, "setTimeout(addItem, 10);")
	assert.NotContains(t, out, "</script><b>")

	doc, err := xhtml.Parse(strings.NewReader(out))
	require.NoError(t, err)

	var scripts int
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.Data == "script" {
			scripts++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	assert.Equal(t, 2, scripts)
}

func TestRender_DefaultDelay(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Vis{}.Render(&buf, topology.State{}))
	assert.Contains(t, buf.String(), "setTimeout(addItem, 50);")
}
