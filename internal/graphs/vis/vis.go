// Package vis renders a snapshot to a HTML page that "replays" building the
// topology with vis.js, one node or edge at a time.
package vis

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/psidex/topoedit/internal/graphs"
	"github.com/psidex/topoedit/internal/lib"
	"github.com/psidex/topoedit/internal/topology"
)

const DefaultDelay = 50 * time.Millisecond

// Vis defines a Renderer for the replay page. Every node appears before the
// edges, in store order. vis.js wants integer ids so node IDs are mapped with
// a StrHasher.
type Vis struct {
	// Delay between two items of the replay, DefaultDelay when zero.
	Delay time.Duration
}

var _ graphs.Renderer = Vis{}

func (Vis) Extension() string   { return ".html" }
func (Vis) ContentType() string { return "text/html; charset=utf-8" }

func (v Vis) Render(w io.Writer, st topology.State) error {
	delay := v.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	items, err := replayItems(st)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, html, items, delay.Milliseconds())
	return err
}

// replayItems returns the body of the JavaScript array the page iterates.
// json.Marshal escapes <, > and & so labels can't close the script tag.
func replayItems(st topology.State) (string, error) {
	hasher := lib.NewStrHasher()
	seenNodes := lib.NewSet()
	seenEdges := lib.NewSet()

	var b strings.Builder
	for _, n := range st.Nodes {
		if seenNodes.Contains(n.ID) {
			continue
		}
		seenNodes.Add(n.ID)

		vn := newNode()
		vn.Data = nodeData{
			ID:    hasher.Hash(n.ID),
			Label: n.Data.Label,
			Title: n.Data.Name,
			Group: n.Type,
			X:     n.Position.X,
			Y:     n.Position.Y,
		}
		if err := writeItem(&b, vn); err != nil {
			return "", err
		}
	}

	for _, e := range st.Edges {
		// Dangling edges would make vis.js invent a node.
		if !seenNodes.Contains(e.Source) || !seenNodes.Contains(e.Target) {
			continue
		}
		from, to := hasher.Hash(e.Source), hasher.Hash(e.Target)
		// Tab can't appear in the ints.
		key := strconv.Itoa(from) + "\t" + strconv.Itoa(to)
		if seenEdges.Contains(key) {
			continue
		}
		seenEdges.Add(key)

		ve := newEdge()
		ve.Data = edgeData{From: from, To: to}
		if err := writeItem(&b, ve); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func writeItem(b *strings.Builder, item any) error {
	j, err := json.Marshal(item)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "\n%s,", j)
	return nil
}
