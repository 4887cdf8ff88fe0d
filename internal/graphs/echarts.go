package graphs

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/psidex/topoedit/internal/topology"
)

// ECharts renders a go-echarts HTML page with a draggable graph chart. Nodes
// keep the positions they have in the editor and are coloured by type.
type ECharts struct {
	Title string
}

var _ Renderer = ECharts{}

func (ECharts) Extension() string   { return ".html" }
func (ECharts) ContentType() string { return "text/html; charset=utf-8" }

func (e ECharts) Render(w io.Writer, st topology.State) error {
	title := e.Title
	if title == "" {
		title = "topology"
	}

	var cats []*opts.GraphCategory
	catIndex := map[string]int{}
	index := make(map[string]int, len(st.Nodes))

	nodes := make([]opts.GraphNode, 0, len(st.Nodes))
	for i, n := range st.Nodes {
		index[n.ID] = i
		if _, ok := catIndex[n.Type]; !ok {
			catIndex[n.Type] = len(cats)
			cats = append(cats, &opts.GraphCategory{Name: n.Type})
		}
		nodes = append(nodes, opts.GraphNode{
			// Names must be unique within a series.
			Name:     nodeName(n),
			X:        float32(n.Position.X),
			Y:        float32(n.Position.Y),
			Category: catIndex[n.Type],
		})
	}

	// Links refer to nodes by index, edges to missing nodes are skipped.
	links := make([]opts.GraphLink, 0, len(st.Edges))
	for _, e := range st.Edges {
		src, ok := index[e.Source]
		if !ok {
			continue
		}
		dst, ok := index[e.Target]
		if !ok {
			continue
		}
		links = append(links, opts.GraphLink{Source: src, Target: dst})
	}

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(graphBase(title, nodes, links, cats))
	return page.Render(io.MultiWriter(w))
}

func nodeName(n topology.Node) string {
	if n.Data.Label == "" {
		return n.ID
	}
	return fmt.Sprintf("%s (%s)", n.Data.Label, n.ID)
}

func graphBase(title string, nodes []opts.GraphNode, links []opts.GraphLink, cats []*opts.GraphCategory) *charts.Graph {
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Height:    "100vh",
			Width:     "100vw",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(len(cats) > 1),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	graph.AddSeries(
		"graph",
		nodes,
		links,
		charts.WithGraphChartOpts(
			opts.GraphChart{
				Layout:     "none",
				Draggable:  opts.Bool(true),
				Roam:       opts.Bool(true),
				Categories: cats,
				EdgeSymbol: []string{"none", "arrow"},
			},
		),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Color:    "black",
			Position: "top",
		}),
	)
	return graph
}
