// Package exporter looks renderers up by the names used in URLs and flags.
package exporter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/psidex/topoedit/internal/graphs"
	"github.com/psidex/topoedit/internal/graphs/graphology"
	"github.com/psidex/topoedit/internal/graphs/vis"
)

var ErrUnknownFormat = errors.New("exporter: unknown format")

var renderers = map[string]func(title string) graphs.Renderer{
	"graphology": func(string) graphs.Renderer { return graphology.Graphology{} },
	"echarts":    func(title string) graphs.Renderer { return graphs.ECharts{Title: title} },
	"vis":        func(string) graphs.Renderer { return vis.Vis{} },
	"json":       func(string) graphs.Renderer { return graphs.Adjacency{} },
	"graphml":    func(string) graphs.Renderer { return graphs.GraphML{} },
	"yaml":       func(title string) graphs.Renderer { return graphs.YAML{Type: title} },
}

// ByName returns the renderer called name. title is used by renderers that
// produce a page title.
func ByName(name, title string) (graphs.Renderer, error) {
	mk, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, name)
	}
	return mk(title), nil
}

// Names returns all known format names, sorted.
func Names() []string {
	names := make([]string, 0, len(renderers))
	for n := range renderers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
