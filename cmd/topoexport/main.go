// Command topoexport renders a persona, or a persona file, with any of the
// export formats and optionally screenshots HTML output.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/psidex/topoedit/internal/exporter"
	"github.com/psidex/topoedit/internal/graphs"
	"github.com/psidex/topoedit/internal/graphs/screenshot"
	"github.com/psidex/topoedit/internal/lib"
	"github.com/psidex/topoedit/internal/persona"
	"github.com/psidex/topoedit/internal/topology"
)

type options struct {
	personaType string
	file        string
	personaDir  string
	format      string
	out         string
	png         bool
	chromeURL   string
	settle      time.Duration
	sequential  bool
	list        bool
}

func main() {
	logger := lib.NiceLogger(os.Stderr, slog.LevelInfo)
	if err := run(context.Background(), os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("Export failed", "err", err)
		os.Exit(1)
	}
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("topoexport", flag.ContinueOnError)
	fs.StringVar(&o.personaType, "persona", "", "persona type to export")
	fs.StringVar(&o.file, "f", "", "persona file (.yaml, .hcl or .graphml) to export instead of -persona")
	fs.StringVar(&o.personaDir, "persona-dir", "", "directory of extra personas")
	fs.StringVar(&o.format, "format", "vis", "one of "+strings.Join(exporter.Names(), ", "))
	fs.StringVar(&o.out, "o", "topology", "output file name, without extension")
	fs.BoolVar(&o.png, "png", false, "also write a PNG screenshot of HTML output")
	fs.StringVar(&o.chromeURL, "chrome-url", "", "devtools websocket of a running Chrome for -png")
	fs.DurationVar(&o.settle, "settle", 2*time.Second, "wait after page load before the screenshot")
	fs.BoolVar(&o.sequential, "sequential", false, "refuse topologies whose node ids are not 0..n-1")
	fs.BoolVar(&o.list, "list", false, "list known personas and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if !o.list && (o.personaType == "") == (o.file == "") {
		return options{}, errors.New("exactly one of -persona or -f is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger) error {
	o, err := parseOptions(args)
	if err != nil {
		return err
	}

	catalog := persona.NewCatalog()
	if o.personaDir != "" {
		if _, err := catalog.LoadDir(o.personaDir, logger); err != nil {
			return err
		}
	}

	if o.list {
		for _, s := range catalog.List() {
			fmt.Fprintf(stdout, "%s\t%d nodes\t%d edges\t%s\n", s.Type, s.Nodes, s.Edges, s.Description)
		}
		return nil
	}

	p, err := load(catalog, o)
	if err != nil {
		return err
	}

	store := topology.NewStore(topology.WithLogger(logger))
	store.LoadPersona(p.Type, p)
	if err := store.Validate(topology.ValidateOptions{RequireSequentialIDs: o.sequential}); err != nil {
		return fmt.Errorf("persona %q is not valid: %w", p.Type, err)
	}
	st := store.Snapshot()

	renderer, err := exporter.ByName(o.format, p.Type)
	if err != nil {
		return err
	}
	filename, err := graphs.RenderToFile(renderer, st, o.out)
	if err != nil {
		return err
	}
	logger.Info("Wrote export", "file", filename, "nodes", len(st.Nodes), "edges", len(st.Edges))

	if !o.png {
		return nil
	}
	shotOpts := screenshot.DefaultOptions()
	shotOpts.Settle = o.settle
	shotOpts.RemoteURL = o.chromeURL
	png, err := screenshot.Render(ctx, renderer, st, shotOpts)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := os.WriteFile(o.out+".png", png, 0o644); err != nil {
		return err
	}
	logger.Info("Wrote screenshot", "file", o.out+".png")
	return nil
}

func load(catalog *persona.Catalog, o options) (topology.Persona, error) {
	if o.personaType != "" {
		return catalog.Get(o.personaType)
	}
	ps, err := persona.LoadFile(o.file)
	if err != nil {
		return topology.Persona{}, err
	}
	if len(ps) != 1 {
		return topology.Persona{}, fmt.Errorf("%s holds %d personas, export needs exactly one", o.file, len(ps))
	}
	return ps[0], nil
}
