// Package persona holds the preset topologies a session can start from.
package persona

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/psidex/topoedit/internal/topology"
)

var ErrUnknownPersona = errors.New("persona: unknown type")

// Summary describes a persona without its contents.
type Summary struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`
}

// Catalog is a thread-safe set of personas keyed by type.
type Catalog struct {
	mu       *sync.RWMutex
	personas map[string]topology.Persona
}

// NewCatalog returns a catalog holding the built-in presets.
func NewCatalog() *Catalog {
	c := &Catalog{
		mu:       &sync.RWMutex{},
		personas: make(map[string]topology.Persona),
	}
	for _, p := range builtins() {
		c.personas[p.Type] = p
	}
	return c
}

// Add stores p, replacing any persona of the same type.
func (c *Catalog) Add(p topology.Persona) error {
	if p.Type == "" {
		return errors.New("persona: type is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.personas[p.Type] = p.Clone()
	return nil
}

// Get returns a copy of the persona with the given type.
func (c *Catalog) Get(personaType string) (topology.Persona, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.personas[personaType]
	if !ok {
		return topology.Persona{}, fmt.Errorf("%w: %q", ErrUnknownPersona, personaType)
	}
	return p.Clone(), nil
}

func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.personas))
	for t := range c.personas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// List summarises every persona, sorted by type.
func (c *Catalog) List() []Summary {
	types := c.Types()

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Summary, 0, len(types))
	for _, t := range types {
		p, ok := c.personas[t]
		if !ok {
			continue
		}
		out = append(out, Summary{
			Type:        p.Type,
			Description: p.Description,
			Nodes:       len(p.Nodes),
			Edges:       len(p.Edges),
		})
	}
	return out
}

// LoadDir walks dir and adds every persona file it finds. It returns how many
// personas were added.
func (c *Catalog) LoadDir(dir string, logger *slog.Logger) (int, error) {
	logger.Debug("Loading personas", "dir", dir)

	added := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isPersonaFile(path) {
			return nil
		}

		personas, err := LoadFile(path)
		if err != nil {
			return err
		}
		for _, p := range personas {
			if err := c.Add(p); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Debug("Loaded persona", "type", p.Type, "file", path, "nodes", len(p.Nodes))
			added++
		}
		return nil
	})
	if err != nil {
		return added, fmt.Errorf("failed to load personas from %s: %w", dir, err)
	}

	logger.Info("Personas loaded", "dir", dir, "count", added)
	return added, nil
}

func isPersonaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".hcl", ".graphml":
		return true
	}
	return false
}

// LoadFile decodes one persona file, choosing the format by extension. YAML
// and GraphML files hold a single persona whose type defaults to the file
// name; HCL files may declare several.
func LoadFile(path string) ([]topology.Persona, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p, err := DecodeYAML(b)
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML persona %s: %w", path, err)
		}
		if p.Type == "" {
			p.Type = stem
		}
		return []topology.Persona{p}, nil
	case ".graphml":
		p, err := DecodeGraphML(bytes.NewReader(b))
		if err != nil {
			return nil, fmt.Errorf("failed to decode GraphML persona %s: %w", path, err)
		}
		p.Type = stem
		return []topology.Persona{p}, nil
	case ".hcl":
		return DecodeHCL(b, path)
	}
	return nil, fmt.Errorf("unsupported persona file: %s", path)
}
