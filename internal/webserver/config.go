package webserver

import (
	"github.com/psidex/topoedit/internal/lib"
	"github.com/psidex/topoedit/internal/topology"
)

// SessionConfig is the body of POST /api/sessions and the first frame a
// websocket client sends.
type SessionConfig struct {
	PersonaType  string  `json:"personaType,omitempty" validate:"omitempty,max=64"`
	CanvasWidth  float64 `json:"canvasWidth,omitempty" validate:"gte=0"`
	CanvasHeight float64 `json:"canvasHeight,omitempty" validate:"gte=0"`
	// IDs picks the node ID generator, "sequential" (default) or "uuid".
	IDs string `json:"ids,omitempty" validate:"omitempty,oneof=sequential uuid"`
	// Format of websocket pushes, "changes" (default) or "graphology".
	Format string `json:"format,omitempty" validate:"omitempty,oneof=changes graphology"`
	// Runtime closes the websocket after this long. Zero means never.
	Runtime lib.Duration `json:"runtime"`
}

func (c SessionConfig) storeOptions() []topology.Option {
	var opts []topology.Option
	if c.CanvasWidth > 0 && c.CanvasHeight > 0 {
		opts = append(opts, topology.WithCanvas(c.CanvasWidth, c.CanvasHeight))
	}
	if c.IDs == "uuid" {
		opts = append(opts, topology.WithIDGenerator(topology.UUIDs{}))
	}
	return opts
}
