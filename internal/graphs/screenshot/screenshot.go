// Package screenshot turns an HTML render into a PNG with headless Chrome.
package screenshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/corpix/uarand"

	"github.com/psidex/topoedit/internal/graphs"
	"github.com/psidex/topoedit/internal/topology"
)

var ErrNotHTML = errors.New("screenshot: renderer does not produce HTML")

type Options struct {
	Width, Height int64
	// Settle is how long to wait after load for scripts to draw the graph.
	Settle time.Duration
	// Timeout bounds the whole capture, including starting Chrome.
	Timeout time.Duration
	// RemoteURL is the devtools websocket of an already running Chrome. When
	// empty a local browser is started.
	RemoteURL string
	// UserAgent is sent when the page pulls its chart libraries from a CDN.
	// Some CDNs refuse the stock headless agent.
	UserAgent string
}

func DefaultOptions() Options {
	return Options{
		Width:     topology.DefaultCanvasWidth,
		Height:    topology.DefaultCanvasHeight,
		Settle:    2 * time.Second,
		Timeout:   30 * time.Second,
		UserAgent: uarand.GetRandom(),
	}
}

// Capture loads page into a fresh tab and returns a full page PNG.
func Capture(ctx context.Context, page []byte, opts Options) ([]byte, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if opts.RemoteURL != "" {
		var cancel context.CancelFunc
		ctx, cancel = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
		defer cancel()
	}

	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var png []byte
	actions := chromedp.Tasks{network.Enable()}
	if opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(opts.UserAgent))
	}
	actions = append(actions,
		chromedp.EmulateViewport(opts.Width, opts.Height),
		chromedp.Navigate(DataURL(page)),
		chromedp.WaitReady("body"),
		chromedp.Sleep(opts.Settle),
		chromedp.FullScreenshot(&png, 100),
	)
	if err := chromedp.Run(ctx, actions); err != nil {
		return nil, err
	}
	return png, nil
}

// Render renders st with r and captures it. r must produce HTML.
func Render(ctx context.Context, r graphs.Renderer, st topology.State, opts Options) ([]byte, error) {
	if r.Extension() != ".html" {
		return nil, ErrNotHTML
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, st); err != nil {
		return nil, err
	}
	return Capture(ctx, buf.Bytes(), opts)
}

// DataURL embeds page so Chrome can load it without a server.
func DataURL(page []byte) string {
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString(page)
}
