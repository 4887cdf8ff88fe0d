package screenshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/topoedit/internal/graphs"
	"github.com/psidex/topoedit/internal/topology"
)

func TestDataURL(t *testing.T) {
	page := []byte("<html><body>hi</body></html>")
	u := DataURL(page)

	require.True(t, strings.HasPrefix(u, "data:text/html;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(u, "data:text/html;base64,"))
	require.NoError(t, err)
	assert.Equal(t, page, decoded)
}

func TestRender_RejectsNonHTML(t *testing.T) {
	_, err := Render(context.Background(), graphs.Adjacency{}, topology.State{}, DefaultOptions())
	assert.ErrorIs(t, err, ErrNotHTML)
}

func TestCapture(t *testing.T) {
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chrome binary on PATH")
	}

	opts := DefaultOptions()
	opts.Width, opts.Height = 200, 100
	opts.Settle = 10 * time.Millisecond

	png, err := Capture(context.Background(), []byte("<html><body>topology</body></html>"), opts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, int64(topology.DefaultCanvasWidth), opts.Width)
	assert.NotEmpty(t, opts.UserAgent)
	assert.Empty(t, opts.RemoteURL)
}
