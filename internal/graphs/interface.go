// Package graphs renders a snapshot of a Graph Session Store into the formats
// browsers and other tools consume.
package graphs

import (
	"fmt"
	"io"
	"os"

	"github.com/psidex/topoedit/internal/topology"
)

// Renderer turns a store snapshot into a document.
type Renderer interface {
	// Render must not keep st after it returns.
	Render(w io.Writer, st topology.State) error
	// Extension is the file extension of the output, including the dot.
	Extension() string
	ContentType() string
}

// RenderToFile renders st with r into filename plus r's extension.
// filename should be the desired file name without an extension.
func RenderToFile(r Renderer, st topology.State, filename string) (string, error) {
	filename = filename + r.Extension()

	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := r.Render(file, st); err != nil {
		return "", fmt.Errorf("render %s: %w", filename, err)
	}
	return filename, file.Close()
}
