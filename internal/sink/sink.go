// Package sink delivers finished export artifacts to disk or memory.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/JonMunkholm/tabexport/internal/core"
)

// Dir writes each artifact to a file in a directory.
type Dir struct {
	Root string
}

// NewDir creates the directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", root, err)
	}
	return &Dir{Root: root}, nil
}

// Deliver writes the artifact under its base filename.
func (d *Dir) Deliver(ctx context.Context, a core.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := d.path(a.Filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, a.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Present writes the print document next to the other artifacts as
// <title>.html.
func (d *Dir) Present(ctx context.Context, title, document string) error {
	name := strings.TrimSuffix(title, filepath.Ext(title)) + ".html"
	return d.Deliver(ctx, core.Artifact{
		Content:   []byte(document),
		Filename:  name,
		MediaType: core.MediaHTML,
	})
}

// path keeps writes inside Root regardless of the requested name.
func (d *Dir) path(filename string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." || base == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return filepath.Join(d.Root, base), nil
}

// Memory keeps delivered artifacts in order. Safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	artifacts []core.Artifact
	documents map[string]string
}

// Deliver stores a copy of the artifact.
func (m *Memory) Deliver(_ context.Context, a core.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.Content = append([]byte(nil), a.Content...)
	m.artifacts = append(m.artifacts, a)
	return nil
}

// Present stores the document under its title.
func (m *Memory) Present(_ context.Context, title, document string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.documents == nil {
		m.documents = make(map[string]string)
	}
	m.documents[title] = document
	return nil
}

// Artifacts returns the delivered artifacts in delivery order.
func (m *Memory) Artifacts() []core.Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Artifact(nil), m.artifacts...)
}

// Find returns the last artifact delivered under filename.
func (m *Memory) Find(filename string) (core.Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.artifacts) - 1; i >= 0; i-- {
		if m.artifacts[i].Filename == filename {
			return m.artifacts[i], true
		}
	}
	return core.Artifact{}, false
}

// Document returns a presented document by title.
func (m *Memory) Document(title string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.documents[title]
	return doc, ok
}

// Reset drops everything stored so far.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.artifacts = nil
	m.documents = nil
}
