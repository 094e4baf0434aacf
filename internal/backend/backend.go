// Package backend writes compiled target text.
package backend

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/funvibe/yjs/internal/config"
)

// CodeWriter stores the target text of a unit.
type CodeWriter interface {
	// Write stores text for the named unit and returns where it went.
	Write(name, text string) (string, error)
}

// FileName returns the target file name of a unit.
func FileName(name string) string {
	return strings.ReplaceAll(name, ".", string(filepath.Separator)) + config.ScriptExt
}

// ToFile writes each unit to <Dir>/<name>.js.
type ToFile struct {
	Dir string
}

func (w ToFile) Write(name, text string) (string, error) {
	path := filepath.Join(w.Dir, FileName(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// Stream copies every unit to W.
type Stream struct {
	mu sync.Mutex
	W  io.Writer
}

func (w *Stream) Write(name, text string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.W, text); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return "", nil
}

// Memory keeps units in process.
type Memory struct {
	mu    sync.Mutex
	files map[string]string
}

func NewMemory() *Memory {
	return &Memory{files: map[string]string{}}
}

func (m *Memory) Write(name, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = text
	return name, nil
}

// Get returns the text stored for name.
func (m *Memory) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.files[name]
	return text, ok
}

// Names lists the stored units in order.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
