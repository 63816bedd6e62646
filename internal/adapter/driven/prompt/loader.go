// Package prompt loads and renders the Markdown prompt templates that
// drive each LLM task. The templates themselves are an external
// collaborator — this package only knows how to find one on
// disk, fall back to a minimal built-in default when absent, and render it
// with text/template.
package prompt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// splitMarker is the literal separator used to divide a
// template's cacheable system instructions from its per-call user content.
const splitMarker = "<!-- SPLIT -->"

// Loader reads named Markdown templates from dir, e.g. dir/enrich.md.
type Loader struct {
	dir       string
	fallbacks map[string]string
}

// NewLoader builds a Loader rooted at dir, with defaultTemplates serving a
// built-in template body when dir/name.md does not exist.
func NewLoader(dir string, defaultTemplates map[string]string) *Loader {
	return &Loader{dir: dir, fallbacks: defaultTemplates}
}

// Render loads name(.md), executes it as a text/template against data, and
// returns the rendered body.
func (l *Loader) Render(name string, data any) (string, error) {
	raw, err := l.read(name)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}
	return buf.String(), nil
}

// RenderSplit loads name(.md), renders it against data, then splits the
// result on the literal "<!-- SPLIT -->" marker into a cacheable system
// section and a per-call user section.
func (l *Loader) RenderSplit(name string, data any) (system, user string, err error) {
	rendered, err := l.Render(name, data)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(rendered, splitMarker, 2)
	if len(parts) != 2 {
		return strings.TrimSpace(rendered), "", nil
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func (l *Loader) read(name string) (string, error) {
	path := filepath.Join(l.dir, name+".md")
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read template %s: %w", path, err)
	}
	if fallback, ok := l.fallbacks[name]; ok {
		return fallback, nil
	}
	return "", fmt.Errorf("no template %q found under %s and no built-in default registered", name, l.dir)
}
