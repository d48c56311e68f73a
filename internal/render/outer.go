package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Outer delimiters. Page authors use these for widget expansion so they do
// not collide with the {{ }} data bindings resolved in phase two.
const (
	OuterLeftDelim  = "[["
	OuterRightDelim = "]]"
)

// Source is phase-one output: template text awaiting request data. It is
// never written to a response directly.
type Source string

// Outer is the phase-one renderer.
type Outer struct {
	htmld       map[string]string
	interactors any
}

// NewOuter creates a phase-one renderer bound to the widget tables.
//
// Parameters:
//   - htmld: Widget name to HTML fragment
//   - interactors: Interactor table exposed to pages as .interactors
func NewOuter(htmld map[string]string, interactors any) *Outer {
	return &Outer{htmld: htmld, interactors: interactors}
}

// Expand reads the page at path and runs phase one on it.
func (o *Outer) Expand(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template: %w", err)
	}
	return o.ExpandText(filepath.Base(path), string(data))
}

// ExpandText runs phase one on in-memory page text.
func (o *Outer) ExpandText(name, text string) (Source, error) {
	tmpl, err := template.New(name).
		Delims(OuterLeftDelim, OuterRightDelim).
		Option("missingkey=error").
		Funcs(template.FuncMap{"widget": o.widget}).
		Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing outer template %s: %w", name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, map[string]any{
		"htmld":       o.htmld,
		"interactors": o.interactors,
	}); err != nil {
		return "", fmt.Errorf("expanding outer template %s: %w", name, err)
	}
	return Source(b.String()), nil
}

func (o *Outer) widget(name string) (string, error) {
	html, ok := o.htmld[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownWidget, name)
	}
	return html, nil
}
