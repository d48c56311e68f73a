package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"mime"
	texttemplate "text/template"
)

// Inner is the phase-two renderer.
type Inner struct {
	funcs map[string]any
}

// NewInner creates a phase-two renderer with the built-in helpers:
//   - json: encodes a value as indented JSON
func NewInner() *Inner {
	return &Inner{
		funcs: map[string]any{
			"json": toJSON,
		},
	}
}

// Render parses src and executes it with locals, writing the result to w
// only when execution succeeds.
//
// text/html content is rendered with html/template so request data is
// escaped for its context; every other content type uses text/template.
//
// Parameters:
//   - w: Destination
//   - name: Template name used in error messages
//   - src: Phase-one output
//   - contentType: Response content type, which selects the escaping mode
//   - locals: Request data
//
// Returns:
//   - error: If parsing or execution fails; nothing is written in that case
func (in *Inner) Render(w io.Writer, name string, src Source, contentType string, locals *Locals) error {
	if locals == nil {
		locals = NewLocals()
	}
	funcs := make(map[string]any, len(in.funcs))
	for k, fn := range in.funcs {
		funcs[k] = fn
	}
	for k, fn := range locals.FuncMap() {
		funcs[k] = fn
	}
	data := locals.Data()

	var buf bytes.Buffer
	if isHTML(contentType) {
		tmpl, err := htmltemplate.New(name).Funcs(funcs).Parse(string(src))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("rendering template %s: %w", name, err)
		}
	} else {
		tmpl, err := texttemplate.New(name).Funcs(funcs).Parse(string(src))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("rendering template %s: %w", name, err)
		}
	}

	_, err := buf.WriteTo(w)
	return err
}

func isHTML(contentType string) bool {
	media, _, err := mime.ParseMediaType(contentType)
	return err == nil && media == "text/html"
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
