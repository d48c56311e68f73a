package interactor

import (
	"embed"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"path"
	"strings"
)

//go:embed widgets/*
var widgets embed.FS

// ErrDuplicate is returned when an interactor name is registered twice.
var ErrDuplicate = errors.New("interactor: already registered")

// Matcher inspects a recipe and returns the overlay merged into it when
// the interactor applies.
type Matcher func(attr map[string]any) (overlay map[string]any, ok bool)

// Interactor is one widget.
type Interactor struct {
	Name   string
	HTML   string
	Script string
	Match  Matcher
}

// Info is the per-interactor row exposed to page templates.
type Info struct {
	Name      string
	ScriptURL string
}

// Registry holds interactors in match order.
type Registry struct {
	order  []Interactor
	byName map[string]int
}

// New returns a registry with the built-in interactors.
func New() *Registry {
	r := &Registry{byName: make(map[string]int)}
	builtins := []struct {
		name  string
		match Matcher
	}{
		{"color", matchColor},
		{"switch", matchSwitch},
		{"slider", matchSlider},
	}
	for _, b := range builtins {
		r.mustRegister(b.name, b.match)
	}
	return r
}

// Register adds an interactor ahead of the text fallback.
func (r *Registry) Register(i Interactor) error {
	if _, ok := r.byName[i.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, i.Name)
	}
	r.byName[i.Name] = len(r.order)
	r.order = append(r.order, i)
	return nil
}

func (r *Registry) mustRegister(name string, match Matcher) {
	i := Interactor{
		Name:   name,
		HTML:   readWidget(name + ".html"),
		Script: readWidget(name + ".js"),
		Match:  match,
	}
	if err := r.Register(i); err != nil {
		panic(err)
	}
}

// fallback is used when no registered interactor matches.
var fallback = Interactor{
	Name:   "text",
	HTML:   readWidget("text.html"),
	Script: readWidget("text.js"),
}

// HTMLD maps interactor name to HTML fragment, including the fallback.
func (r *Registry) HTMLD() map[string]string {
	out := make(map[string]string, len(r.order)+1)
	for _, i := range r.all() {
		out[i.Name] = i.HTML
	}
	return out
}

// Table maps interactor name to its template row, including the fallback.
func (r *Registry) Table() map[string]Info {
	out := make(map[string]Info, len(r.order)+1)
	for _, i := range r.all() {
		info := Info{Name: i.Name}
		if i.Script != "" {
			info.ScriptURL = "/interactors/" + i.Name + ".js"
		}
		out[i.Name] = info
	}
	return out
}

// Assign sets attr["_interactor"] to the first matching interactor and
// merges its overlay into attr.
func (r *Registry) Assign(attr map[string]any) {
	for _, i := range r.order {
		if i.Match == nil {
			continue
		}
		if overlay, ok := i.Match(attr); ok {
			maps.Copy(attr, overlay)
			attr["_interactor"] = i.Name
			return
		}
	}
	attr["_interactor"] = fallback.Name
}

// ScriptHandler serves /<name>.js for every interactor with a script.
// Mount it with the prefix stripped.
func (r *Registry) ScriptHandler() http.Handler {
	scripts := make(map[string]string)
	for _, i := range r.all() {
		if i.Script != "" {
			scripts[i.Name] = i.Script
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		name, ok := strings.CutSuffix(path.Base(req.URL.Path), ".js")
		script, found := scripts[name]
		if !ok || !found {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")
		_, _ = w.Write([]byte(script)) //nolint:errcheck // client may have gone away
	})
}

func (r *Registry) all() []Interactor {
	out := make([]Interactor, 0, len(r.order)+1)
	out = append(out, r.order...)
	return append(out, fallback)
}

func readWidget(name string) string {
	data, err := widgets.ReadFile("widgets/" + name)
	if err != nil {
		return ""
	}
	return string(data)
}

func matchColor(attr map[string]any) (map[string]any, bool) {
	return map[string]any{}, attr["iot:format"] == "iot:format.color"
}

func matchSwitch(attr map[string]any) (map[string]any, bool) {
	return map[string]any{}, attr["iot:type"] == "iot:type.boolean"
}

func matchSlider(attr map[string]any) (map[string]any, bool) {
	switch attr["iot:type"] {
	case "iot:type.integer", "iot:type.number":
	default:
		return nil, false
	}
	lo, hasLo := attr["iot:minimum"]
	hi, hasHi := attr["iot:maximum"]
	if !hasLo || !hasHi {
		return nil, false
	}
	return map[string]any{"_min": lo, "_max": hi}, true
}
