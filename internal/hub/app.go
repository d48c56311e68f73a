package hub

import (
	"fmt"
	"net/http"

	"github.com/nerrad567/homestar-hub/internal/routes"
)

// handlerEntry is a handler registered by an extension.
type handlerEntry struct {
	pattern string
	handler http.Handler
}

// appHandle collects what extensions register during setup_app. The
// router is built from it afterwards, middleware first, so the order in
// which an extension calls Use and Handle does not matter.
type appHandle struct {
	middlewares []func(http.Handler) http.Handler
	handlers    []handlerEntry
	patterns    map[string]bool
	pages       *routes.Compiler
	err         error
}

func newAppHandle(pages *routes.Compiler) *appHandle {
	return &appHandle{
		patterns: make(map[string]bool),
		pages:    pages,
	}
}

// Use adds middleware wrapping every route.
func (a *appHandle) Use(middlewares ...func(http.Handler) http.Handler) {
	for _, mw := range middlewares {
		if mw != nil {
			a.middlewares = append(a.middlewares, mw)
		}
	}
}

// Handle registers a raw handler. Registering a pattern twice is recorded
// and reported by New once setup_app finishes.
func (a *appHandle) Handle(pattern string, h http.Handler) {
	if a.patterns[pattern] {
		if a.err == nil {
			a.err = fmt.Errorf("%w: handler %s registered twice", routes.ErrRouteCollision, pattern)
		}
		return
	}
	a.patterns[pattern] = true
	a.handlers = append(a.handlers, handlerEntry{pattern: pattern, handler: h})
}

// HandleFunc registers a raw handler function.
func (a *appHandle) HandleFunc(pattern string, h http.HandlerFunc) {
	a.Handle(pattern, h)
}

// AddPage registers a rendered page.
func (a *appHandle) AddPage(spec routes.RouteSpec) error {
	if spec.Kind == routes.KindPage && spec.ContentType == "" {
		spec.ContentType = routes.ContentTypeHTML
	}
	if err := a.pages.Add(spec); err != nil {
		return fmt.Errorf("adding page %s: %w", spec.Path, err)
	}
	return nil
}
