package routes

import (
	"github.com/nerrad567/homestar-hub/internal/render"
)

// Content types served by compiled routes.
const (
	ContentTypeHTML   = "text/html"
	ContentTypeScript = "text/plain"
)

// Kind distinguishes rendered pages from aliases.
type Kind int

const (
	// KindPage renders Template.
	KindPage Kind = iota
	// KindRedirect answers 302 to Target.
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// RouteSpec describes one servable GET path.
type RouteSpec struct {
	// Path is the URL path, e.g. "/about".
	Path string

	// Kind says whether the route renders or redirects.
	Kind Kind

	// Template is the page file rendered by a KindPage route.
	Template string

	// Mount is the name the page was compiled from ("things", "widget.js").
	Mount string

	// ContentType is sent with the rendered page.
	ContentType string

	// Target is where a KindRedirect route points.
	Target string

	// Index marks the route serving "/".
	Index bool

	// RequireLogin forces login regardless of the global policy.
	RequireLogin bool

	// Status overrides the 200 response status when nonzero.
	Status int

	// Locals are merged over the request locals before rendering.
	Locals map[string]any

	// Customize runs before rendering.
	Customize render.Customize
}

func (s RouteSpec) validate() error {
	if s.Path == "" || s.Path[0] != '/' {
		return ErrInvalidRoute
	}
	switch s.Kind {
	case KindRedirect:
		if s.Target == "" {
			return ErrInvalidRoute
		}
	case KindPage:
		if s.Template == "" {
			return ErrInvalidRoute
		}
	default:
		return ErrInvalidRoute
	}
	return nil
}
