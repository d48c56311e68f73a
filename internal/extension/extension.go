package extension

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homestar-hub/internal/routes"
)

// Hook names a lifecycle callback.
type Hook string

// Recognised hooks.
const (
	HookSetup    Hook = "setup"
	HookSetupApp Hook = "setup_app"
	HookOnReady  Hook = "on_ready"
)

// Extension is a pluggable unit. It does nothing unless it also implements
// at least one of the capability interfaces below.
type Extension interface {
	Name() string
}

// Setupper populates the composition context.
type Setupper interface {
	Setup(b *Builder) error
}

// AppSetupper registers middleware, handlers and pages.
type AppSetupper interface {
	SetupApp(ctx *Context, app App) error
}

// ReadyNotifier is told when the hub is accepting connections.
type ReadyNotifier interface {
	OnReady(ctx *Context) error
}

// Bridge contributes a configuration sub-app. Configure returns false to
// opt out, in which case nothing is mounted.
type Bridge interface {
	Extension
	Configure(ctx *Context, r chi.Router) bool
}

// App is the web application handle given to setup_app.
//
// Middleware added with Use wraps every route regardless of the order in
// which extensions call Use and Handle.
type App interface {
	Use(middlewares ...func(http.Handler) http.Handler)
	Handle(pattern string, h http.Handler)
	HandleFunc(pattern string, h http.HandlerFunc)

	// AddPage registers a page rendered through the login gate, customize
	// step and renderer. It fails with routes.ErrRouteCollision if the
	// path is taken.
	AddPage(spec routes.RouteSpec) error
}

// capable reports whether ext exposes any recognised capability.
func capable(ext Extension) bool {
	switch ext.(type) {
	case Setupper, AppSetupper, ReadyNotifier, Bridge:
		return true
	default:
		return false
	}
}
