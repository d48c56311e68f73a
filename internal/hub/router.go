package hub

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"

	"github.com/nerrad567/homestar-hub/internal/routes"
	"github.com/nerrad567/homestar-hub/internal/static"
)

// routeTable tracks registered patterns so that no two registrations
// share a path.
type routeTable struct {
	r     chi.Router
	taken map[string]string
}

func (t *routeTable) claim(pattern, owner string) error {
	if prev, ok := t.taken[pattern]; ok {
		return fmt.Errorf("%w: %s registered by %s and %s", routes.ErrRouteCollision, pattern, prev, owner)
	}
	t.taken[pattern] = owner
	return nil
}

func (t *routeTable) handle(pattern, owner string, h http.Handler) error {
	if err := t.claim(pattern, owner); err != nil {
		return err
	}
	t.r.Handle(pattern, h)
	return nil
}

func (t *routeTable) get(pattern, owner string, h http.HandlerFunc) error {
	if err := t.claim(pattern, owner); err != nil {
		return err
	}
	t.r.Get(pattern, h)
	return nil
}

// mount claims every pattern chi registers for a sub-router at path, so a
// handler already holding any of them is a collision rather than a panic.
func (t *routeTable) mount(path, owner string, h http.Handler) error {
	for _, pattern := range []string{path, path + "/", path + "/*"} {
		if err := t.claim(pattern, owner); err != nil {
			return err
		}
	}
	t.r.Mount(path, h)
	return nil
}

// buildRouter creates the HTTP router with all routes and middleware.
//
// Extension middleware is applied before any route exists. Built-in
// routes are claimed first, then extension handlers, configure sub-apps
// and finally compiled pages; any shared path fails the build.
func (s *Server) buildRouter() (http.Handler, error) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	if s.sessions != nil {
		r.Use(s.sessions.Middleware)
	}

	compiler := routes.NewCompiler(s.web.Index)
	compiler.SetLogger(s.logger)

	app := newAppHandle(compiler)
	if err := s.registry.SetupApp(s.context, app); err != nil {
		return nil, err
	}
	if app.err != nil {
		return nil, app.err
	}
	for _, mw := range app.middlewares {
		r.Use(mw)
	}

	table := &routeTable{r: r, taken: make(map[string]string)}
	if err := s.mountBuiltins(table); err != nil {
		return nil, err
	}
	for _, h := range app.handlers {
		if err := table.handle(h.pattern, "extension", h.handler); err != nil {
			return nil, err
		}
	}
	if err := s.mountConfigures(table); err != nil {
		return nil, err
	}
	if err := s.compileFolders(compiler); err != nil {
		return nil, err
	}

	s.routes = compiler.Routes()
	for _, spec := range s.routes {
		var h http.HandlerFunc
		switch spec.Kind {
		case routes.KindRedirect:
			h = redirectHandler(spec.Target)
		default:
			h = s.pageHandler(spec)
		}
		if err := table.get(spec.Path, "page "+spec.Mount, h); err != nil {
			return nil, err
		}
		s.logger.Debug("route registered", "path", spec.Path, "kind", spec.Kind.String(), "template", spec.Template)
	}

	return gzhttp.GzipHandler(r), nil
}

// mountBuiltins registers the hub's own endpoints.
func (s *Server) mountBuiltins(t *routeTable) error {
	staticDirs := s.env.ExpandAll(s.web.Folders.Static)
	if err := static.Check(staticDirs); err != nil {
		s.logger.Warn("static folder unusable", "error", err)
	}

	builtins := []struct {
		pattern string
		handler http.Handler
	}{
		{"/static/*", http.StripPrefix("/static", static.Handler(staticDirs))},
		{"/interactors/*", http.StripPrefix("/interactors", s.interactors.ScriptHandler())},
		{"/metrics", s.metrics.handler()},
	}
	for _, b := range builtins {
		if err := t.handle(b.pattern, "hub", b.handler); err != nil {
			return err
		}
	}

	if err := t.claim("/api/*", "hub"); err != nil {
		return err
	}
	t.r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/recipes", s.handleListRecipes)
		r.Put("/recipes/{id}", s.handleRunRecipe)
	})

	return s.mountAuth(t)
}

// mountAuth registers sign-in and sign-out. Sign-in needs a session
// manager and the companion service keys; sign-out only a session manager.
func (s *Server) mountAuth(t *routeTable) error {
	if s.sessions == nil {
		return nil
	}

	if logout := s.tree.String("urls/logout"); logout != "" {
		if err := t.get(logout, "hub", s.sessions.LogoutHandler("/")); err != nil {
			return err
		}
	}

	login := s.tree.String("urls/login")
	if login == "" || !s.homestarConfigured() {
		s.logger.Info("homestar sign-in not configured",
			"key", presence(s.tree.IsSet("keys/homestar/key")),
			"secret", presence(s.tree.IsSet("keys/homestar/secret")),
			"url", presence(s.tree.IsSet("homestar/url")),
		)
		return nil
	}

	callback := strings.TrimSuffix(login, "/") + "/callback"
	if err := t.get(login, "hub", s.handleLogin(callback)); err != nil {
		return err
	}
	return t.get(callback, "hub", s.sessions.CallbackHandler(s.tree.String("keys/homestar/secret"), "/"))
}

// handleLogin sends the browser to the companion service, which returns
// to callback with a signed token.
func (s *Server) handleLogin(callback string) http.HandlerFunc {
	authorize := strings.TrimSuffix(s.tree.String("homestar/url"), "/") + "/oauth/authenticate"
	query := url.Values{
		"client_id": {s.tree.String("keys/homestar/key")},
		"callback":  {strings.TrimSuffix(s.web.URL, "/") + callback},
	}
	target := authorize + "?" + query.Encode()

	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// mountConfigures mounts every bridge whose Configure accepts at
// /configure/<dash-case-name>.
func (s *Server) mountConfigures(t *routeTable) error {
	for _, bridge := range s.registry.Bridges() {
		sub := chi.NewRouter()
		if !bridge.Configure(s.context, sub) {
			s.logger.Debug("bridge declined configure", "bridge", bridge.Name())
			continue
		}

		path := "/configure/" + toDashCase(bridge.Name())
		if err := t.mount(path, "bridge "+bridge.Name(), sub); err != nil {
			return err
		}
		s.configures = append(s.configures, Configure{Name: bridge.Name(), Path: path})
	}
	return nil
}

// compileFolders adds every dynamic folder in configured order. Missing
// folders are skipped with a warning.
func (s *Server) compileFolders(c *routes.Compiler) error {
	for _, dir := range s.env.ExpandAll(s.web.Folders.Dynamic) {
		err := c.AddFolder(dir)
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("dynamic folder missing, skipping", "folder", dir)
			continue
		}
		if err != nil {
			return fmt.Errorf("compiling %s: %w", dir, err)
		}
	}
	return nil
}

// toDashCase converts "Hue Bridge" and "HueBridge" to "hue-bridge".
func toDashCase(name string) string {
	var b strings.Builder
	var prev rune
	dash := false
	for _, c := range name {
		switch {
		case unicode.IsUpper(c):
			if b.Len() > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
				dash = true
			}
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(c))
		case unicode.IsLetter(c) || unicode.IsDigit(c):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(c)
		default:
			dash = true
		}
		prev = c
	}
	return b.String()
}

func presence(set bool) string {
	if set {
		return "ok"
	}
	return "missing"
}
