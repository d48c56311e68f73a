package hub

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/homestar-hub/internal/catalog"
	"github.com/nerrad567/homestar-hub/internal/gate"
	"github.com/nerrad567/homestar-hub/internal/render"
	"github.com/nerrad567/homestar-hub/internal/routes"
	"github.com/nerrad567/homestar-hub/internal/session"
)

// statusClientClosed is recorded for requests abandoned by the client.
// Nothing is written for them.
const statusClientClosed = 499

// Configure is a mounted configuration sub-app.
type Configure struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// pageHandler serves one page route.
//
// The gate decides before any template is read. Locals are built per
// request, the customize step runs under webserver/customize_timeout, and
// both render phases complete into a buffer before anything is written, so
// a failed render still answers 500.
func (s *Server) pageHandler(spec routes.RouteSpec) http.HandlerFunc {
	if spec.ContentType == "" {
		spec.ContentType = routes.ContentTypeHTML
	}
	requireLogin := spec.RequireLogin || s.tree.Bool("webserver/require_login")
	loginURL := s.tree.String("urls/login")

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		user, authenticated := session.UserFrom(r.Context())
		decision := gate.Decide(requireLogin, authenticated, loginURL)
		s.metrics.gateDecisions.WithLabelValues(decision.Outcome.String()).Inc()
		if gate.Write(w, r, decision) {
			return
		}

		status := s.servePage(w, r, spec, s.buildLocals(spec, user))

		elapsed := time.Since(start)
		s.metrics.pageRenders.WithLabelValues(spec.Path, strconv.Itoa(status)).Inc()
		s.metrics.renderDuration.WithLabelValues(spec.Path).Observe(elapsed.Seconds())
		if s.telemetry != nil {
			s.telemetry.WritePageRender(spec.Path, status, elapsed)
		}
	}
}

// servePage runs customize and render for an admitted request and returns
// the status written, or statusClientClosed when the client left first.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request, spec routes.RouteSpec, locals *render.Locals) int {
	outcome, err := render.RunCustomize(r.Context(), s.web.CustomizeTimeoutDuration(), spec.Customize, r, locals)
	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Debug("client went away during customize", "path", spec.Path)
		return statusClientClosed
	case errors.Is(err, render.ErrCustomizeTimeout):
		s.logger.Warn("customize step timed out",
			"path", spec.Path,
			"timeout", s.web.CustomizeTimeoutDuration(),
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		s.metrics.customizeFails.WithLabelValues(spec.Path, "timeout").Inc()
		writeText(w, http.StatusGatewayTimeout, "page customization timed out")
		return http.StatusGatewayTimeout
	case err != nil:
		s.logger.Error("customize step failed", "path", spec.Path, "error", err)
		s.metrics.customizeFails.WithLabelValues(spec.Path, "error").Inc()
		writeInternalError(w, "internal server error")
		return http.StatusInternalServerError
	}

	switch outcome.Kind {
	case render.OutcomeRedirect:
		http.Redirect(w, r, outcome.Target, http.StatusFound)
		return http.StatusFound
	case render.OutcomeFail:
		s.metrics.customizeFails.WithLabelValues(spec.Path, "fail").Inc()
		writeText(w, http.StatusNotFound, outcome.Message)
		return http.StatusNotFound
	}

	src, err := s.outer.Expand(spec.Template)
	if err != nil {
		s.logger.Error("page expand failed", "path", spec.Path, "template", spec.Template, "error", err)
		writeInternalError(w, "internal server error")
		return http.StatusInternalServerError
	}

	var buf bytes.Buffer
	if err := s.inner.Render(&buf, spec.Template, src, spec.ContentType, locals); err != nil {
		s.logger.Error("page render failed", "path", spec.Path, "template", spec.Template, "error", err)
		writeInternalError(w, "internal server error")
		return http.StatusInternalServerError
	}

	status := http.StatusOK
	if spec.Status != 0 {
		status = spec.Status
	}
	w.Header().Set("Content-Type", spec.ContentType)
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(buf.Bytes())
	return status
}

// buildLocals assembles the phase-two data for one request. Expensive
// listings are lazy and only run when the template references them.
func (s *Server) buildLocals(spec routes.RouteSpec, user *session.User) *render.Locals {
	locals := render.NewLocals()

	locals.SetLazy("things", func() any { return s.catalog.Things() })
	locals.SetLazy("upnp", func() any { return s.catalog.UPnP() })
	locals.SetLazy("cookbook", func() any { return s.catalog.Recipes(s.interactors.Assign) })
	locals.SetLazy("cookbooks", func() any { return s.catalog.Cookbooks() })
	locals.SetLazy("settings", func() any { return s.tree.Sanitized() })

	locals.Set("configures", s.configures)
	locals.Set("urls", s.tree.Map("urls"))
	if user != nil {
		locals.Set("user", user)
	} else {
		locals.Set("user", nil)
	}
	locals.Set("homestar_configured", s.homestarConfigured())
	locals.SetFunc("format_metadata", catalog.FormatThing)

	locals.Merge(s.context.Values())
	if spec.Locals != nil {
		locals.Merge(spec.Locals)
	}
	if spec.Status != 0 {
		locals.Set("status", spec.Status)
	}
	return locals
}

// homestarConfigured reports whether the remote companion service is
// fully configured.
func (s *Server) homestarConfigured() bool {
	return s.tree.IsSet("keys/homestar/key") &&
		s.tree.IsSet("keys/homestar/secret") &&
		s.tree.IsSet("homestar/url")
}

// redirectHandler answers 302 to target.
func redirectHandler(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	}
}
