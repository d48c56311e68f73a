package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/homestar-hub/internal/catalog"
	"github.com/nerrad567/homestar-hub/internal/extension"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/config"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/logging"
	"github.com/nerrad567/homestar-hub/internal/interactor"
	"github.com/nerrad567/homestar-hub/internal/profile"
	"github.com/nerrad567/homestar-hub/internal/render"
	"github.com/nerrad567/homestar-hub/internal/routes"
	"github.com/nerrad567/homestar-hub/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// readHeaderTimeout bounds how long a client may take to send headers.
const readHeaderTimeout = 10 * time.Second

// catalogReportInterval is how often catalog sizes are sent to telemetry.
const catalogReportInterval = time.Minute

// Bus is the message bus the hub publishes on. *mqtt.Client satisfies it.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishStatus(status string, profile any) error
}

// Telemetry receives render and catalog points. *influxdb.Client
// satisfies it.
type Telemetry interface {
	WritePageRender(path string, status int, elapsed time.Duration)
	WriteCatalogSize(things, recipes, devices int)
}

// Deps holds the dependencies required by the hub.
type Deps struct {
	Tree        config.Tree
	Env         config.Environment
	Logger      *logging.Logger
	Extensions  []extension.Extension // manifest, in dispatch order
	Catalog     *catalog.Catalog
	Interactors *interactor.Registry // nil for the built-in set
	Sessions    *session.Manager     // optional: no sign-in without it
	Bus         Bus                  // optional: recipe commands and runner status
	Telemetry   Telemetry            // optional
	Version     string
}

// Server is the HomeStar web hub.
//
// New runs the setup and setup_app passes and compiles the route list;
// Start binds the listener and runs on_ready.
type Server struct {
	tree        config.Tree
	env         config.Environment
	web         config.WebserverConfig
	logger      *logging.Logger
	catalog     *catalog.Catalog
	interactors *interactor.Registry
	sessions    *session.Manager
	users       *session.Directory
	bus         Bus
	telemetry   Telemetry
	version     string

	registry   *extension.Registry
	context    *extension.Context
	outer      *render.Outer
	inner      *render.Inner
	metrics    *metrics
	routes     []routes.RouteSpec
	configures []Configure
	handler    http.Handler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
	closed   bool
}

// New creates the hub and runs the composition passes.
//
// The setup pass runs and the composition context is frozen before any
// route is registered. A hook failure, a duplicate registration or a
// route collision aborts New.
//
// Parameters:
//   - deps: Required dependencies (tree, logger, catalog)
//
// Returns:
//   - *Server: Hub ready to start
//   - error: Missing dependencies, hook failures or route collisions
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("%w: logger", ErrMissingDependency)
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("%w: catalog", ErrMissingDependency)
	}

	web, err := deps.Tree.Webserver()
	if err != nil {
		return nil, fmt.Errorf("reading webserver config: %w", err)
	}

	interactors := deps.Interactors
	if interactors == nil {
		interactors = interactor.New()
	}

	s := &Server{
		tree:        deps.Tree,
		env:         deps.Env,
		web:         web,
		logger:      deps.Logger.With("component", "hub"),
		catalog:     deps.Catalog,
		interactors: interactors,
		sessions:    deps.Sessions,
		bus:         deps.Bus,
		telemetry:   deps.Telemetry,
		version:     deps.Version,
		outer:       render.NewOuter(interactors.HTMLD(), interactors.Table()),
		inner:       render.NewInner(),
		metrics:     newMetrics(),
	}
	if s.sessions != nil {
		s.users = s.sessions.Directory()
	} else {
		s.users = session.NewDirectory(deps.Tree.String("keys/homestar/owner"))
	}

	manifest := append([]extension.Extension{namespaceExtension{server: s}}, deps.Extensions...)
	s.registry, err = extension.NewRegistry(s.logger, manifest...)
	if err != nil {
		return nil, err
	}

	builder := extension.NewBuilder()
	if err := s.registry.Setup(builder); err != nil {
		return nil, err
	}
	s.context = builder.Freeze()

	s.handler, err = s.buildRouter()
	if err != nil {
		return nil, err
	}
	s.metrics.routes.Set(float64(len(s.routes)))

	s.logger.Info("hub composed",
		"extensions", len(s.registry.Extensions()),
		"routes", len(s.routes),
		"configures", len(s.configures),
	)
	return s, nil
}

// Handler returns the hub's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Routes returns the compiled page and redirect routes.
func (s *Server) Routes() []routes.RouteSpec {
	out := make([]routes.RouteSpec, len(s.routes))
	copy(out, s.routes)
	return out
}

// Configures returns the mounted configuration sub-apps.
func (s *Server) Configures() []Configure {
	out := make([]Configure, len(s.configures))
	copy(out, s.configures)
	return out
}

// Context returns the frozen composition context.
func (s *Server) Context() *extension.Context {
	return s.context
}

// Start binds the listener, serves in the background and runs on_ready.
//
// Parameters:
//   - ctx: Bounds background work; the listener lives until Close
//
// Returns:
//   - error: If binding fails or an on_ready hook fails
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	addr := net.JoinHostPort(s.web.Host, strconv.Itoa(s.web.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	s.listener = ln
	s.done = make(chan struct{})
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	server, done := s.server, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("hub server error", "error", err)
		}
	}()

	s.logger.Info("hub listening", "address", ln.Addr().String(), "url", s.web.URL)

	if err := s.registry.Ready(s.context); err != nil {
		s.Close() //nolint:errcheck // the hook error is the one reported
		return err
	}

	if s.bus != nil {
		if err := s.bus.PublishStatus("ready", s.Profile()); err != nil {
			s.logger.Warn("failed to publish runner status", "error", err)
		}
	}
	if s.telemetry != nil {
		go s.reportCatalogLoop(srvCtx)
	}
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Profile describes this process for the profile file and runner status.
// The webserver port is the bound port once started.
func (s *Server) Profile() profile.Profile {
	port := s.web.Port
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	mq, _ := s.tree.MQTT() //nolint:errcheck // zero values are recorded when the section is malformed
	return profile.Current(
		s.tree.String("ip"),
		profile.Webserver{Scheme: s.web.Scheme, Host: s.web.Host, Port: port},
		profile.MQTTD{Host: mq.Host, Port: mq.Port, Websocket: mq.Websocket},
	)
}

// Close gracefully shuts down the hub.
//
// It waits up to gracefulShutdownTimeout for in-flight requests. Close on a
// hub that was never started, or a second Close, is a no-op.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.server == nil || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	server, done, cancel := s.server, s.done, s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	ctx, stop := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer stop()

	s.logger.Info("hub shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("hub shutdown: %w", err)
	}
	<-done
	return nil
}

// reportCatalogLoop sends catalog sizes to telemetry until ctx is done.
func (s *Server) reportCatalogLoop(ctx context.Context) {
	ticker := time.NewTicker(catalogReportInterval)
	defer ticker.Stop()

	s.reportCatalog()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reportCatalog()
		}
	}
}

func (s *Server) reportCatalog() {
	things, recipes, devices := s.catalog.Counts()
	s.telemetry.WriteCatalogSize(things, recipes, devices)
}
