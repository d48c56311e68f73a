package extension

import (
	"fmt"
)

// Logger is the logging interface used by the registry.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Args carries the hook-specific arguments of a dispatch pass.
//
//	HookSetup     Builder
//	HookSetupApp  Context, App
//	HookOnReady   Context
type Args struct {
	Builder *Builder
	Context *Context
	App     App
}

// Registry holds the extensions in manifest order.
type Registry struct {
	logger     Logger
	extensions []Extension
}

// NewRegistry builds a registry from an explicit manifest.
//
// Nil entries and entries implementing no capability are dropped. Order
// is kept exactly as given.
//
// Parameters:
//   - logger: Logger for skipped entries (nil for none)
//   - manifest: Extensions in dispatch order
//
// Returns:
//   - *Registry: The registry
//   - error: ErrDuplicateName if two retained entries share a name
func NewRegistry(logger Logger, manifest ...Extension) (*Registry, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	r := &Registry{logger: logger}
	seen := make(map[string]bool, len(manifest))

	for _, ext := range manifest {
		if ext == nil {
			continue
		}
		if !capable(ext) {
			logger.Debug("extension has no hooks, skipping", "extension", ext.Name())
			continue
		}
		if seen[ext.Name()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, ext.Name())
		}
		seen[ext.Name()] = true
		r.extensions = append(r.extensions, ext)
	}

	return r, nil
}

// Extensions returns the registered extensions in dispatch order.
func (r *Registry) Extensions() []Extension {
	out := make([]Extension, len(r.extensions))
	copy(out, r.extensions)
	return out
}

// Bridges returns the extensions that implement Bridge, in order.
func (r *Registry) Bridges() []Bridge {
	var out []Bridge
	for _, ext := range r.extensions {
		if b, ok := ext.(Bridge); ok {
			out = append(out, b)
		}
	}
	return out
}

// Dispatch invokes hook on every extension that implements it, in order.
//
// Extensions without the hook are skipped. The first error stops the pass
// and is returned as a *HookError.
func (r *Registry) Dispatch(hook Hook, args Args) error {
	if err := checkArgs(hook, args); err != nil {
		return err
	}

	for _, ext := range r.extensions {
		called, err := invoke(ext, hook, args)
		if !called {
			continue
		}
		if err != nil {
			return &HookError{Extension: ext.Name(), Hook: hook, Err: err}
		}
		r.logger.Debug("extension hook done", "extension", ext.Name(), "hook", string(hook))
	}
	return nil
}

// Setup runs the setup pass against b.
func (r *Registry) Setup(b *Builder) error {
	return r.Dispatch(HookSetup, Args{Builder: b})
}

// SetupApp runs the setup_app pass.
func (r *Registry) SetupApp(ctx *Context, app App) error {
	return r.Dispatch(HookSetupApp, Args{Context: ctx, App: app})
}

// Ready runs the on_ready pass.
func (r *Registry) Ready(ctx *Context) error {
	return r.Dispatch(HookOnReady, Args{Context: ctx})
}

func checkArgs(hook Hook, args Args) error {
	switch hook {
	case HookSetup:
		if args.Builder == nil {
			return fmt.Errorf("%w: %s needs a builder", ErrMissingArgument, hook)
		}
	case HookSetupApp:
		if args.Context == nil || args.App == nil {
			return fmt.Errorf("%w: %s needs a context and an app", ErrMissingArgument, hook)
		}
	case HookOnReady:
		if args.Context == nil {
			return fmt.Errorf("%w: %s needs a context", ErrMissingArgument, hook)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownHook, hook)
	}
	return nil
}

func invoke(ext Extension, hook Hook, args Args) (bool, error) {
	switch hook {
	case HookSetup:
		if h, ok := ext.(Setupper); ok {
			return true, h.Setup(args.Builder)
		}
	case HookSetupApp:
		if h, ok := ext.(AppSetupper); ok {
			return true, h.SetupApp(args.Context, args.App)
		}
	case HookOnReady:
		if h, ok := ext.(ReadyNotifier); ok {
			return true, h.OnReady(args.Context)
		}
	}
	return false, nil
}
