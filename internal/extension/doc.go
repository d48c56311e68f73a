// Package extension composes the hub from an explicit list of extensions.
//
// An Extension has a name and implements any of the hook interfaces:
//
//	Setupper       setup      populate the shared composition context
//	AppSetupper    setup_app  add middleware, handlers and pages
//	ReadyNotifier  on_ready   act once the listener is bound
//
// It may also implement Bridge to contribute a configuration sub-app
// mounted under /configure/<name>.
//
// Hooks are dispatched synchronously in manifest order. During the setup
// pass every extension receives the same *Builder, so a value written by
// one extension is visible to the next. After the pass the builder is
// frozen into a read-only Context that is shared by request handlers.
//
// The first hook error aborts the pass. No extension is isolated from the
// others and panics are not recovered: a broken extension stops startup.
package extension
