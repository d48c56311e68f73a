// Package hub assembles the HomeStar web hub.
//
// New runs the composition passes in a fixed order:
//
//  1. setup: extensions populate the composition context, which is then frozen
//  2. setup_app: extensions add middleware, handlers and pages
//  3. configure bridges are mounted under /configure/<name>
//  4. extension pages and the dynamic folders are compiled into one route list
//
// Every compiled page is served through the access gate, the optional
// customize step and the two-phase renderer. Start binds the listener and
// fires on_ready:
//
//	srv, err := hub.New(deps)
//	srv.Start(ctx)
//	defer srv.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package hub
