// Package routes compiles template folders into the hub's page routes.
//
// For each folder, entries named <base>.html or <base>.js become routes:
//
//	index file (e.g. things.html)   GET /           page, text/html
//	                                GET /things     redirect to /
//	                                GET /things.html redirect to /
//	other .html (about.html)        GET /about      page, text/html
//	                                GET /about.html redirect to /about
//	.js (widget.js)                 GET /widget.js  page, text/plain
//
// Everything else in the folder is ignored. Only the first index file is
// used: a later one, from the same or another folder, is skipped with a
// warning. Any other path registered twice is rejected with
// ErrRouteCollision, so the compiled list never depends on registration
// order.
//
// Login gating is not decided here. A RouteSpec only records whether a
// route forces login; the hub combines that with the global policy per
// request.
package routes
