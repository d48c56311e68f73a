// Package static serves the files under /static.
//
// Every folder listed in webserver/folders/static is searched in order and
// the first folder holding the requested file serves it. The hub's own
// browser assets (homestar.js, homestar.css) are embedded and answer when no
// folder overrides them.
//
// Responses carry no-cache headers so edits to an install's static folder
// show up on the next reload.
package static
