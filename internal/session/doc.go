// Package session identifies the person behind a request.
//
// Sign-in is delegated to the homestar.io identity provider. Its callback
// carries a token signed with the runner secret; the hub verifies it, records
// the user in a Directory and issues its own session cookie signed with
// secrets/session. The middleware resolves that cookie on every request and
// attaches the *User to the request context, where the page gate and the
// "user" local read it.
package session
