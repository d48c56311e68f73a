// Package gate decides whether a page request may proceed to rendering.
//
// The decision is made before any template is read:
//
//	login not required, or user present   Proceed
//	login required, no user, login URL    Redirect (302 to the login URL)
//	login required, no user, no URL       Reject (403, plain text)
package gate

import (
	"net/http"
)

// RejectMessage is the body of a Reject response.
const RejectMessage = "this page requires login, but no login URL set - maybe 'homestar install homestar-access'?"

// Outcome is the kind of decision.
type Outcome int

const (
	// Proceed lets the request through.
	Proceed Outcome = iota
	// Redirect sends the client to the login URL.
	Redirect
	// Reject refuses the request.
	Reject
)

func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case Redirect:
		return "redirect"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Decision is the result of Decide.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide applies the login policy to one request.
//
// Parameters:
//   - requireLogin: Whether the route needs an authenticated user
//   - authenticated: Whether the request carries one
//   - loginURL: Where to send anonymous users, "" if none is configured
func Decide(requireLogin, authenticated bool, loginURL string) Decision {
	switch {
	case !requireLogin || authenticated:
		return Decision{Outcome: Proceed}
	case loginURL != "":
		return Decision{Outcome: Redirect, Location: loginURL}
	default:
		return Decision{Outcome: Reject}
	}
}

// Write answers the request for a Redirect or Reject decision and reports
// whether it did. A Proceed decision writes nothing and returns false.
func Write(w http.ResponseWriter, r *http.Request, d Decision) bool {
	switch d.Outcome {
	case Redirect:
		http.Redirect(w, r, d.Location, http.StatusFound)
		return true
	case Reject:
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(RejectMessage)) //nolint:errcheck // client may have gone away
		return true
	default:
		return false
	}
}
