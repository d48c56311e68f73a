package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		requireLogin  bool
		authenticated bool
		loginURL      string
		want          Decision
	}{
		{"open page anonymous", false, false, "", Decision{Outcome: Proceed}},
		{"open page with user", false, true, "/auth/homestar", Decision{Outcome: Proceed}},
		{"gated page with user", true, true, "", Decision{Outcome: Proceed}},
		{"gated page anonymous with login url", true, false, "/auth/homestar", Decision{Outcome: Redirect, Location: "/auth/homestar"}},
		{"gated page anonymous without login url", true, false, "", Decision{Outcome: Reject}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.requireLogin, tt.authenticated, tt.loginURL))
		})
	}
}

func TestWriteRedirect(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/things", nil)

	assert.True(t, Write(w, r, Decide(true, false, "/auth/homestar")))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/homestar", w.Header().Get("Location"))
}

func TestWriteReject(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/things", nil)

	assert.True(t, Write(w, r, Decide(true, false, "")))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
	assert.Equal(t, RejectMessage, w.Body.String())
}

func TestWriteProceedWritesNothing(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.False(t, Write(w, r, Decide(false, false, "")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "proceed", Proceed.String())
	assert.Equal(t, "redirect", Redirect.String())
	assert.Equal(t, "reject", Reject.String())
}
