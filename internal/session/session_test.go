package session

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret     = "session-secret"
	providerSecret = "runner-secret"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testSecret, time.Hour, false, NewDirectory("owner@homestar.io"))
	require.NoError(t, err)
	return m
}

func providerToken(t *testing.T, secret string, claims ProviderClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestDirectoryUpsert(t *testing.T) {
	d := NewDirectory("owner@homestar.io")

	owner, err := d.Upsert("owner@homestar.io", "Owner", []string{"Family"})
	require.NoError(t, err)
	assert.True(t, owner.IsOwner)
	assert.True(t, owner.IsKnown)
	assert.True(t, owner.InGroup("Family"))

	guest, err := d.Upsert("guest@example.com", "<bad>", nil)
	require.NoError(t, err)
	assert.False(t, guest.IsOwner)
	assert.False(t, guest.IsKnown)
	assert.Equal(t, "guest@example.com", guest.Username)

	again, err := d.Upsert("owner@homestar.io", "Owner 2", []string{})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, again.ID)
	assert.True(t, again.IsKnown)

	_, err = d.Upsert("", "x", nil)
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	got, ok := d.Owner()
	require.True(t, ok)
	assert.Equal(t, "Owner 2", got.Username)
	assert.Len(t, d.Users(), 2)

	updated, err := d.Update(guest.ID, []string{"Friends"})
	require.NoError(t, err)
	assert.True(t, updated.IsKnown)
	_, err = d.Update("nope", nil)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Returned users are copies.
	updated.Groups[0] = "changed"
	stored, _ := d.ByID(guest.ID)
	assert.Equal(t, []string{"Friends"}, stored.Groups)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("", time.Hour, false, NewDirectory(""))
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestSignResolve(t *testing.T) {
	m := newTestManager(t)
	u, err := m.Directory().Upsert("a@example.com", "a", []string{"Everyone"})
	require.NoError(t, err)

	token, err := m.Sign(u)
	require.NoError(t, err)

	got, err := m.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	other, err := NewManager("other", time.Hour, false, m.Directory())
	require.NoError(t, err)
	_, err = other.Resolve(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Resolve(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMiddlewareAttachesUser(t *testing.T) {
	m := newTestManager(t)
	u, err := m.Directory().Upsert("a@example.com", "a", nil)
	require.NoError(t, err)

	var seen *User
	handler := m.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = UserFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(rec, u))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, u.ID, seen.ID)

	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, seen)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, seen)
}

func TestCallbackHandler(t *testing.T) {
	m := newTestManager(t)
	handler := m.CallbackHandler(providerSecret, "/")

	token := providerToken(t, providerSecret, ProviderClaims{
		Identity: "owner@homestar.io",
		Username: "Owner",
		Groups:   []string{"Family"},
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/homestar/callback?token="+url.QueryEscape(token), nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	require.Len(t, rec.Result().Cookies(), 1)

	u, err := m.Resolve(rec.Result().Cookies()[0].Value)
	require.NoError(t, err)
	assert.True(t, u.IsOwner)
	assert.True(t, u.IsKnown)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", providerToken(t, "nope", ProviderClaims{Identity: "x"})},
		{"no identity", providerToken(t, providerSecret, ProviderClaims{Username: "x"})},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cb?token="+url.QueryEscape(tt.token), nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLogoutHandler(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	m.LogoutHandler("/").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}
