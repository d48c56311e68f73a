package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie set by the hub.
const CookieName = "homestar_session"

// Claims is the body of a hub session token.
type Claims struct {
	jwt.RegisteredClaims
	Identity string `json:"identity"`
}

// ProviderClaims is the body of the token the identity provider hands back
// after sign-in. Groups is omitted for people the provider does not know.
type ProviderClaims struct {
	jwt.RegisteredClaims
	Identity string   `json:"identity"`
	Username string   `json:"username"`
	Groups   []string `json:"groups,omitempty"`
}

// Logger is the logging interface used by the manager.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Manager issues and resolves session cookies.
type Manager struct {
	secret    []byte
	ttl       time.Duration
	secure    bool
	directory *Directory
	logger    Logger
	now       func() time.Time
}

// NewManager creates a manager signing with secret.
//
// Parameters:
//   - secret: secrets/session
//   - ttl: Cookie and token lifetime
//   - secure: Mark cookies Secure (https deployments)
//   - directory: Where signed-in users are recorded
func NewManager(secret string, ttl time.Duration, secure bool, directory *Directory) (*Manager, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Manager{
		secret:    []byte(secret),
		ttl:       ttl,
		secure:    secure,
		directory: directory,
		logger:    noopLogger{},
		now:       time.Now,
	}, nil
}

// SetLogger sets the logger for rejected cookies.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

// Directory returns the user directory.
func (m *Manager) Directory() *Directory {
	return m.directory
}

// Sign creates a session token for u.
func (m *Manager) Sign(u *User) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
		Identity: u.Identity,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Resolve validates a session token and returns its user.
func (m *Manager) Resolve(token string) (*User, error) {
	claims := &Claims{}
	if err := parse(token, m.secret, claims, m.now); err != nil {
		return nil, err
	}
	u, ok := m.directory.ByID(claims.Subject)
	if !ok {
		return nil, ErrUserNotFound
	}
	if u.Identity != claims.Identity {
		return nil, fmt.Errorf("%w: identity mismatch", ErrTokenInvalid)
	}
	return u, nil
}

// Issue signs a session for u and sets the cookie.
func (m *Manager) Issue(w http.ResponseWriter, u *User) error {
	token, err := m.Sign(u)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware attaches the signed-in user, if any, to the request context.
// Requests without a valid cookie continue unauthenticated.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := m.Resolve(cookie.Value)
		if err != nil {
			m.logger.Debug("session cookie rejected", "error", err, "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// CallbackHandler completes a provider sign-in. The token query parameter
// must be signed with providerSecret (keys/homestar/secret). On success the
// user is recorded, a session cookie is set and the browser goes to
// redirect.
func (m *Manager) CallbackHandler(providerSecret, redirect string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := &ProviderClaims{}
		if err := parse(r.URL.Query().Get("token"), []byte(providerSecret), claims, m.now); err != nil {
			m.logger.Warn("sign-in rejected", "error", err)
			http.Error(w, "sign-in failed", http.StatusUnauthorized)
			return
		}
		u, err := m.directory.Upsert(claims.Identity, claims.Username, claims.Groups)
		if err != nil {
			http.Error(w, "sign-in failed", http.StatusUnauthorized)
			return
		}
		if err := m.Issue(w, u); err != nil {
			http.Error(w, "sign-in failed", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, redirect, http.StatusFound)
	}
}

// LogoutHandler clears the session and sends the browser to redirect.
func (m *Manager) LogoutHandler(redirect string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.Clear(w)
		http.Redirect(w, r, redirect, http.StatusFound)
	}
}

// parse validates an HS256 token into claims.
func parse(token string, secret []byte, claims jwt.Claims, now func() time.Time) error {
	if len(secret) == 0 {
		return ErrNoSecret
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
