package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie shared between the router and the login
// handlers.
const CookieName = "app-auth"

const sessionIssuer = "complyhq"

// Session binds one principal to the current request/response cycle. It is
// reconstructed from the cookie on every request; there is no server-side
// session table.
type Session struct {
	Principal Principal
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type sessionClaims struct {
	User Principal `json:"user"`
	jwt.RegisteredClaims
}

// Sessions signs principals into the app-auth cookie and validates them back.
// Any parse, signature or expiry failure reads as "no session"; the store
// fails closed, never open.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// SessionOption configures Sessions behavior.
type SessionOption func(*Sessions)

// WithSessionClock overrides the time source (useful for tests).
func WithSessionClock(fn func() time.Time) SessionOption {
	return func(s *Sessions) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewSessions constructs the session store. secure controls the cookie Secure
// attribute and should be true whenever the service is served over https.
func NewSessions(secret string, ttl time.Duration, secure bool, opts ...SessionOption) (*Sessions, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}
	s := &Sessions{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Set serializes the principal snapshot into the signed session cookie. The
// only side effect is the Set-Cookie response header; nothing is persisted.
func (s *Sessions) Set(w http.ResponseWriter, principal Principal) error {
	now := s.now().UTC()
	claims := sessionClaims{
		User: principal,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Get deserializes and validates the session cookie. It returns (nil, false)
// on a missing cookie, malformed payload, bad signature or expiry; the caller
// cannot distinguish the causes.
func (s *Sessions) Get(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, false
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(sessionIssuer))
	if err != nil || !parsed.Valid {
		return nil, false
	}
	if strings.TrimSpace(claims.User.ID) == "" || claims.User.ID != claims.Subject {
		return nil, false
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, false
	}
	return &Session{
		Principal: claims.User,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, true
}

// Clear removes the session cookie (logout).
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
