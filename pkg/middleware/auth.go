package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated user ID
	UserIDKey ContextKey = "user_id"

	sessionIssuer = "fellowship-api"
)

var ErrInvalidSession = errors.New("invalid session token")

// SessionConfig configures session token verification
type SessionConfig struct {
	Secret      string
	CookieName  string
	TTL         time.Duration
	RefreshLead time.Duration
	Secure      bool
}

// Sessions verifies session tokens and re-issues them shortly before they expire
type Sessions struct {
	secret      []byte
	cookieName  string
	ttl         time.Duration
	refreshLead time.Duration
	secure      bool
	now         func() time.Time
}

// NewSessions creates a session verifier from cfg
func NewSessions(cfg SessionConfig) *Sessions {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "session_token"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Sessions{
		secret:      []byte(cfg.Secret),
		cookieName:  cookieName,
		ttl:         ttl,
		refreshLead: cfg.RefreshLead,
		secure:      cfg.Secure,
		now:         time.Now,
	}
}

// Issue signs a new session token for userID
func (s *Sessions) Issue(userID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates a session token and returns its user and expiry
func (s *Sessions) Parse(tokenString string) (uuid.UUID, time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return uuid.Nil, time.Time{}, ErrInvalidSession
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, time.Time{}, ErrInvalidSession
	}
	return userID, claims.ExpiresAt.Time, nil
}

// Authenticate attaches the caller's user ID to the request context when a valid
// session token is present. Requests without one continue anonymously.
func (s *Sessions) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := s.tokenFromRequest(r)
		if tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, expiresAt, err := s.Parse(tokenString)
		if err != nil {
			slog.DebugContext(r.Context(), "ignoring session token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if s.refreshLead > 0 && expiresAt.Sub(s.now()) <= s.refreshLead {
			s.refresh(w, r, userID)
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func (s *Sessions) refresh(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	token, expiresAt, err := s.Issue(userID)
	if err != nil {
		slog.WarnContext(r.Context(), "session refresh failed", "user_id", userID, "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Sessions) tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(s.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireAuth rejects requests that carry no authenticated user
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserID(r.Context()); !ok {
			response.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DevUserMiddleware allows setting the user ID via X-Test-User-ID header (DEV ONLY)
// This makes it easy to test as different users without a real session
func DevUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-Test-User-ID"); raw != "" {
			if userID, err := uuid.Parse(raw); err == nil && userID != uuid.Nil {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID stores the authenticated user ID in ctx
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from the request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

// ViewerID returns a pointer to the caller's ID, or nil for anonymous callers
func ViewerID(ctx context.Context) *uuid.UUID {
	if userID, ok := GetUserID(ctx); ok {
		return &userID
	}
	return nil
}
