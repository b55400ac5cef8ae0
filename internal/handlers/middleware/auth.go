// internal/handlers/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
	"github.com/pank1717/Stocks-sub000/internal/core/ports"
	"github.com/pank1717/Stocks-sub000/internal/pkg/logger"
)

// ErrNoCredentials is returned by an Authenticator that finds nothing it
// recognises on the request, so the next one in a chain gets a chance.
var ErrNoCredentials = errors.New("no credentials")

type principalKey struct{}

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*domain.Principal, error)
}

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Authenticate(token string) (*domain.Principal, error)
}

// JWTAuthenticator accepts "Authorization: Bearer <token>".
type JWTAuthenticator struct {
	verifier TokenVerifier
}

// NewJWTAuthenticator creates a bearer token authenticator
func NewJWTAuthenticator(verifier TokenVerifier) *JWTAuthenticator {
	return &JWTAuthenticator{verifier: verifier}
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (*domain.Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrNoCredentials
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("malformed authorization header")
	}

	return a.verifier.Authenticate(strings.TrimSpace(token))
}

// SessionAuthenticator looks the session cookie up in the session store.
type SessionAuthenticator struct {
	store  ports.SessionStore
	cookie string
}

// NewSessionAuthenticator creates a cookie session authenticator
func NewSessionAuthenticator(store ports.SessionStore, cookie string) *SessionAuthenticator {
	return &SessionAuthenticator{store: store, cookie: cookie}
}

func (a *SessionAuthenticator) Authenticate(r *http.Request) (*domain.Principal, error) {
	c, err := r.Cookie(a.cookie)
	if err != nil || c.Value == "" {
		return nil, ErrNoCredentials
	}

	session, err := a.store.Get(r.Context(), c.Value)
	if err != nil {
		return nil, err
	}
	return &session.Principal, nil
}

// StaticAuthenticator authenticates every request as one fixed principal.
// It serves single-user local deployments.
type StaticAuthenticator struct {
	principal domain.Principal
}

// NewStaticAuthenticator creates an authenticator for a fixed principal
func NewStaticAuthenticator(p domain.Principal) *StaticAuthenticator {
	return &StaticAuthenticator{principal: p}
}

func (a *StaticAuthenticator) Authenticate(*http.Request) (*domain.Principal, error) {
	p := a.principal
	return &p, nil
}

// ChainAuthenticator tries authenticators in order; the first one that recognises the
// request decides.
type ChainAuthenticator []Authenticator

func (c ChainAuthenticator) Authenticate(r *http.Request) (*domain.Principal, error) {
	for _, a := range c {
		p, err := a.Authenticate(r)
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		return p, err
	}
	return nil, ErrNoCredentials
}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated caller, if any
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*domain.Principal)
	return p, ok && p != nil
}

// Authenticate rejects requests no authenticator accepts with 401 and
// stores the principal for the handlers and the log records.
func Authenticate(a Authenticator, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authenticate(r)
			if err != nil {
				if !errors.Is(err, ErrNoCredentials) {
					l.WarnContext(r.Context(), "authentication failed",
						slog.String("error", err.Error()))
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="stocks"`)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
				return
			}

			ctx := WithPrincipal(r.Context(), p)
			ctx = logger.WithUserEmail(ctx, p.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCapability answers 403 unless the caller's role grants c.
func RequireCapability(c domain.Capability, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
			return
		}
		if !p.Role.Can(c) {
			writeJSON(w, http.StatusForbidden, map[string]string{
				"error": fmt.Sprintf("role %s is not allowed to %s", p.Role, c),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
