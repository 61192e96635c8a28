package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"movievault/internal/response"
)

type Config struct {
	APIKey    string
	JWTSecret string
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

var (
	ErrNoCredentials      = errors.New("no credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Principal is the caller resolved from request credentials.
type Principal struct {
	Subject string
	Staff   bool
	Roles   []string
}

// ServicePrincipal is returned for callers presenting the static API key.
var ServicePrincipal = Principal{Subject: "service", Staff: true, Roles: []string{RoleAdmin}}

// Authorizer decides whether a principal may use privileged endpoints.
type Authorizer interface {
	IsPrivileged(p Principal) bool
}

const RoleAdmin = "admin"

// StaffAuthorizer grants privilege to staff principals and admin role holders.
type StaffAuthorizer struct{}

func (StaffAuthorizer) IsPrivileged(p Principal) bool {
	if p.Staff {
		return true
	}
	for _, role := range p.Roles {
		if role == RoleAdmin {
			return true
		}
	}
	return false
}

// Authenticator resolves a Principal from the Authorization or X-API-Key
// header.
type Authenticator struct {
	config   *Config
	verifier *JWTVerifier
}

func NewAuthenticator(config *Config) *Authenticator {
	a := &Authenticator{config: config}
	if config.JWTSecret != "" {
		a.verifier = NewJWTVerifier(config.JWTSecret)
	}
	return a
}

func (a *Authenticator) Authenticate(r *http.Request) (Principal, error) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		if a.apiKeyMatches(key) {
			return ServicePrincipal, nil
		}
		return Principal{}, ErrInvalidCredentials
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Principal{}, ErrNoCredentials
	}
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return Principal{}, ErrInvalidCredentials
	}

	if a.apiKeyMatches(token) {
		return ServicePrincipal, nil
	}
	if a.verifier == nil {
		return Principal{}, ErrInvalidCredentials
	}
	return a.verifier.Verify(token)
}

func (a *Authenticator) apiKeyMatches(key string) bool {
	return a.config.APIKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(a.config.APIKey)) == 1
}

type contextKey struct{}

// FromContext returns the principal stored by RequirePrivileged.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// RequirePrivileged rejects requests without valid credentials (401) or whose
// principal is not privileged (403). The wrapped handler only runs for
// privileged callers.
func RequirePrivileged(authn *Authenticator, authz Authorizer, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authn.Authenticate(r)
			if err != nil {
				log.Debugw("authentication failed", "path", r.URL.Path, "error", err)
				writeUnauthorized(w)
				return
			}

			if !authz.IsPrivileged(principal) {
				log.Warnw("privileged endpoint refused", "path", r.URL.Path, "subject", principal.Subject)
				writeForbidden(w)
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	response.JSON(w, http.StatusUnauthorized, ErrorResponse{
		Code:    "unauthorized",
		Message: "Invalid or missing credentials",
		Hint:    "Provide a token via Authorization: Bearer <token> or X-API-Key: <key>",
	})
}

func writeForbidden(w http.ResponseWriter) {
	response.JSON(w, http.StatusForbidden, ErrorResponse{
		Code:    "forbidden",
		Message: "Admin privileges are required",
	})
}
