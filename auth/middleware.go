package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/healthops/observe"
)

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	// Authenticators are tried in order; the first that supports a request decides it.
	Authenticators []Authenticator

	// RequiredRole, when set, must be held by the caller.
	RequiredRole string

	// Logger records rejected requests. Default: no-op.
	Logger observe.Logger
}

// Middleware returns HTTP middleware that authenticates every request and
// stores the caller with WithIdentity. Missing or invalid credentials get 401,
// a missing role gets 403.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, method, err := authenticate(cfg.Authenticators, r)
			if err != nil {
				if !isCredentialError(err) {
					logger.Error(ctx, "authentication failed", observe.Field{Key: "auth.method", Value: method}, observe.Field{Key: "error", Value: err})
					deny(w, http.StatusInternalServerError, "authentication unavailable")
					return
				}
				logger.Warn(ctx, "request rejected", observe.Field{Key: "auth.method", Value: method}, observe.Field{Key: "error", Value: err})
				w.Header().Set("WWW-Authenticate", `Bearer realm="health"`)
				deny(w, http.StatusUnauthorized, err.Error())
				return
			}
			if cfg.RequiredRole != "" && !id.HasRole(cfg.RequiredRole) {
				logger.Warn(ctx, "request forbidden", observe.Field{Key: "auth.principal", Value: id.Principal})
				deny(w, http.StatusForbidden, ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
		})
	}
}

func authenticate(auths []Authenticator, r *http.Request) (*Identity, string, error) {
	for _, a := range auths {
		if !a.Supports(r) {
			continue
		}
		id, err := a.Authenticate(r.Context(), r)
		if err != nil {
			return nil, a.Name(), err
		}
		if id.IsExpired() {
			return nil, a.Name(), ErrTokenExpired
		}
		return id, a.Name(), nil
	}
	return nil, "", ErrMissingCredentials
}

func isCredentialError(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed)
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
