package auth

import (
	"context"
	"net/http"
)

// Authenticator validates the credentials carried by an HTTP request.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: credential problems are reported with the package sentinels;
//     any other error is an internal failure.
type Authenticator interface {
	// Name identifies the authenticator in logs.
	Name() string

	// Supports reports whether the request carries credentials of this kind.
	Supports(r *http.Request) bool

	// Authenticate validates the credentials and returns the caller.
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)
}
