// Package authctx carries the outcome of request authentication through a
// context.Context.
//
// The auth middleware stores the accepted strategy and its credentials:
//
//	ctx = authctx.WithCredentials(ctx, "bearer", creds)
//
// and handlers read them back:
//
//	creds, ok := authctx.Credentials(ctx)
//	owner := creds["newsroom"]
//
// Set and Get remain available for callers that attach their own typed
// identity on top of the credentials map.
package authctx

import (
	"context"
	"errors"

	"github.com/plan3/commonauth/auth"
)

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey int

const (
	valueKey contextKey = iota
	identityKey
)

type identity struct {
	strategy    string
	credentials auth.Credentials
}

// ErrNoCredentials is returned when the context carries no credentials.
var ErrNoCredentials = errors.New("authctx: no credentials in context")

// WithCredentials records the strategy that authenticated the request and
// the credentials it produced.
func WithCredentials(ctx context.Context, strategy string, creds auth.Credentials) context.Context {
	return context.WithValue(ctx, identityKey, identity{strategy: strategy, credentials: creds})
}

// Credentials returns the credentials stored by WithCredentials.
func Credentials(ctx context.Context) (auth.Credentials, bool) {
	id, ok := ctx.Value(identityKey).(identity)
	if !ok {
		return nil, false
	}
	return id.credentials, true
}

// MustCredentials is like Credentials but returns ErrNoCredentials when the
// request was not authenticated.
func MustCredentials(ctx context.Context) (auth.Credentials, error) {
	creds, ok := Credentials(ctx)
	if !ok {
		return nil, ErrNoCredentials
	}
	return creds, nil
}

// Strategy returns the name of the strategy that authenticated the request.
func Strategy(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey).(identity)
	if !ok {
		return "", false
	}
	return id.strategy, true
}

// Set stores an arbitrary value derived from the credentials, such as a
// project-specific principal struct.
func Set(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, valueKey, v)
}

// Get retrieves a value stored with Set. It returns the zero value and false
// when nothing is stored or the stored value has another type.
func Get[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(valueKey).(T)
	return v, ok
}
