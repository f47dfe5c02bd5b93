package auth

import (
	"net/http"
)

// Credentials is the identity a strategy attaches to an authenticated
// request. Handlers read it back through authctx or server.CredentialsFrom.
type Credentials map[string]any

// Clone returns a shallow copy of c.
func (c Credentials) Clone() Credentials {
	if c == nil {
		return nil
	}
	out := make(Credentials, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Authenticator authenticates a single request for one strategy.
//
// Implementations return ErrMissingCredentials when the request carries
// nothing they understand, an error wrapping ErrInvalidCredentials when it
// carries credentials that do not check out, and any other error for
// failures unrelated to the caller (those surface as 500s).
type Authenticator interface {
	Authenticate(r *http.Request) (Credentials, error)
}

// AuthenticatorFunc adapts an ordinary function to the Authenticator interface.
type AuthenticatorFunc func(r *http.Request) (Credentials, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(r *http.Request) (Credentials, error) {
	return f(r)
}

// Scheme turns scheme-specific options into an Authenticator for a named
// strategy. One scheme can back several strategies, e.g. the bearer scheme
// backs both "bearer" and "plan3Key" with different token types.
type Scheme interface {
	Strategy(name string, options any) (Authenticator, error)
}

// SchemeFunc adapts an ordinary function to the Scheme interface.
type SchemeFunc func(name string, options any) (Authenticator, error)

// Strategy implements Scheme.
func (f SchemeFunc) Strategy(name string, options any) (Authenticator, error) {
	return f(name, options)
}

// Host is the part of the authentication subsystem a plugin talks to while
// it registers. *Registry implements it.
type Host interface {
	// RegisterScheme installs a named scheme. Installing a name twice fails
	// with ErrSchemeExists.
	RegisterScheme(name string, scheme Scheme) error

	// Strategy creates a named strategy from an installed scheme.
	Strategy(name, scheme string, options any) error

	// SetDefault sets the policy for routes that do not choose their own.
	SetDefault(policy Policy) error
}
