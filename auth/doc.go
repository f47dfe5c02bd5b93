// Package auth is the authentication subsystem of the HTTP server.
//
// It keeps three tables:
//
//   - schemes: named factories (Scheme) that turn options into an Authenticator
//   - strategies: named, configured Authenticators built from a scheme
//   - the default policy: the ordered strategies applied to routes that do not
//     choose their own
//
// Plugins see the subsystem through the Host interface. Registry implements
// Host and also runs authentication for the server middleware:
//
//	reg := auth.NewRegistry()
//	_ = reg.RegisterScheme("bearer-access-token", bearer.Scheme())
//	_ = reg.Strategy("bearer", "bearer-access-token", &bearer.Config{Validate: lookup})
//	_ = reg.SetDefault(auth.Policy{Strategies: []string{"bearer"}})
//
// Subpackages:
//
//   - auth/jwt      RS/ES-signed JWT scheme and the base64-to-PEM helper
//   - auth/bearer   static bearer-token scheme with a configurable token type
//   - auth/authctx  request context propagation for credentials
package auth
