package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Registry is a thread-safe registry of authentication schemes, the named
// strategies built from them and the default policy. It is the Host that
// plugins register against and the lookup table the auth middleware reads.
//
// Usage:
//
//	reg := auth.NewRegistry()
//	_ = reg.RegisterScheme("jwt", jwt.Scheme())
//	_ = reg.Strategy("jwt", "jwt", &jwt.Config{Key: pemKey})
//	_ = reg.SetDefault(auth.Policy{Strategies: []string{"jwt"}})
//
//	// In middleware
//	policy, ok := reg.Resolve(nil)
//	result, err := reg.Authenticate(req, policy)
type Registry struct {
	mu            sync.RWMutex
	schemes       map[string]Scheme
	strategies    map[string]strategy
	order         []string
	defaultPolicy *Policy
}

type strategy struct {
	scheme        string
	authenticator Authenticator
}

// Result is a successful authentication.
type Result struct {
	Strategy    string
	Credentials Credentials
}

var _ Host = (*Registry)(nil)

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		schemes:    make(map[string]Scheme),
		strategies: make(map[string]strategy),
	}
}

// RegisterScheme installs a named scheme.
func (r *Registry) RegisterScheme(name string, scheme Scheme) error {
	if name == "" || scheme == nil {
		return fmt.Errorf("auth: scheme name and implementation are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemes[name]; ok {
		return fmt.Errorf("auth: scheme %q: %w", name, ErrSchemeExists)
	}
	r.schemes[name] = scheme
	return nil
}

// HasScheme reports whether a scheme is installed under name.
func (r *Registry) HasScheme(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemes[name]
	return ok
}

// Strategy builds a strategy named name from the installed scheme and
// registers it. The scheme's factory runs outside the lock.
func (r *Registry) Strategy(name, scheme string, options any) error {
	if name == "" {
		return fmt.Errorf("auth: strategy name is required")
	}
	r.mu.RLock()
	s, ok := r.schemes[scheme]
	_, exists := r.strategies[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("auth: strategy %q: scheme %q: %w", name, scheme, ErrUnknownScheme)
	}
	if exists {
		return fmt.Errorf("auth: strategy %q: %w", name, ErrStrategyExists)
	}

	a, err := s.Strategy(name, options)
	if err != nil {
		return fmt.Errorf("auth: strategy %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("auth: strategy %q: %w", name, ErrStrategyExists)
	}
	r.strategies[name] = strategy{scheme: scheme, authenticator: a}
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the Authenticator registered under the given strategy name.
func (r *Registry) Lookup(name string) (Authenticator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s.authenticator, ok
}

// MustLookup is like Lookup but panics if the strategy is not registered.
func (r *Registry) MustLookup(name string) Authenticator {
	a, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("auth: strategy %q not registered", name))
	}
	return a
}

// SchemeOf returns the scheme a strategy was built from.
func (r *Registry) SchemeOf(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s.scheme, ok
}

// SetDefault sets the default policy. Every strategy it names must already be
// registered and the default can only be set once.
func (r *Registry) SetDefault(policy Policy) error {
	if len(policy.Strategies) == 0 {
		return fmt.Errorf("auth: default policy: %w", ErrEmptyPolicy)
	}
	if policy.Mode == "" {
		policy.Mode = ModeRequired
	}
	if !policy.Mode.Valid() {
		return fmt.Errorf("auth: default policy: unknown mode %q", policy.Mode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defaultPolicy != nil {
		return fmt.Errorf("auth: %w", ErrDefaultExists)
	}
	for _, name := range policy.Strategies {
		if _, ok := r.strategies[name]; !ok {
			return fmt.Errorf("auth: default policy: strategy %q: %w", name, ErrUnknownStrategy)
		}
	}
	p := policy.Clone()
	r.defaultPolicy = &p
	return nil
}

// Default returns a copy of the default policy, if one is set.
func (r *Registry) Default() (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultPolicy == nil {
		return Policy{}, false
	}
	return r.defaultPolicy.Clone(), true
}

// Names returns the registered strategy names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Resolve computes the effective policy of a route: the route's override
// merged over the default policy. ok is false when the result names no
// strategy, in which case the route is not authenticated.
func (r *Registry) Resolve(route *PolicyOverride) (Policy, bool) {
	base, _ := r.Default()
	p := base.Merge(route)
	if p.Mode == "" {
		p.Mode = ModeRequired
	}
	return p, len(p.Strategies) > 0
}

// Authenticate tries the policy's strategies in order and returns the first
// success. Missing and invalid credentials fall through to the next strategy;
// when every strategy rejects the request the returned error wraps
// ErrInvalidCredentials if any strategy saw credentials it rejected, and
// ErrMissingCredentials otherwise. Any other strategy error stops the loop.
func (r *Registry) Authenticate(req *http.Request, policy Policy) (*Result, error) {
	var rejected error
	for _, name := range policy.Strategies {
		if err := req.Context().Err(); err != nil {
			return nil, err
		}
		a, ok := r.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("auth: strategy %q: %w", name, ErrUnknownStrategy)
		}
		creds, err := a.Authenticate(req)
		switch {
		case err == nil:
			return &Result{Strategy: name, Credentials: creds}, nil
		case errors.Is(err, ErrInvalidCredentials):
			rejected = fmt.Errorf("%s: %w", name, err)
		case errors.Is(err, ErrMissingCredentials):
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, fmt.Errorf("auth: strategy %q: %w", name, err)
		}
	}
	if rejected != nil {
		return nil, rejected
	}
	return nil, ErrMissingCredentials
}
