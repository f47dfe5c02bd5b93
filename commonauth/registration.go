package commonauth

import (
	"context"
	"sync"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/errors"
	"github.com/plan3/commonauth/logger"
)

// State is how far the registration of one kind got.
type State int

const (
	StateUnconfigured State = iota
	StateValidating
	StateRegistering
	StateRegistered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateValidating:
		return "validating"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Registration is the outcome of one Register call.
type Registration struct {
	mu         sync.Mutex
	states     map[Kind]State
	strategies []string
	policy     *auth.Policy
	log        *logger.Logger
}

func newRegistration(log *logger.Logger) *Registration {
	return &Registration{states: make(map[Kind]State, len(Kinds)), log: log}
}

// State returns the state of kind.
func (r *Registration) State(kind Kind) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[kind]
}

// States returns the state of every kind.
func (r *Registration) States() map[Kind]State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Kind]State, len(Kinds))
	for _, k := range Kinds {
		out[k] = r.states[k]
	}
	return out
}

// Strategies returns the registered strategy names in policy order. It is
// empty unless every configured kind registered.
func (r *Registration) Strategies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.strategies...)
}

// Default returns the default policy installed on the host, if any.
func (r *Registration) Default() (auth.Policy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.policy == nil {
		return auth.Policy{}, false
	}
	return r.policy.Clone(), true
}

func (r *Registration) set(kind Kind, state State) {
	r.mu.Lock()
	r.states[kind] = state
	r.mu.Unlock()
	r.log.Debug("strategy state changed", logger.Fields(
		logger.FieldKind, string(kind),
		logger.FieldState, state.String(),
	))
}

// failPending marks every kind that has not finished as failed.
func (r *Registration) failPending() {
	for _, kind := range Kinds {
		switch r.State(kind) {
		case StateValidating, StateRegistering:
			r.set(kind, StateFailed)
		}
	}
}

func (r *Registration) setStrategies(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies = append([]string(nil), names...)
}

func (r *Registration) setDefault(p auth.Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = &p
}

// run moves kind through registering to registered or failed.
func (r *Registration) run(ctx context.Context, kind Kind, task func() error) error {
	if err := ctx.Err(); err != nil {
		r.set(kind, StateFailed)
		return errors.RegistrationFailed(string(kind), err)
	}
	r.set(kind, StateRegistering)
	if err := task(); err != nil {
		r.set(kind, StateFailed)
		return errors.RegistrationFailed(string(kind), err)
	}
	r.set(kind, StateRegistered)
	return nil
}
