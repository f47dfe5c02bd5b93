package auth

import (
	"errors"
	"fmt"
)

// Authentication outcomes reported by strategies.
var (
	// ErrMissingCredentials means the request carried nothing the strategy
	// understands; the next strategy in the policy gets a chance.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidCredentials means the request carried credentials the
	// strategy rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials is an ErrInvalidCredentials whose only fault is
	// that it is past its expiry.
	ErrExpiredCredentials = fmt.Errorf("%w: expired", ErrInvalidCredentials)
)

// Registry errors.
var (
	ErrSchemeExists    = errors.New("scheme already registered")
	ErrUnknownScheme   = errors.New("unknown scheme")
	ErrStrategyExists  = errors.New("strategy already registered")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrDefaultExists   = errors.New("default policy already set")
	ErrEmptyPolicy     = errors.New("policy has no strategies")
	ErrInvalidOptions  = errors.New("invalid scheme options")
)

// Reject wraps reason so that errors.Is(err, ErrInvalidCredentials) holds.
func Reject(reason error) error {
	if reason == nil {
		return ErrInvalidCredentials
	}
	return fmt.Errorf("%w: %w", ErrInvalidCredentials, reason)
}

// IsRejection reports whether err is an authentication outcome rather than a
// failure of the strategy itself.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMissingCredentials) || errors.Is(err, ErrInvalidCredentials)
}
