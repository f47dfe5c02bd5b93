package jwt

import (
	"context"
	"errors"
	"fmt"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/plan3/commonauth/auth"
)

// SigningMethod defines supported JWT signing algorithms.
type SigningMethod string

const (
	RS256 SigningMethod = "RS256"
	RS384 SigningMethod = "RS384"
	RS512 SigningMethod = "RS512"
	ES256 SigningMethod = "ES256"
	ES384 SigningMethod = "ES384"
	ES512 SigningMethod = "ES512"
)

// Default token transport names.
const (
	DefaultURLKey    = "token"
	DefaultCookieKey = "token"
)

// ValidateFunc decides whether a verified token is acceptable and which
// credentials it yields. Returning nil credentials with ok=true uses the
// token's claims as credentials.
type ValidateFunc func(ctx context.Context, claims gojwt.MapClaims) (creds auth.Credentials, ok bool, err error)

// Config configures one JWT strategy.
type Config struct {
	// Key is the PEM encoded RSA or ECDSA public key. It is parsed on the
	// first request; a key that does not parse rejects every token.
	Key string

	// Algorithms are the accepted signing methods (default: RS256).
	Algorithms []SigningMethod

	// TokenType is an extra Authorization scheme word accepted next to
	// "Bearer", e.g. "Plan3JWT".
	TokenType string

	// URLKey is the query parameter carrying the token (default: "token").
	URLKey string

	// CookieKey is the cookie carrying the token (default: "token").
	CookieKey string

	// HeaderOnly disables the query parameter and cookie transports.
	HeaderOnly bool

	// Issuer is the required "iss" claim (optional).
	Issuer string

	// Audience is the required "aud" claim (optional).
	Audience string

	// Validate runs after signature and time checks. Nil accepts every
	// verified token.
	Validate ValidateFunc
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if len(c.Algorithms) == 0 {
		c.Algorithms = []SigningMethod{RS256}
	}
	if c.URLKey == "" {
		c.URLKey = DefaultURLKey
	}
	if c.CookieKey == "" {
		c.CookieKey = DefaultCookieKey
	}
}

// validate checks the fields a strategy cannot work without. The key
// itself is not parsed here.
func (c *Config) validate() error {
	if c.Key == "" {
		return errors.New("jwt: key is required")
	}
	for _, m := range c.Algorithms {
		if _, err := m.method(); err != nil {
			return err
		}
	}
	return nil
}

// method returns the golang-jwt SigningMethod instance.
func (m SigningMethod) method() (gojwt.SigningMethod, error) {
	switch m {
	case RS256:
		return gojwt.SigningMethodRS256, nil
	case RS384:
		return gojwt.SigningMethodRS384, nil
	case RS512:
		return gojwt.SigningMethodRS512, nil
	case ES256:
		return gojwt.SigningMethodES256, nil
	case ES384:
		return gojwt.SigningMethodES384, nil
	case ES512:
		return gojwt.SigningMethodES512, nil
	default:
		return nil, fmt.Errorf("jwt: unsupported signing method: %s", m)
	}
}

func (c *Config) algorithmNames() []string {
	names := make([]string, len(c.Algorithms))
	for i, m := range c.Algorithms {
		names[i] = string(m)
	}
	return names
}
