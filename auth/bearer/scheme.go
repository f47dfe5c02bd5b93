// Package bearer provides the "bearer-access-token" scheme: an opaque token
// carried as "Authorization: <TokenType> <token>" and checked by a
// caller-supplied ValidateFunc.
//
// One installed scheme serves any number of strategies; each strategy picks
// its own token type, so "Bearer abc" and "Plan3Key abc" reach different
// lookups.
package bearer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/plan3/commonauth/auth"
)

// SchemeName is the name the scheme is conventionally installed under.
const SchemeName = "bearer-access-token"

// DefaultTokenType is the Authorization scheme word used when Config.TokenType is empty.
const DefaultTokenType = "Bearer"

// DefaultAccessTokenName is the query parameter read when AllowQueryToken is set.
const DefaultAccessTokenName = "access_token"

// ErrUnknownToken is the rejection reason for tokens the ValidateFunc refused.
var ErrUnknownToken = errors.New("bearer: unknown token")

// ValidateFunc resolves a token to credentials. ok=false rejects the token;
// a non-nil error is a failure of the lookup itself.
type ValidateFunc func(ctx context.Context, token string) (creds auth.Credentials, ok bool, err error)

// Config configures one bearer strategy.
type Config struct {
	// TokenType is the Authorization scheme word, matched case-insensitively
	// (default: "Bearer").
	TokenType string

	// AllowQueryToken also accepts the token from the AccessTokenName query
	// parameter.
	AllowQueryToken bool

	// AccessTokenName is the query parameter name (default: "access_token").
	AccessTokenName string

	// Validate resolves tokens. Required.
	Validate ValidateFunc
}

func (c *Config) applyDefaults() {
	if c.TokenType == "" {
		c.TokenType = DefaultTokenType
	}
	if c.AccessTokenName == "" {
		c.AccessTokenName = DefaultAccessTokenName
	}
}

func (c *Config) validate() error {
	if c.Validate == nil {
		return errors.New("bearer: validate function is required")
	}
	if strings.ContainsAny(c.TokenType, " \t") {
		return fmt.Errorf("bearer: token type %q must be a single word", c.TokenType)
	}
	return nil
}

// Scheme returns the bearer scheme. Strategy options must be a *Config or Config.
func Scheme() auth.Scheme {
	return auth.SchemeFunc(func(_ string, options any) (auth.Authenticator, error) {
		var cfg Config
		switch o := options.(type) {
		case *Config:
			if o == nil {
				return nil, fmt.Errorf("%w: nil *bearer.Config", auth.ErrInvalidOptions)
			}
			cfg = *o
		case Config:
			cfg = o
		default:
			return nil, fmt.Errorf("%w: bearer scheme expects *bearer.Config, got %T", auth.ErrInvalidOptions, options)
		}
		return NewAuthenticator(cfg)
	})
}

// Authenticator checks opaque tokens for one strategy.
type Authenticator struct {
	cfg Config
}

var _ auth.Authenticator = (*Authenticator)(nil)

// NewAuthenticator creates an Authenticator from cfg.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Authenticator{cfg: cfg}, nil
}

// TokenType returns the Authorization scheme word this strategy answers to.
func (a *Authenticator) TokenType() string {
	return a.cfg.TokenType
}

// Authenticate implements auth.Authenticator.
func (a *Authenticator) Authenticate(r *http.Request) (auth.Credentials, error) {
	token := a.extract(r)
	if token == "" {
		return nil, auth.ErrMissingCredentials
	}
	creds, ok, err := a.cfg.Validate(r.Context(), token)
	if err != nil {
		return nil, fmt.Errorf("bearer: validate: %w", err)
	}
	if !ok {
		return nil, auth.Reject(ErrUnknownToken)
	}
	return creds, nil
}

func (a *Authenticator) extract(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.Fields(h)
		if len(parts) == 2 && strings.EqualFold(parts[0], a.cfg.TokenType) {
			return parts[1]
		}
		return ""
	}
	if a.cfg.AllowQueryToken {
		return r.URL.Query().Get(a.cfg.AccessTokenName)
	}
	return ""
}
