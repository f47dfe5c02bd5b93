// Package jwt provides the "jwt" authentication scheme: tokens signed with
// an RSA or ECDSA key and verified with github.com/golang-jwt/jwt/v5
// against a configured public key.
//
// Usage:
//
//	reg := auth.NewRegistry()
//	_ = reg.RegisterScheme(jwt.SchemeName, jwt.Scheme())
//	_ = reg.Strategy("jwt", jwt.SchemeName, &jwt.Config{
//	    Key:        jwt.Base64ToPEM(os.Getenv("JWT_PUBLIC_KEY")),
//	    Algorithms: []jwt.SigningMethod{jwt.RS256, jwt.RS384, jwt.RS512},
//	    TokenType:  "Plan3JWT",
//	})
//
// The token is read from the Authorization header ("Bearer <t>" or
// "<TokenType> <t>"), then the "token" query parameter, then the "token"
// cookie. Accepted requests carry the decoded claims as credentials.
package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/plan3/commonauth/auth"
)

// SchemeName is the name the scheme is conventionally installed under.
const SchemeName = "jwt"

// Scheme returns the JWT scheme. Strategy options must be a *Config or Config.
func Scheme() auth.Scheme {
	return auth.SchemeFunc(func(_ string, options any) (auth.Authenticator, error) {
		var cfg Config
		switch o := options.(type) {
		case *Config:
			if o == nil {
				return nil, fmt.Errorf("%w: nil *jwt.Config", auth.ErrInvalidOptions)
			}
			cfg = *o
		case Config:
			cfg = o
		default:
			return nil, fmt.Errorf("%w: jwt scheme expects *jwt.Config, got %T", auth.ErrInvalidOptions, options)
		}
		return NewAuthenticator(cfg)
	})
}

// Authenticator verifies JWTs for one strategy.
type Authenticator struct {
	cfg Config

	keyOnce sync.Once
	key     any
	keyErr  error
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

// Authenticate implements auth.Authenticator.
func (a *Authenticator) Authenticate(r *http.Request) (auth.Credentials, error) {
	raw := a.extract(r)
	if raw == "" {
		return nil, auth.ErrMissingCredentials
	}
	claims, err := a.Parse(raw)
	if errors.Is(err, gojwt.ErrTokenExpired) {
		return nil, fmt.Errorf("%w: %w", auth.ErrExpiredCredentials, err)
	}
	if err != nil {
		return nil, auth.Reject(err)
	}
	if a.cfg.Validate == nil {
		return auth.Credentials(claims), nil
	}
	creds, ok, err := a.cfg.Validate(r.Context(), claims)
	if err != nil {
		return nil, fmt.Errorf("jwt: validate: %w", err)
	}
	if !ok {
		return nil, auth.Reject(errors.New("jwt: token rejected"))
	}
	if creds == nil {
		creds = auth.Credentials(claims)
	}
	return creds, nil
}

// Parse verifies the signature, algorithm and time claims of a token and
// returns its claims.
func (a *Authenticator) Parse(tokenString string) (gojwt.MapClaims, error) {
	claims := gojwt.MapClaims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, a.keyFunc, a.parserOptions()...)
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("jwt: invalid token")
	}
	return claims, nil
}

// keyFunc is the jwt.Keyfunc used during token parsing.
func (a *Authenticator) keyFunc(*gojwt.Token) (any, error) {
	a.keyOnce.Do(func() {
		a.key, a.keyErr = parsePublicKey(a.cfg.Key)
	})
	return a.key, a.keyErr
}

// parserOptions returns jwt.ParserOption based on config.
func (a *Authenticator) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods(a.cfg.algorithmNames()),
	}
	if a.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(a.cfg.Issuer))
	}
	if a.cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(a.cfg.Audience))
	}
	return opts
}

func parsePublicKey(pemKey string) (any, error) {
	rsaKey, rsaErr := gojwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if rsaErr == nil {
		return rsaKey, nil
	}
	ecKey, ecErr := gojwt.ParseECPublicKeyFromPEM([]byte(pemKey))
	if ecErr == nil {
		return ecKey, nil
	}
	return nil, fmt.Errorf("jwt: parse public key: %w", errors.Join(rsaErr, ecErr))
}
