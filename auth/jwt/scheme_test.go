package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plan3/commonauth/auth"
)

var (
	rsaKeyOnce sync.Once
	rsaKey     *rsa.PrivateKey
)

func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	rsaKeyOnce.Do(func() {
		var err error
		rsaKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return rsaKey
}

func publicPEM(t *testing.T, pub any) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	return Base64ToPEM(base64.StdEncoding.EncodeToString(der))
}

func sign(t *testing.T, method gojwt.SigningMethod, key any, claims gojwt.MapClaims) string {
	t.Helper()
	s, err := gojwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() gojwt.MapClaims {
	return gojwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func newPlan3Authenticator(t *testing.T, key string) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(Config{
		Key:        key,
		Algorithms: []SigningMethod{RS256, RS384, RS512},
		TokenType:  "Plan3JWT",
	})
	require.NoError(t, err)
	return a
}

func TestAuthenticateTransports(t *testing.T) {
	key := testRSAKey(t)
	a := newPlan3Authenticator(t, publicPEM(t, &key.PublicKey))
	token := sign(t, gojwt.SigningMethodRS256, key, validClaims())

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }},
		{"token type header", func(r *http.Request) { r.Header.Set("Authorization", "Plan3JWT "+token) }},
		{"token type case-insensitive", func(r *http.Request) { r.Header.Set("Authorization", "plan3jwt "+token) }},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=" + token }},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: token}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			creds, err := a.Authenticate(r)
			require.NoError(t, err)
			assert.Equal(t, "user-1", creds["sub"])
		})
	}
}

func TestAuthenticateAlgorithms(t *testing.T) {
	key := testRSAKey(t)
	a := newPlan3Authenticator(t, publicPEM(t, &key.PublicKey))

	for _, m := range []gojwt.SigningMethod{gojwt.SigningMethodRS384, gojwt.SigningMethodRS512} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+sign(t, m, key, validClaims()))
		_, err := a.Authenticate(r)
		assert.NoError(t, err, m.Alg())
	}
}

func TestAuthenticateMissing(t *testing.T) {
	key := testRSAKey(t)
	a := newPlan3Authenticator(t, publicPEM(t, &key.PublicKey))

	for _, h := range []string{"", "Plan3Key abc", "Bearer", "Basic dXNlcjpwYXNz"} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if h != "" {
			r.Header.Set("Authorization", h)
		}
		_, err := a.Authenticate(r)
		assert.ErrorIs(t, err, auth.ErrMissingCredentials, "header %q", h)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	key := testRSAKey(t)
	a := newPlan3Authenticator(t, publicPEM(t, &key.PublicKey))

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	tests := map[string]string{
		"garbage":        "not-a-jwt",
		"other key":      sign(t, gojwt.SigningMethodRS256, other, validClaims()),
		"hmac":           sign(t, gojwt.SigningMethodHS256, []byte("secret"), validClaims()),
		"expired":        sign(t, gojwt.SigningMethodRS256, key, expired),
		"alg not in set": sign(t, gojwt.SigningMethodPS256, key, validClaims()),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer "+token)
			_, err := a.Authenticate(r)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
			assert.Equal(t, name == "expired", errors.Is(err, auth.ErrExpiredCredentials))
		})
	}
}

func TestUnparsableKeyRejectsEveryToken(t *testing.T) {
	a := newPlan3Authenticator(t, Base64ToPEM("some key"))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+sign(t, gojwt.SigningMethodRS256, testRSAKey(t), validClaims()))
	_, err := a.Authenticate(r)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = a.Authenticate(r)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "second request sees the cached key error")
}

func TestECDSAKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	a, err := NewAuthenticator(Config{Key: publicPEM(t, &key.PublicKey), Algorithms: []SigningMethod{ES256}})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+sign(t, gojwt.SigningMethodES256, key, validClaims()))
	creds, err := a.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, "user-1", creds["sub"])
}

func TestValidateFunc(t *testing.T) {
	key := testRSAKey(t)
	a, err := NewAuthenticator(Config{
		Key: publicPEM(t, &key.PublicKey),
		Validate: func(_ context.Context, claims gojwt.MapClaims) (auth.Credentials, bool, error) {
			if claims["sub"] != "user-1" {
				return nil, false, nil
			}
			return auth.Credentials{"user": claims["sub"]}, true, nil
		},
	})
	require.NoError(t, err)

	accepted := validClaims()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+sign(t, gojwt.SigningMethodRS256, key, accepted))
	creds, err := a.Authenticate(r)
	require.NoError(t, err)
	assert.Equal(t, auth.Credentials{"user": "user-1"}, creds)

	refused := validClaims()
	refused["sub"] = "user-2"
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+sign(t, gojwt.SigningMethodRS256, key, refused))
	_, err = a.Authenticate(r)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestHeaderOnly(t *testing.T) {
	key := testRSAKey(t)
	a, err := NewAuthenticator(Config{Key: publicPEM(t, &key.PublicKey), HeaderOnly: true})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/?token="+sign(t, gojwt.SigningMethodRS256, key, validClaims()), nil)
	_, err = a.Authenticate(r)
	assert.ErrorIs(t, err, auth.ErrMissingCredentials)
}

func TestNewAuthenticatorConfigErrors(t *testing.T) {
	_, err := NewAuthenticator(Config{})
	assert.Error(t, err)

	_, err = NewAuthenticator(Config{Key: "k", Algorithms: []SigningMethod{"HS256"}})
	assert.ErrorContains(t, err, "unsupported signing method")
}

func TestSchemeOptions(t *testing.T) {
	s := Scheme()

	_, err := s.Strategy("jwt", "not a config")
	assert.ErrorIs(t, err, auth.ErrInvalidOptions)

	_, err = s.Strategy("jwt", (*Config)(nil))
	assert.ErrorIs(t, err, auth.ErrInvalidOptions)

	a, err := s.Strategy("jwt", &Config{Key: "k"})
	require.NoError(t, err)
	assert.IsType(t, &Authenticator{}, a)

	_, err = s.Strategy("jwt", Config{Key: "k"})
	assert.NoError(t, err)
}
