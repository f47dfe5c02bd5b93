package commonauth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/commonauth"
	apperrors "github.com/plan3/commonauth/errors"
	"github.com/plan3/commonauth/server"
	"github.com/plan3/commonauth/server/testutil"
)

type m = map[string]any

// echoCredentials answers with the request credentials, like a route whose
// handler replies with request.auth.credentials.
func echoCredentials(c *gin.Context) {
	creds, ok := server.CredentialsFrom(c)
	if !ok {
		c.JSON(http.StatusOK, m{})
		return
	}
	c.JSON(http.StatusOK, creds)
}

func startWith(t *testing.T, options m) *testutil.Server {
	t.Helper()
	ts := testutil.New(t)
	require.NoError(t, ts.Server().Register(context.Background(), commonauth.New(), options))
	ts.Server().Route(http.MethodGet, "/", nil, echoCredentials)
	return ts
}

func credentialsOf(t *testing.T, resp testutil.Response) m {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(resp.Body))
	var got m
	require.NoError(t, json.Unmarshal(resp.Body, &got))
	return got
}

func TestAdditionalCredentials(t *testing.T) {
	cases := []struct {
		name       string
		additional any
		want       m
	}{
		{"undefined", nil, m{"newsroom": "test newsroom"}},
		{"empty", m{}, m{"newsroom": "test newsroom"}},
		{"role", m{"role": "test role"}, m{"newsroom": "test newsroom", "role": "test role"}},
	}
	strategies := []struct {
		kind   string
		scheme string
	}{
		{"bearer", "Bearer"},
		{"plan3Key", "Plan3Key"},
	}

	for _, s := range strategies {
		for _, tc := range cases {
			t.Run(s.kind+"/"+tc.name, func(t *testing.T) {
				ts := startWith(t, m{s.kind: m{
					"tokens":                m{"token": "test newsroom"},
					"additionalCredentials": tc.additional,
				}})

				got := credentialsOf(t, ts.Get(t, "/", testutil.Authorization(s.scheme, "token")))
				assert.Equal(t, tc.want, got)
			})
		}
	}
}

func TestUnknownTokenIsRejected(t *testing.T) {
	ts := startWith(t, m{"bearer": m{"tokens": m{"token": "test newsroom"}}})

	resp := ts.Get(t, "/", testutil.Authorization("Bearer", "other"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(resp.Body), string(apperrors.ErrCodeInvalidToken))

	resp = ts.Get(t, "/")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(resp.Body), string(apperrors.ErrCodeUnauthorized))
}

func TestBearerAndPlan3KeyTogether(t *testing.T) {
	ts := startWith(t, m{
		"bearer":   m{"tokens": m{"b1": "bearer newsroom"}},
		"plan3Key": m{"tokens": m{"k1": "key newsroom"}, "additionalCredentials": m{"partner": true}},
	})

	assert.Equal(t, m{"newsroom": "bearer newsroom"},
		credentialsOf(t, ts.Get(t, "/", testutil.Authorization("Bearer", "b1"))))
	assert.Equal(t, m{"newsroom": "key newsroom", "partner": true},
		credentialsOf(t, ts.Get(t, "/", testutil.Authorization("plan3key", "k1"))))

	// Tokens are bound to their scheme word.
	resp := ts.Get(t, "/", testutil.Authorization("Bearer", "k1"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDefaultAuthOverRoutes(t *testing.T) {
	ts := startWith(t, m{
		"bearer":      m{"tokens": m{"b1": "bearer newsroom"}},
		"plan3Key":    m{"tokens": m{"k1": "key newsroom"}},
		"defaultAuth": m{"strategies": []any{"plan3Key"}, "mode": "optional"},
	})
	ts.Server().Route(http.MethodGet, "/bearer", nil, echoCredentials)
	ts.Server().Route(http.MethodGet, "/strict", &auth.PolicyOverride{Mode: auth.ModeRequired}, echoCredentials)

	assert.Equal(t, m{}, credentialsOf(t, ts.Get(t, "/")))
	assert.Equal(t, m{}, credentialsOf(t, ts.Get(t, "/bearer", testutil.Authorization("Bearer", "b1"))),
		"bearer is registered but not part of the default policy")
	assert.Equal(t, http.StatusUnauthorized, ts.Get(t, "/strict").StatusCode)
}

func TestJWTThroughServer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	ts := startWith(t, m{"jwt": m{"publicKey": base64.StdEncoding.EncodeToString(der)}})

	token, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, gojwt.MapClaims{
		"newsroom": "jwt newsroom",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	require.NoError(t, err)

	got := credentialsOf(t, ts.Get(t, "/", testutil.Authorization("Plan3JWT", token)))
	assert.Equal(t, "jwt newsroom", got["newsroom"])

	got = credentialsOf(t, ts.Get(t, "/?token="+token))
	assert.Equal(t, "jwt newsroom", got["newsroom"])

	expired, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, gojwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString(key)
	require.NoError(t, err)
	resp := ts.Get(t, "/", testutil.Authorization("Plan3JWT", expired))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(resp.Body), string(apperrors.ErrCodeTokenExpired))
}

func TestInvalidOptionsFailServerRegistration(t *testing.T) {
	ts := testutil.New(t)
	err := ts.Server().Register(context.Background(), commonauth.New(), m{"bearer": m{"tokens": "user"}})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidConfiguration))
	assert.Empty(t, ts.Server().Auth().Names())
	assert.Empty(t, ts.Server().Plugins())

	require.NoError(t, ts.Server().Register(context.Background(), commonauth.New(), m{"bearer": m{"tokens": m{"user": "n"}}}))
	assert.Equal(t, []string{"bearer"}, ts.Server().Auth().Names())
	assert.Contains(t, ts.Server().Plugins(), commonauth.PluginName)
}

func TestRetryAfterInstallFailureKeepsStrategies(t *testing.T) {
	ts := testutil.New(t)
	reg := ts.Server().Auth()
	require.NoError(t, reg.RegisterScheme("static", auth.SchemeFunc(func(string, any) (auth.Authenticator, error) {
		return auth.AuthenticatorFunc(func(*http.Request) (auth.Credentials, error) {
			return nil, auth.ErrMissingCredentials
		}), nil
	})))
	require.NoError(t, reg.Strategy("static", "static", nil))
	require.NoError(t, reg.SetDefault(auth.Policy{Strategies: []string{"static"}}))

	opts := m{"bearer": m{"tokens": m{"user": "n"}}}
	err := ts.Server().Register(context.Background(), commonauth.New(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrDefaultExists)
	assert.Empty(t, ts.Server().Plugins())
	assert.Contains(t, reg.Names(), "bearer")

	err = ts.Server().Register(context.Background(), commonauth.New(), opts)
	assert.ErrorIs(t, err, auth.ErrSchemeExists)
}

func TestPluginRegistersOncePerServer(t *testing.T) {
	ts := startWith(t, m{"bearer": m{"tokens": m{"token": "n"}}})
	err := ts.Server().Register(context.Background(), commonauth.New(), m{"plan3Key": m{"tokens": m{"token": "n"}}})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadyRegistered))
}
