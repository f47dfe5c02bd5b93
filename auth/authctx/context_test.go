package authctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plan3/commonauth/auth"
)

func TestCredentialsRoundTrip(t *testing.T) {
	ctx := WithCredentials(context.Background(), "plan3Key", auth.Credentials{"newsroom": "aftonbladet"})

	creds, ok := Credentials(ctx)
	require.True(t, ok)
	assert.Equal(t, "aftonbladet", creds["newsroom"])

	name, ok := Strategy(ctx)
	require.True(t, ok)
	assert.Equal(t, "plan3Key", name)
}

func TestCredentialsMissing(t *testing.T) {
	_, ok := Credentials(context.Background())
	assert.False(t, ok)

	_, err := MustCredentials(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, ok = Strategy(context.Background())
	assert.False(t, ok)
}

type principal struct{ Newsroom string }

func TestSetGet(t *testing.T) {
	ctx := Set(context.Background(), &principal{Newsroom: "svd"})

	p, ok := Get[*principal](ctx)
	require.True(t, ok)
	assert.Equal(t, "svd", p.Newsroom)

	_, ok = Get[string](ctx)
	assert.False(t, ok, "wrong type must not match")

	_, ok = Credentials(ctx)
	assert.False(t, ok, "Set must not populate credentials")
}
