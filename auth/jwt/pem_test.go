package jwt

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase64ToPEMShape(t *testing.T) {
	tests := []struct {
		length    int
		bodyLines int
		lastLine  int
	}{
		{length: 0, bodyLines: 0},
		{length: 1, bodyLines: 1, lastLine: 1},
		{length: 63, bodyLines: 1, lastLine: 63},
		{length: 64, bodyLines: 1, lastLine: 64},
		{length: 65, bodyLines: 2, lastLine: 1},
		{length: 128, bodyLines: 2, lastLine: 64},
		{length: 300, bodyLines: 5, lastLine: 44},
	}
	for _, tt := range tests {
		in := strings.Repeat("A", tt.length)
		out := Base64ToPEM(in)
		lines := strings.Split(out, "\n")

		require.Len(t, lines, tt.bodyLines+2, "length %d", tt.length)
		assert.Equal(t, pemHeader, lines[0])
		assert.Equal(t, pemFooter, lines[len(lines)-1])

		body := lines[1 : len(lines)-1]
		for i, line := range body {
			if i == len(body)-1 {
				assert.Len(t, line, tt.lastLine, "length %d: last line", tt.length)
			} else {
				assert.Len(t, line, pemLineLength, "length %d: line %d", tt.length, i)
			}
		}
		assert.Equal(t, in, strings.Join(body, ""), "round trip for length %d", tt.length)
	}
}

func TestBase64ToPEMEmpty(t *testing.T) {
	assert.Equal(t, pemHeader+"\n"+pemFooter, Base64ToPEM(""))
}

func TestBase64ToPEMMatchesEncoder(t *testing.T) {
	der, err := x509.MarshalPKIXPublicKey(&testRSAKey(t).PublicKey)
	require.NoError(t, err)

	got := Base64ToPEM(base64.StdEncoding.EncodeToString(der))
	want := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	assert.Equal(t, want, got+"\n")

	_, err = gojwt.ParseRSAPublicKeyFromPEM([]byte(got))
	assert.NoError(t, err)
}
