package commonauth

import (
	"context"
	"maps"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/auth/bearer"
)

// CredentialNewsroom is the credentials key holding the owner of a static token.
const CredentialNewsroom = "newsroom"

// TokenLookup returns a bearer.ValidateFunc that resolves a token by exact
// key match. A hit yields {"newsroom": owner} with additional spread over
// it, so additional keys win on collision. A miss is a rejection, not an
// error. Both maps are copied; every call returns a fresh credentials map.
func TokenLookup(tokens map[string]string, additional map[string]any) bearer.ValidateFunc {
	tokens = maps.Clone(tokens)
	additional = maps.Clone(additional)
	return func(_ context.Context, token string) (auth.Credentials, bool, error) {
		owner, ok := tokens[token]
		if !ok {
			return nil, false, nil
		}
		creds := make(auth.Credentials, len(additional)+1)
		creds[CredentialNewsroom] = owner
		maps.Copy(creds, additional)
		return creds, true, nil
	}
}
