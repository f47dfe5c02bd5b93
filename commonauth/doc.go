// Package commonauth is the shared authentication plugin of the newsroom
// services.
//
// From one options object it installs up to three strategies on a host
// (auth.Host):
//
//   - jwt: RS256/RS384/RS512 tokens verified against a base64 public key,
//     sent as "Authorization: Plan3JWT <token>" or "Bearer <token>"
//   - bearer: static tokens sent as "Authorization: Bearer <token>"
//   - plan3Key: static tokens sent as "Authorization: Plan3Key <token>"
//
// and makes the configured strategies the host's default policy, in that
// order. A static token authenticates as {"newsroom": <owner>} plus the
// strategy's additionalCredentials.
//
// Options usually come from a file:
//
//	jwt:
//	  publicKey: MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEA...
//	bearer:
//	  tokens:
//	    3f1c9a: aftonbladet
//	plan3Key:
//	  tokens:
//	    77ab02: svd
//	  additionalCredentials:
//	    scope: read
//	defaultAuth:
//	  mode: try
//
//	raw, err := config.LoadOptions("auth.yml")
//	...
//	if err := srv.Register(ctx, commonauth.New(), raw); err != nil { ... }
package commonauth
