// Package server hosts authentication plugins behind a Gin HTTP server
// served over HTTP/1.1 and h2c.
//
// A plugin registers once per server and installs schemes and strategies
// into the server's auth.Registry:
//
//	srv := server.New(cfg, log)
//	srv.ApplyDefaults("newsroom-api", components.HealthAll)
//	if err := srv.Register(ctx, commonauth.New(), options); err != nil {
//		return err
//	}
//
// Routes choose their strategies through a policy override; nil uses the
// default policy and Public disables authentication:
//
//	srv.Route(http.MethodGet, "/articles", nil, listArticles)
//	srv.Route(http.MethodGet, "/feeds", &auth.PolicyOverride{Strategies: []string{"plan3Key"}}, feeds)
//
// Handlers read the credentials with CredentialsFrom or authctx.Credentials.
//
// # Middleware
//
// Built-in middleware (server/middleware): Recovery, RequestID,
// GinRequestLogger, CORS, BodySizeLimit, RateLimit and Authenticate.
//
// # Endpoints
//
// Built-in endpoints (server/endpoint): /health, /info, /metrics and /version.
package server
