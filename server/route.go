package server

import (
	"github.com/gin-gonic/gin"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/server/middleware"
)

// Public is a route policy that disables authentication.
func Public() *auth.PolicyOverride {
	return &auth.PolicyOverride{Strategies: []string{}}
}

// Authenticate returns the authentication middleware for a route policy.
// A nil policy uses the server default.
func (s *Server) Authenticate(policy *auth.PolicyOverride) gin.HandlerFunc {
	return middleware.Authenticate(s.registry, policy,
		middleware.WithAuthMetrics(s.authMetrics),
		middleware.WithAuthLogger(s.log),
	)
}

// Route registers handlers behind authentication with the given policy
// override, followed by the rate limiter when one is configured.
func (s *Server) Route(method, path string, policy *auth.PolicyOverride, handlers ...gin.HandlerFunc) gin.IRoutes {
	return s.engine.Handle(method, path, s.chain(policy, handlers)...)
}

// Group creates a route group whose routes share one policy override.
func (s *Server) Group(path string, policy *auth.PolicyOverride, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(path, s.chain(policy, handlers)...)
}

func (s *Server) chain(policy *auth.PolicyOverride, handlers []gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(handlers)+2)
	chain = append(chain, s.Authenticate(policy))
	if s.limiter != nil {
		chain = append(chain, s.limiter)
	}
	return append(chain, handlers...)
}
