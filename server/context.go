package server

import (
	"github.com/gin-gonic/gin"

	"github.com/plan3/commonauth/auth"
	"github.com/plan3/commonauth/auth/authctx"
)

// CredentialsFrom returns the credentials of an authenticated request.
func CredentialsFrom(c *gin.Context) (auth.Credentials, bool) {
	return authctx.Credentials(c.Request.Context())
}

// StrategyFrom returns the strategy that authenticated the request.
func StrategyFrom(c *gin.Context) (string, bool) {
	return authctx.Strategy(c.Request.Context())
}
