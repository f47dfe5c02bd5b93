package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plan3/commonauth/version"
)

// Version reports the build of the running binary, plus the
// "<version>-<commit>" form under "short".
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		info := version.GetVersionInfo()
		c.JSON(http.StatusOK, struct {
			*version.Info
			Short string `json:"short"`
		}{info, info.String()})
	}
}
