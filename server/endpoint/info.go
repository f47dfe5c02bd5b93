package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plan3/commonauth/version"
)

var startTime = time.Now()

// Info reports service, version and uptime along with the registered
// plugins and their versions.
func Info(serviceName string, plugins func() map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.GetVersionInfo()
		body := gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"go_version": v.GoVersion,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		}
		if plugins != nil {
			body["plugins"] = plugins()
		}
		c.JSON(http.StatusOK, body)
	}
}
