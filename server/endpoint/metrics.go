package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

const mb = 1024 * 1024

// Metrics reports runtime memory and goroutine figures. Authentication
// metrics are exported through OpenTelemetry.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb":       m.Alloc / mb,
				"total_alloc_mb": m.TotalAlloc / mb,
				"sys_mb":         m.Sys / mb,
				"gc_runs":        m.NumGC,
			},
		})
	}
}
