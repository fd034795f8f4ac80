package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware 监控中间件. Paths are labelled by route template so that ids
// in the URL do not explode label cardinality.
func Middleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
