package middleware

import (
	"context"
	"time"

	"LifeLine/internal/models"
	"LifeLine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OperationLogMiddleware 记录操作日志. The row is written after the
// handler returns so status and latency are known; a failed write is
// logged and never affects the response.
func OperationLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := BuildRequestLog(c, time.Since(start))
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
		defer cancel()
		if err := models.CreateRequestLog(db.WithContext(ctx), entry); err != nil {
			logger.Warn("request log not written", zap.String("target", entry.Target), zap.Error(err))
		}
	}
}

// BuildRequestLog captures the audited fields of a finished request.
func BuildRequestLog(c *gin.Context, latency time.Duration) *models.RequestLog {
	target := c.FullPath()
	if target == "" {
		target = c.Request.URL.Path
	}

	rawUA := c.GetHeader("User-Agent")
	ua := user_agent.New(rawUA)
	browser, version := ua.Browser()
	if version != "" {
		browser += " " + version
	}

	return &models.RequestLog{
		UserID:          models.CurrentUserID(c),
		Action:          c.Request.Method,
		Target:          target,
		Status:          c.Writer.Status(),
		LatencyMs:       latency.Milliseconds(),
		IPAddress:       c.ClientIP(),
		UserAgent:       truncate(rawUA, 512),
		Referer:         truncate(c.GetHeader("Referer"), 512),
		Device:          ua.Platform(),
		Browser:         truncate(browser, 128),
		OperatingSystem: truncate(ua.OS(), 128),
		Mobile:          ua.Mobile(),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
