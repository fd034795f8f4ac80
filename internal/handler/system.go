package handlers

import (
	"context"
	"net/http"
	"time"

	"LifeLine/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// HealthCheck 健康检查接口
func (h *Handlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	// 检查数据库连接
	sqlDB, err := h.DB.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
		return
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
		return
	}

	stats := metrics.CollectHostStats(ctx)
	h.Metrics.SetHostUsage(stats)

	body := gin.H{"status": "healthy", "host": stats}
	if h.Hub != nil {
		body["streamClients"] = h.Hub.ClientCount()
	}
	c.JSON(http.StatusOK, body)
}
