package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"LifeLine/internal/models"
	"LifeLine/pkg/cache"
	"LifeLine/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 决定一段时间内重复请求的拒绝窗口
	Store      cache.Cache
}

// IdempotencyMiddleware rejects a repeated Idempotency-Key from the same
// user within TTL. Requests without the header always pass, so a user can
// raise a second alert on purpose. A request that ends with a 4xx or 5xx
// releases its key and may be retried with the same one.
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Store == nil {
		cfg.Store = cache.NewGoCache(cache.LocalConfig{})
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			c.Next()
			return
		}
		scoped := "idem:" + models.CurrentUserID(c) + ":" + c.FullPath() + ":" + key

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		ok, err := cfg.Store.SetNX(ctx, scoped, []byte{1}, cfg.TTL)
		cancel()
		if err != nil {
			// 存储不可用时放行
			logger.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			// 失败的请求释放 key，允许客户端用同一个 key 重试
			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), time.Second)
			defer cancel()
			if err := cfg.Store.Delete(ctx, scoped); err != nil {
				logger.Warn("idempotency key release failed", zap.String("key", scoped), zap.Error(err))
			}
		}
	}
}
