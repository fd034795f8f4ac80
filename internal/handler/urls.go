package handlers

import (
	"time"

	"LifeLine/internal/emergency"
	"LifeLine/internal/store"
	"LifeLine/pkg/cache"
	"LifeLine/pkg/config"
	"LifeLine/pkg/i18n"
	"LifeLine/pkg/metrics"
	"LifeLine/pkg/middleware"
	"LifeLine/pkg/sse"
	"LifeLine/pkg/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Options carries everything the HTTP layer needs. Voice, Hub, Limiter
// and Idempotency may be nil.
type Options struct {
	Config       *config.Config
	DB           *gorm.DB
	Store        *store.Store
	Orchestrator *emergency.Orchestrator
	Voice        *storage.VoiceArchive
	Hub          *sse.Hub
	I18n         *i18n.I18nSupport
	Metrics      *metrics.Metrics
	Limiter      *middleware.RateLimiter
	Idempotency  cache.Cache
}

type Handlers struct {
	Options
}

func NewHandlers(opts Options) *Handlers {
	return &Handlers{Options: opts}
}

func (h *Handlers) Register(engine *gin.Engine) {
	engine.Use(metrics.Middleware(h.Metrics))
	if h.Metrics != nil && h.Config.MonitorPrefix != "" {
		engine.GET(h.Config.MonitorPrefix, gin.WrapH(h.Metrics.Handler()))
	}

	r := engine.Group(h.Config.APIPrefix)

	// Register Global Singleton DB
	r.Use(middleware.InjectDB(h.DB))
	if h.I18n != nil {
		r.Use(middleware.LanguageMiddleware(h.I18n))
	}

	// 公共接口：健康检查、医院查询与医院端回执
	h.registerSystemRoutes(r)
	h.registerHospitalRoutes(r)

	// 医院看板：管理员或医院账号
	feed := r.Group("")
	feed.Use(middleware.AuthRequired(h.Config.AuthSecret),
		middleware.RequireRole(middleware.RoleAdmin, middleware.RoleHospital))
	h.registerHospitalFeedRoutes(feed)

	// 以下接口需要登录
	authed := r.Group("")
	authed.Use(middleware.AuthRequired(h.Config.AuthSecret))
	if h.Limiter != nil {
		authed.Use(h.Limiter.Middleware())
	}
	authed.Use(middleware.OperationLogMiddleware(h.DB))

	h.registerEmergencyRoutes(authed)
	h.registerHistoryRoutes(authed)
	h.registerContactRoutes(authed)
	h.registerMedicalRoutes(authed)
	h.registerHospitalAdminRoutes(authed)
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.GET("/health", h.HealthCheck)
	}
}

func (h *Handlers) registerHospitalRoutes(r *gin.RouterGroup) {
	hospitals := r.Group("hospitals")
	{
		hospitals.GET("", h.handleListHospitals)

		hospitals.GET("/nearby", h.handleNearbyHospitals)

		hospitals.GET("/:id", h.handleGetHospital)

		hospitals.POST("/:id/acknowledge", h.handleAcknowledgeAlert)

		hospitals.POST("/:id/emergency-response", h.handleAcknowledgeAlert)
	}
}

func (h *Handlers) registerHospitalFeedRoutes(r *gin.RouterGroup) {
	r.GET("/hospitals/:id/stream", h.handleHospitalStream)
}

// registerHospitalAdminRoutes 医院增改停用，仅管理员
func (h *Handlers) registerHospitalAdminRoutes(r *gin.RouterGroup) {
	hospitals := r.Group("hospitals", middleware.RequireRole(middleware.RoleAdmin))
	{
		hospitals.POST("", h.handleCreateHospital)

		hospitals.PUT("/:id", h.handleUpdateHospital)

		hospitals.DELETE("/:id", h.handleDeactivateHospital)
	}
}

func (h *Handlers) registerEmergencyRoutes(r *gin.RouterGroup) {
	idem := middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{
		TTL:   10 * time.Minute,
		Store: h.Idempotency,
	})
	r.POST("/emergency", idem, h.handleRaiseEmergency)
}

func (h *Handlers) registerHistoryRoutes(r *gin.RouterGroup) {
	history := r.Group("emergency-history")
	{
		history.GET("", h.handleListAlerts)

		history.GET("/export", h.handleExportAlerts)

		history.GET("/:id", h.handleGetAlert)
	}
}

func (h *Handlers) registerContactRoutes(r *gin.RouterGroup) {
	contacts := r.Group("contacts")
	{
		contacts.GET("", h.handleListContacts)

		contacts.POST("", h.handleCreateContact)

		contacts.PUT("", h.handleUpdateContact)

		contacts.DELETE("", h.handleDeleteContact)
	}
}

func (h *Handlers) registerMedicalRoutes(r *gin.RouterGroup) {
	medical := r.Group("medical")
	{
		medical.GET("", h.handleGetMedical)

		medical.PUT("", h.handleUpdateMedical)
	}
}
