package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LifeLine/internal/emergency"
	handlers "LifeLine/internal/handler"
	"LifeLine/internal/listeners"
	"LifeLine/internal/models"
	"LifeLine/internal/store"
	"LifeLine/pkg/backup"
	"LifeLine/pkg/broker"
	"LifeLine/pkg/cache"
	"LifeLine/pkg/config"
	"LifeLine/pkg/i18n"
	"LifeLine/pkg/logger"
	"LifeLine/pkg/metrics"
	"LifeLine/pkg/middleware"
	"LifeLine/pkg/notification"
	"LifeLine/pkg/phone"
	"LifeLine/pkg/scheduler"
	"LifeLine/pkg/sse"
	"LifeLine/pkg/storage"
	"LifeLine/pkg/transcribe"
	"LifeLine/pkg/translate"
	"LifeLine/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(&cfg.Log, cfg.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := util.InitDatabase(cfg.DBDriver, cfg.DSN, cfg.Mode == "debug")
	if err != nil {
		logger.Fatal("init database failed", zap.Error(err))
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}
	if n, err := models.SeedHospitals(db); err != nil {
		logger.Warn("hospital seed failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("seeded hospitals", zap.Int("count", n))
	}

	m := metrics.NewMetrics()
	metrics.SetGlobal(m)
	if err := metrics.RegisterGormCallbacks(db, m); err != nil {
		logger.Warn("gorm metrics disabled", zap.Error(err))
	}

	redisClient, appCache := buildCache(cfg.Cache)
	defer appCache.Close()

	tr, err := i18n.NewI18nSupport("en")
	if err != nil {
		logger.Fatal("load locales failed", zap.Error(err))
	}

	var voice *storage.VoiceArchive
	if objStore, err := storage.New(cfg.Storage); err != nil {
		logger.Warn("voice storage disabled", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	} else {
		voice = storage.NewVoiceArchive(objStore)
	}

	chain := transcribe.BuildChain(cfg.ASR,
		transcribe.WithPlaceholder(func(lang string) string {
			return tr.T(lang, i18n.MsgTranscriptPlaceholder, nil)
		}),
		transcribe.WithAttemptHook(m.RecordASRAttempt),
	)
	gate := translate.BuildGate(cfg.Translate, func(backend string, _ error) {
		m.RecordTranslationFallback(backend)
	})
	providers := notification.BuildProviders(cfg.Notify, cfg.DefaultCountryCode)
	logger.Info("alert pipeline ready",
		zap.Strings("asr", chain.Names()), zap.Int("providers", len(providers)))

	st := store.New(db, appCache, cfg.Cache.HospitalTTL, m)
	deps := emergency.Deps{
		Contacts:    st,
		Medical:     st,
		Hospitals:   st,
		Alerts:      st,
		Transcriber: chain,
		Translator:  gate,
		Dispatcher:  notification.NewDispatcher(cfg.Notify.MaxParallel, cfg.Notify.SendTimeout, m.RecordProviderSend),
		Providers:   providers,
		Phones:      phone.NewNormalizer(cfg.DefaultCountryCode),
		RadiusKm:    cfg.NearbyRadiusKm,
		Signals:     util.Sig(),
		Metrics:     m,
	}
	if voice != nil {
		deps.Voice = voice
	}
	orch := emergency.New(deps)

	hub := sse.NewHub(25*time.Second, 32)
	var pub broker.Publisher
	if cfg.MQTT.Broker != "" {
		client, err := broker.Dial(cfg.MQTT, 10*time.Second)
		if err != nil {
			logger.Warn("mqtt feed disabled", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			pub = client
			defer client.Close()
		}
	}
	listeners.InitAlertListeners(util.Sig(), hub, pub, cfg.MQTT.Topic)

	jobs := startJobs(cfg, db, m)
	defer jobs.Stop()

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	handlers.NewHandlers(handlers.Options{
		Config:       cfg,
		DB:           db,
		Store:        st,
		Orchestrator: orch,
		Voice:        voice,
		Hub:          hub,
		I18n:         tr,
		Metrics:      m,
		Limiter:      buildLimiter(cfg, redisClient, m),
		Idempotency:  appCache,
	}).Register(engine)

	srv := &http.Server{Addr: cfg.Addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigCh:
		logger.Info("shutting down", zap.String("signal", s.String()))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// buildCache returns the shared cache and, for the redis type, the client
// so that the rate limiter can keep its counters next to it.
func buildCache(cfg config.CacheConfig) (*redis.Client, cache.Cache) {
	local := cache.LocalConfig{MaxSize: cfg.MaxSize, DefaultExpiration: 10 * time.Minute}
	if cfg.Type == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			return client, cache.NewRedisCacheFromClient(client, "lifeline:")
		}
		logger.Warn("redis unavailable, using local cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	c, err := cache.NewCache(cache.Config{Type: cfg.Type, Local: local})
	if err != nil {
		logger.Warn("unknown cache type, using local cache", zap.String("type", cfg.Type))
		c = cache.NewLocalCache(local)
	}
	return nil, c
}

func buildLimiter(cfg *config.Config, client *redis.Client, m *metrics.Metrics) *middleware.RateLimiter {
	var store limiter.Store
	if client != nil {
		s, err := middleware.NewRedisStore(client, "")
		if err != nil {
			logger.Warn("redis limiter store unavailable, counting in memory", zap.Error(err))
		} else {
			store = s
		}
	}
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:          cfg.RateLimit,
		PerRouteRates: map[string]string{cfg.APIPrefix + "/emergency": cfg.EmergencyRateLimit},
		Identifier:    "user",
		AddHeaders:    true,
	}, store)
	return rl.WithObserver(middleware.NewPrometheusObserver(m.Registry()))
}

// startJobs registers the housekeeping jobs: stale audio cleanup, host
// gauges and, when enabled, database backups.
func startJobs(cfg *config.Config, db *gorm.DB, m *metrics.Metrics) *scheduler.Cron {
	cr := scheduler.NewCron(time.Local)

	add := func(name, expr string, timeout time.Duration, job scheduler.Job) {
		if _, err := cr.Add(name, expr, timeout, job); err != nil {
			logger.Warn("job not scheduled", zap.String("job", name), zap.String("expr", expr), zap.Error(err))
		}
	}

	add("audio-purge", cfg.AudioPurgeSchedule, time.Minute, scheduler.FuncJob(func(context.Context) error {
		n, err := transcribe.PurgeStale(cfg.ASR.TempDir, time.Hour)
		if n > 0 {
			logger.Info("purged stale audio", zap.Int("files", n))
		}
		return err
	}))
	add("host-stats", scheduler.Every(time.Minute), 30*time.Second, scheduler.FuncJob(func(ctx context.Context) error {
		m.SetHostUsage(metrics.CollectHostStats(ctx))
		return nil
	}))
	if cfg.BackupEnabled {
		b := &backup.Backup{
			DB:     db,
			Driver: cfg.DBDriver,
			DSN:    cfg.DSN,
			Dir:    cfg.BackupPath,
			Keep:   cfg.BackupKeep,
		}
		add("db-backup", cfg.BackupSchedule, 30*time.Minute, scheduler.FuncJob(func(ctx context.Context) error {
			path, err := b.Run(ctx)
			if err == nil {
				logger.Info("database backup written", zap.String("file", path))
			}
			return err
		}))
	}

	cr.Start()
	return cr
}
