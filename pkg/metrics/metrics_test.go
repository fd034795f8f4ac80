package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAlert("Recorded", time.Second)
		m.RecordProviderSend("msg91", true, time.Millisecond)
		m.RecordASRAttempt("whisper", nil, time.Second)
		m.RecordTranslationFallback("mymemory")
		m.RecordCacheLookup("hospitals", true)
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
	})
}

func TestDomainCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordAlert("Recorded", time.Second)
	m.RecordAlert("Recorded", time.Second)
	m.RecordAlert("RejectedNoContacts", 0)
	m.RecordProviderSend("msg91", false, time.Millisecond)
	m.RecordProviderSkipped("whatsapp", 3)
	m.RecordASRAttempt("deepgram", errors.New("timeout"), time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.alertsTotal.WithLabelValues("Recorded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerSends.WithLabelValues("msg91", "failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.providerSends.WithLabelValues("whatsapp", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.asrAttempts.WithLabelValues("deepgram", "failure")))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/api/hospitals/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/hospitals/"+id, nil))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/hospitals/:id", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}

type probe struct {
	ID   uint
	Name string
}

func TestGormCallbacks(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	m := NewMetrics()
	require.NoError(t, RegisterGormCallbacks(db, m))
	require.NoError(t, db.AutoMigrate(&probe{}))
	require.NoError(t, db.Create(&probe{Name: "a"}).Error)
	var out []probe
	require.NoError(t, db.Find(&out).Error)

	// at least one series each for the insert and the select
	assert.GreaterOrEqual(t, testutil.CollectAndCount(m.dbQueryDuration, "db_query_duration_seconds"), 2)
}

func TestCollectHostStats(t *testing.T) {
	s := CollectHostStats(context.Background())
	assert.Positive(t, s.CPUCount)
	assert.Positive(t, s.Goroutines)
	assert.NotZero(t, s.HeapAlloc)
}
