package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"LifeLine/internal/emergency"
	"LifeLine/internal/listeners"
	"LifeLine/internal/models"
	"LifeLine/internal/store"
	"LifeLine/pkg/cache"
	"LifeLine/pkg/config"
	"LifeLine/pkg/i18n"
	"LifeLine/pkg/metrics"
	"LifeLine/pkg/middleware"
	"LifeLine/pkg/notification"
	"LifeLine/pkg/phone"
	"LifeLine/pkg/sse"
	"LifeLine/pkg/storage"
	"LifeLine/pkg/transcribe"
	"LifeLine/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

type smsStub struct {
	mu   sync.Mutex
	sent []string
}

func (s *smsStub) Name() string { return "sms" }
func (s *smsStub) Ready() bool  { return true }

func (s *smsStub) Send(_ context.Context, phone, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, phone)
	return fmt.Sprintf("msg-%d", len(s.sent)), nil
}

func (s *smsStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	sms    *smsStub
	hub    *sse.Hub
	token  string
	admin  string
}

func newEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	db, err := util.InitDatabase("sqlite", "", false)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	_, err = models.SeedHospitals(db)
	require.NoError(t, err)

	cfg := &config.Config{
		APIPrefix:          "/api",
		MonitorPrefix:      "/metrics",
		AuthSecret:         secret,
		DefaultCountryCode: "91",
		NearbyRadiusKm:     5,
		MaxVoiceBytes:      1 << 20,
	}
	for _, fn := range tweak {
		fn(cfg)
	}

	local, err := storage.NewLocalStore(t.TempDir(), "http://files.test/voice")
	require.NoError(t, err)
	voice := storage.NewVoiceArchive(local)
	tr, err := i18n.NewI18nSupport("en")
	require.NoError(t, err)

	m := metrics.NewMetrics()
	st := store.New(db, cache.NewLocalCache(cache.LocalConfig{}), time.Minute, m)
	sms := &smsStub{}
	sig := util.NewSignals()
	hub := sse.NewHub(time.Minute, 16)
	listeners.InitAlertListeners(sig, hub, nil, "")

	orch := emergency.New(emergency.Deps{
		Contacts:    st,
		Medical:     st,
		Hospitals:   st,
		Alerts:      st,
		Voice:       voice,
		Transcriber: transcribe.NewChain(nil),
		Dispatcher:  notification.NewDispatcher(0, time.Second, nil),
		Providers:   []notification.Provider{sms},
		Phones:      phone.NewNormalizer(cfg.DefaultCountryCode),
		RadiusKm:    cfg.NearbyRadiusKm,
		Signals:     sig,
		Metrics:     m,
	})

	engine := gin.New()
	NewHandlers(Options{
		Config:       cfg,
		DB:           db,
		Store:        st,
		Orchestrator: orch,
		Voice:        voice,
		Hub:          hub,
		I18n:         tr,
		Metrics:      m,
		Idempotency:  cache.NewGoCache(cache.LocalConfig{}),
	}).Register(engine)

	token, err := middleware.IssueToken(secret, "u1", "Asha", "asha@example.com", time.Hour)
	require.NoError(t, err)
	admin, err := middleware.IssueClaims(secret, middleware.Claims{Role: middleware.RoleAdmin}, "ops", time.Hour)
	require.NoError(t, err)
	return &testEnv{engine: engine, db: db, sms: sms, hub: hub, token: token, admin: admin}
}

func hospitalToken(t *testing.T, id uint) string {
	t.Helper()
	tok, err := middleware.IssueClaims(secret, middleware.Claims{Role: middleware.RoleHospital, HospitalID: id}, fmt.Sprintf("h%d", id), time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	return e.doAs(e.token, method, path, body, headers...)
}

func (e *testEnv) doAs(token, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

type emergencyBody struct {
	OK        bool          `json:"ok"`
	Emergency emergencyView `json:"emergency"`
}

func (e *testEnv) addContacts(t *testing.T, phones ...string) {
	t.Helper()
	for i, p := range phones {
		w := e.do(http.MethodPost, "/api/contacts", gin.H{"name": fmt.Sprintf("c%d", i), "phone": p})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}

func TestAuthRequiredOnPrivateRoutes(t *testing.T) {
	env := newEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/hospitals", nil)
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEmergencyWithoutContacts(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No emergency contacts found. Please add emergency contacts first.", decode[errorBody](t, w).Error)
	assert.Zero(t, env.sms.count())

	var n int64
	require.NoError(t, env.db.Model(&models.AlertRecord{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestEmergencyWithoutUsablePhones(t *testing.T) {
	env := newEnv(t)
	env.addContacts(t, "not a number")
	w := env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No valid phone numbers found in emergency contacts.", decode[errorBody](t, w).Error)
	assert.Zero(t, env.sms.count())
}

func TestEmergencyTextAlert(t *testing.T) {
	env := newEnv(t)
	env.addContacts(t, "9876543210", "+14155552671")

	w := env.do(http.MethodPost, "/api/emergency", gin.H{
		"message":  "help",
		"location": "12.9716,77.6412",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[emergencyBody](t, w)
	assert.True(t, body.OK)

	em := body.Emergency
	assert.Equal(t, alertReceived, em.Message)
	assert.True(t, em.Recorded)
	assert.Equal(t, models.AlertStatusSent, em.Status)
	assert.Equal(t, 2, em.SentCount)
	assert.Equal(t, "help", em.Transcript)
	assert.Equal(t, "help", em.TranslatedTranscript)
	assert.Equal(t, "en", em.DetectedLanguage)
	assert.Nil(t, em.Voice)
	require.Len(t, em.Contacts, 2)
	assert.Equal(t, "9876543210", em.Contacts[0].Phone)
	require.NotEmpty(t, em.NearbyHospitals)
	assert.Equal(t, "Bangalore Emergency Hospital", em.NearbyHospitals[0].Name)
	assert.Equal(t, 0.0, em.NearbyHospitals[0].Distance)
	assert.Equal(t, "Asha", em.PatientInfo.Name)
	assert.Equal(t, "asha@example.com", em.PatientInfo.Email)
	assert.Equal(t, models.UnknownBloodType, em.PatientInfo.MedicalDetails.BloodType)
	assert.ElementsMatch(t, []string{"+919876543210", "+14155552671"}, env.sms.sent)

	w = env.do(http.MethodGet, "/api/emergency-history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]models.AlertRecord](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, em.Reference, history[0].Reference)
	assert.NotEmpty(t, history[0].NearbyHospitalIDs)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/emergency-history/%d", em.AlertID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"acknowledgements":[]`)

	w = env.do(http.MethodGet, "/api/emergency-history/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Alert not found", decode[errorBody](t, w).Error)
}

func TestEmergencyLocalizedRejection(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodPost, "/api/emergency?lang=hi", gin.H{"message": "help"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "कोई आपातकालीन संपर्क नहीं मिला। कृपया पहले आपातकालीन संपर्क जोड़ें।", decode[errorBody](t, w).Error)
}

func voiceRequest(t *testing.T, token string, fields map[string]string, clip []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("voice", "clip.webm")
	require.NoError(t, err)
	_, err = fw.Write(clip)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/emergency", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestEmergencyVoiceUpload(t *testing.T) {
	env := newEnv(t)
	env.addContacts(t, "9876543210")

	req := voiceRequest(t, env.token, map[string]string{"message": "help", "language": "en"}, []byte("\x1aE\xdf\xa3webm"))
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	em := decode[emergencyBody](t, w).Emergency
	require.NotNil(t, em.Voice)
	assert.True(t, strings.HasPrefix(em.Voice.Reference, "voice/u1/"))
	assert.True(t, strings.HasPrefix(em.Voice.URL, "http://files.test/voice/voice/u1/"))
	assert.Equal(t, 8, em.Voice.Size)
	assert.Equal(t, transcribe.DefaultPlaceholder, em.Transcript)
	assert.Equal(t, 0.0, em.Confidence)
}

func TestEmergencyVoiceTooLarge(t *testing.T) {
	env := newEnv(t, func(c *config.Config) { c.MaxVoiceBytes = 4 })
	env.addContacts(t, "9876543210")

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, voiceRequest(t, env.token, nil, []byte("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, env.sms.count())
}

func TestEmergencyIdempotencyKey(t *testing.T) {
	env := newEnv(t)
	env.addContacts(t, "9876543210")

	first := env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"}, "Idempotency-Key", "tap-1")
	require.Equal(t, http.StatusOK, first.Code)
	second := env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"}, "Idempotency-Key", "tap-1")
	assert.Equal(t, http.StatusConflict, second.Code)
	third := env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"})
	assert.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, 2, env.sms.count())
}

func TestEmergencyRetryAfterRejectionWithSameKey(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"}, "Idempotency-Key", "tap-2")
	require.Equal(t, http.StatusBadRequest, w.Code)

	env.addContacts(t, "9876543210")
	w = env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"}, "Idempotency-Key", "tap-2")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, env.sms.count())

	w = env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"}, "Idempotency-Key", "tap-2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, env.sms.count())
}

func TestNearbyHospitals(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodGet, "/api/hospitals/nearby?latitude=12.9716&longitude=77.6412", nil)
	require.Equal(t, http.StatusOK, w.Code)
	near := decode[[]nearbyHospital](t, w)
	require.NotEmpty(t, near)
	assert.Equal(t, "Bangalore Emergency Hospital", near[0].Name)
	for i := 1; i < len(near); i++ {
		assert.LessOrEqual(t, near[i-1].Distance, near[i].Distance)
		assert.LessOrEqual(t, near[i].Distance, 5.0)
	}

	w = env.do(http.MethodGet, "/api/hospitals/nearby?latitude=12.9716&longitude=77.6412&radius=1000", nil)
	assert.Len(t, decode[[]nearbyHospital](t, w), 8)

	w = env.do(http.MethodGet, "/api/hospitals/nearby?latitude=12.9716", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "latitude and longitude required", decode[errorBody](t, w).Error)
}

func TestHospitalAdmin(t *testing.T) {
	env := newEnv(t)

	// warm the hospital cache
	require.Len(t, decode[[]models.Hospital](t, env.do(http.MethodGet, "/api/hospitals", nil)), 8)

	payload := gin.H{"name": "Jayadeva", "email": "jd@hospital.com", "phone": "080-1",
		"address": "Jayanagar", "latitude": 12.91, "longitude": 77.59}
	w := env.doAs(env.admin, http.MethodPost, "/api/hospitals", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		OK       bool            `json:"ok"`
		Hospital models.Hospital `json:"hospital"`
	}](t, w)
	assert.True(t, created.Hospital.IsActive)
	require.Len(t, decode[[]models.Hospital](t, env.do(http.MethodGet, "/api/hospitals", nil)), 9)

	w = env.doAs(env.admin, http.MethodPost, "/api/hospitals", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.doAs(env.admin, http.MethodPost, "/api/hospitals", gin.H{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := fmt.Sprintf("/api/hospitals/%d", created.Hospital.ID)
	w = env.doAs(env.admin, http.MethodPut, path, gin.H{"bedsAvailable": 14})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bedsAvailable":14`)

	w = env.doAs(env.admin, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hospital deactivated")
	assert.Len(t, decode[[]models.Hospital](t, env.do(http.MethodGet, "/api/hospitals", nil)), 8)

	w = env.do(http.MethodGet, "/api/hospitals/4242", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Hospital not found", decode[errorBody](t, w).Error)
}

func TestHospitalRoutesRequireRole(t *testing.T) {
	env := newEnv(t)

	payload := gin.H{"name": "Jayadeva", "email": "jd@hospital.com", "phone": "080-1",
		"address": "Jayanagar", "latitude": 12.91, "longitude": 77.59}
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/hospitals", payload).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPut, "/api/hospitals/1", gin.H{"bedsAvailable": 0}).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/hospitals/1", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.doAs(hospitalToken(t, 1), http.MethodDelete, "/api/hospitals/1", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.doAs("", http.MethodDelete, "/api/hospitals/1", nil).Code)
	assert.Len(t, decode[[]models.Hospital](t, env.do(http.MethodGet, "/api/hospitals", nil)), 8)

	assert.Equal(t, http.StatusUnauthorized, env.doAs("", http.MethodGet, "/api/hospitals/1/stream", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/hospitals/1/stream", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.doAs(hospitalToken(t, 2), http.MethodGet, "/api/hospitals/1/stream", nil).Code)
}

func TestHospitalAcknowledgement(t *testing.T) {
	env := newEnv(t)
	env.addContacts(t, "9876543210")
	em := decode[emergencyBody](t, env.do(http.MethodPost, "/api/emergency", gin.H{"location": "12.9716,77.6412"})).Emergency
	require.NotZero(t, em.AlertID)

	w := env.do(http.MethodPost, "/api/hospitals/1/acknowledge", gin.H{"alertId": em.AlertID, "status": "responded", "responseTime": 8})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(http.MethodPost, "/api/hospitals/1/emergency-response", gin.H{"alertId": em.AlertID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/api/hospitals/1/acknowledge", gin.H{"alertId": em.AlertID, "status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/api/hospitals/1/acknowledge", gin.H{"alertId": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	acks, err := models.ListAcknowledgements(env.db, em.AlertID)
	require.NoError(t, err)
	require.Len(t, acks, 2)
	assert.Equal(t, models.AckResponded, acks[0].Status)
	assert.Equal(t, models.AckAcknowledged, acks[1].Status)
}

func TestContactsCRUD(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodPost, "/api/contacts", gin.H{"name": "Ma", "phone": "9876543210", "relationship": "mother"})
	require.Equal(t, http.StatusCreated, w.Code)
	c := decode[models.Contact](t, w)
	assert.Equal(t, "mother", c.Relation)

	w = env.do(http.MethodPost, "/api/contacts", gin.H{"name": "Pa", "phone": "9876543211", "priority": 5})
	require.Equal(t, http.StatusCreated, w.Code)

	list := decode[[]models.Contact](t, env.do(http.MethodGet, "/api/contacts", nil))
	require.Len(t, list, 2)
	assert.Equal(t, "Pa", list[0].Name)

	w = env.do(http.MethodPost, "/api/contacts", gin.H{"name": "nobody"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Name and phone required", decode[errorBody](t, w).Error)

	w = env.do(http.MethodPut, "/api/contacts", gin.H{"id": c.ID, "name": "Mom", "phone": "9876543210", "priority": 9})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Mom", decode[models.Contact](t, w).Name)

	w = env.do(http.MethodDelete, "/api/contacts", gin.H{"id": c.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	w = env.do(http.MethodDelete, "/api/contacts", gin.H{"id": c.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMedicalProfile(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodGet, "/api/medical", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[models.MedicalInfo](t, w)
	assert.Equal(t, "u1", info.UserID)
	assert.Equal(t, models.UnknownBloodType, info.BloodType)
	assert.NotNil(t, info.Allergies)

	w = env.do(http.MethodPut, "/api/medical", gin.H{"bloodType": "Z+"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/medical", gin.H{"bloodType": "AB-", "allergies": []string{"latex"}, "organDonor": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":true`)

	info = decode[models.MedicalInfo](t, env.do(http.MethodGet, "/api/medical", nil))
	assert.Equal(t, "AB-", info.BloodType)
	assert.Equal(t, []string{"latex"}, info.Allergies)
	assert.True(t, info.OrganDonor)

	env.addContacts(t, "9876543210")
	em := decode[emergencyBody](t, env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"})).Emergency
	assert.Equal(t, "AB-", em.PatientInfo.MedicalDetails.BloodType)
}

func TestExportHistory(t *testing.T) {
	env := newEnv(t)
	env.addContacts(t, "9876543210")
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help"}).Code)
	}

	w := env.do(http.MethodGet, "/api/emergency-history/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Reference", rows[0][0])
	assert.Equal(t, models.AlertStatusSent, rows[1][2])
}

func TestHealthAndMetrics(t *testing.T) {
	env := newEnv(t)

	w := env.do(http.MethodGet, "/api/system/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	w = env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestHospitalStreamReceivesAlerts(t *testing.T) {
	env := newEnv(t)
	env.addContacts(t, "9876543210")

	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/hospitals/1/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+hospitalToken(t, 1))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 64)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	waitFor := func(prefix string) string {
		timeout := time.After(3 * time.Second)
		for {
			select {
			case l, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", prefix)
				}
				if strings.HasPrefix(l, prefix) {
					return l
				}
			case <-timeout:
				t.Fatalf("no %q line", prefix)
			}
		}
	}
	waitFor("retry:")

	w := env.do(http.MethodPost, "/api/emergency", gin.H{"message": "help", "location": "12.9716,77.6412"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "event: alert", waitFor("event: alert"))
	data := waitFor("data: ")
	assert.Contains(t, data, `"userName":"Asha"`)
	assert.Contains(t, data, `"location":"12.9716,77.6412"`)
}
