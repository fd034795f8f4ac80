package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"LifeLine/internal/listeners"
	"LifeLine/internal/models"
	"LifeLine/pkg/geo"
	"LifeLine/pkg/logger"
	"LifeLine/pkg/middleware"
	"LifeLine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type nearbyHospital struct {
	models.Hospital
	Distance float64 `json:"distance"`
}

type hospitalRequest struct {
	Name                string   `json:"name" binding:"required"`
	Email               string   `json:"email" binding:"required,email"`
	Phone               string   `json:"phone" binding:"required"`
	Address             string   `json:"address" binding:"required"`
	Latitude            *float64 `json:"latitude" binding:"required"`
	Longitude           *float64 `json:"longitude" binding:"required"`
	Specialties         []string `json:"specialties"`
	BedsAvailable       int      `json:"bedsAvailable"`
	AmbulancesAvailable int      `json:"ambulancesAvailable"`
	ContactPersonName   string   `json:"contactPersonName"`
	ContactPersonPhone  string   `json:"contactPersonPhone"`
}

type hospitalPatch struct {
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	Phone               string   `json:"phone"`
	Address             string   `json:"address"`
	Latitude            float64  `json:"latitude"`
	Longitude           float64  `json:"longitude"`
	Specialties         []string `json:"specialties"`
	BedsAvailable       int      `json:"bedsAvailable"`
	AmbulancesAvailable int      `json:"ambulancesAvailable"`
	ContactPersonName   string   `json:"contactPersonName"`
	ContactPersonPhone  string   `json:"contactPersonPhone"`
}

type ackRequest struct {
	AlertID      uint   `json:"alertId" binding:"required"`
	Status       string `json:"status"`
	ResponseTime *int   `json:"responseTime"`
	Notes        string `json:"notes"`
}

func pathID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (h *Handlers) handleListHospitals(c *gin.Context) {
	hospitals, err := h.Store.ActiveHospitals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, hospitals)
}

// handleNearbyHospitals 按距离返回半径内的医院，distance 单位为公里
func (h *Handlers) handleNearbyHospitals(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("latitude"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("longitude"), 64)
	if errLat != nil || errLon != nil {
		response.Fail(c, http.StatusBadRequest, "latitude and longitude required")
		return
	}
	origin := geo.Point{Lat: lat, Lon: lon}
	if !origin.Valid() {
		response.Fail(c, http.StatusBadRequest, "coordinates out of range")
		return
	}
	radius := h.Config.NearbyRadiusKm
	if r, err := strconv.ParseFloat(c.Query("radius"), 64); err == nil && r > 0 {
		radius = r
	}

	hospitals, err := h.Store.ActiveHospitals(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	ranked := geo.Nearby(origin, radius, hospitals)
	out := make([]nearbyHospital, len(ranked))
	for i, r := range ranked {
		out[i] = nearbyHospital{Hospital: r.Site, Distance: geo.Round2(r.DistanceKm)}
	}
	response.Success(c, out)
}

func (h *Handlers) handleGetHospital(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	hospital, err := models.GetHospital(h.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, hospital)
}

// handleHospitalStream 医院看板的 SSE 推送。医院账号只能订阅自己的医院
func (h *Handlers) handleHospitalStream(c *gin.Context) {
	if h.Hub == nil {
		response.Fail(c, http.StatusServiceUnavailable, "live feed disabled")
		return
	}
	id, ok := pathID(c)
	if !ok {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	if models.CurrentUserRole(c) == middleware.RoleHospital && models.CurrentHospitalID(c) != id {
		response.Fail(c, http.StatusForbidden, "Forbidden")
		return
	}
	if _, err := models.GetHospital(h.DB, id); err != nil {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	h.Hub.Serve(c, uuid.NewString(), listeners.HospitalGroup(id))
}

// handleAcknowledgeAlert 医院对告警的回执，只追加记录，不修改告警本身
func (h *Handlers) handleAcknowledgeAlert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	var req ackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "alertId required")
		return
	}
	if req.Status == "" {
		req.Status = models.AckAcknowledged
	}
	if !models.ValidAckStatus(req.Status) {
		response.Fail(c, http.StatusBadRequest, "invalid status")
		return
	}

	if _, err := models.GetHospital(h.DB, id); err != nil {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	if _, err := models.GetAlertByID(h.DB, req.AlertID); err != nil {
		response.Fail(c, http.StatusNotFound, "Alert not found")
		return
	}

	ack := &models.AlertAcknowledgement{
		AlertID:         req.AlertID,
		HospitalID:      id,
		Status:          req.Status,
		ResponseMinutes: req.ResponseTime,
		Notes:           req.Notes,
	}
	if err := models.CreateAcknowledgement(h.DB, ack); err != nil {
		response.Error(c, err)
		return
	}
	if h.Hub != nil {
		if _, err := h.Hub.Publish(listeners.HospitalGroup(id), "acknowledgement", ack); err != nil {
			logger.Warn("acknowledgement not broadcast", zap.Uint("hospital", id), zap.Error(err))
		}
	}
	response.Created(c, gin.H{"ok": true, "acknowledgement": ack})
}

func (h *Handlers) handleCreateHospital(c *gin.Context) {
	var req hospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Missing required fields")
		return
	}
	taken, err := models.HospitalEmailTaken(h.DB, req.Email, 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	if taken {
		response.Fail(c, http.StatusBadRequest, "Hospital with this email already exists")
		return
	}

	hospital := &models.Hospital{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		Address:             req.Address,
		Latitude:            *req.Latitude,
		Longitude:           *req.Longitude,
		Specialties:         req.Specialties,
		BedsAvailable:       req.BedsAvailable,
		AmbulancesAvailable: req.AmbulancesAvailable,
		ContactPersonName:   req.ContactPersonName,
		ContactPersonPhone:  req.ContactPersonPhone,
	}
	if hospital.Specialties == nil {
		hospital.Specialties = []string{}
	}
	if !hospital.SitePoint().Valid() {
		response.Fail(c, http.StatusBadRequest, "coordinates out of range")
		return
	}
	if err := models.CreateHospital(h.DB, hospital); err != nil {
		response.Error(c, err)
		return
	}
	h.Store.InvalidateHospitals(c.Request.Context())
	response.Created(c, gin.H{"ok": true, "hospital": hospital})
}

func (h *Handlers) handleUpdateHospital(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	var req hospitalPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email != "" {
		taken, err := models.HospitalEmailTaken(h.DB, req.Email, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if taken {
			response.Fail(c, http.StatusBadRequest, "Hospital with this email already exists")
			return
		}
	}

	hospital, err := models.UpdateHospital(h.DB, id, &models.Hospital{
		Name:                req.Name,
		Email:               req.Email,
		Phone:               req.Phone,
		Address:             req.Address,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		Specialties:         req.Specialties,
		BedsAvailable:       req.BedsAvailable,
		AmbulancesAvailable: req.AmbulancesAvailable,
		ContactPersonName:   req.ContactPersonName,
		ContactPersonPhone:  req.ContactPersonPhone,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	h.Store.InvalidateHospitals(c.Request.Context())
	response.Success(c, gin.H{"ok": true, "hospital": hospital})
}

func (h *Handlers) handleDeactivateHospital(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	found, err := models.DeactivateHospital(h.DB, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !found {
		response.Fail(c, http.StatusNotFound, "Hospital not found")
		return
	}
	h.Store.InvalidateHospitals(c.Request.Context())
	response.Success(c, gin.H{"ok": true, "message": "Hospital deactivated"})
}
