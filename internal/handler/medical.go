package handlers

import (
	"net/http"

	"LifeLine/internal/models"
	"LifeLine/pkg/response"

	"github.com/gin-gonic/gin"
)

type medicalRequest struct {
	BloodType         string   `json:"bloodType"`
	Allergies         []string `json:"allergies"`
	Medications       []string `json:"medications"`
	MedicalConditions []string `json:"medicalConditions"`
	EmergencyNotes    string   `json:"emergencyNotes"`
	OrganDonor        bool     `json:"organDonor"`
	Height            string   `json:"height"`
	Weight            string   `json:"weight"`
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// handleGetMedical 未填写过的用户返回默认档案
func (h *Handlers) handleGetMedical(c *gin.Context) {
	userID := models.CurrentUserID(c)
	info, err := models.GetMedicalInfo(h.DB, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if info == nil {
		info = &models.MedicalInfo{
			UserID:            userID,
			BloodType:         models.UnknownBloodType,
			Allergies:         []string{},
			Medications:       []string{},
			MedicalConditions: []string{},
		}
	}
	response.Success(c, info)
}

func (h *Handlers) handleUpdateMedical(c *gin.Context) {
	var req medicalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid request")
		return
	}
	if req.BloodType == "" {
		req.BloodType = models.UnknownBloodType
	}
	if !models.ValidBloodType(req.BloodType) {
		response.Fail(c, http.StatusBadRequest, "invalid blood type")
		return
	}

	userID := models.CurrentUserID(c)
	info := &models.MedicalInfo{
		UserID:            userID,
		BloodType:         req.BloodType,
		Allergies:         orEmpty(req.Allergies),
		Medications:       orEmpty(req.Medications),
		MedicalConditions: orEmpty(req.MedicalConditions),
		EmergencyNotes:    req.EmergencyNotes,
		OrganDonor:        req.OrganDonor,
		Height:            req.Height,
		Weight:            req.Weight,
	}
	if err := models.UpsertMedicalInfo(h.DB, info); err != nil {
		response.Error(c, err)
		return
	}
	saved, err := models.GetMedicalInfo(h.DB, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true, "medicalInfo": saved})
}
