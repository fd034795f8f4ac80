package handlers

import (
	"errors"
	"net/http"
	"strings"

	"LifeLine/internal/models"
	"LifeLine/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type contactRequest struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relation     string `json:"relation"`
	Relationship string `json:"relationship"`
	Priority     int    `json:"priority"`
}

func (r contactRequest) relation() string {
	if r.Relation != "" {
		return r.Relation
	}
	return r.Relationship
}

// validateContact only checks presence. The phone is stored as typed and
// normalized at send time.
func validateContact(r contactRequest) string {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Phone) == "" {
		return "Name and phone required"
	}
	return ""
}

func (h *Handlers) handleListContacts(c *gin.Context) {
	contacts, err := models.ListContacts(h.DB, models.CurrentUserID(c), 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, contacts)
}

func (h *Handlers) handleCreateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid request")
		return
	}
	if msg := validateContact(req); msg != "" {
		response.Fail(c, http.StatusBadRequest, msg)
		return
	}
	contact := &models.Contact{
		UserID:   models.CurrentUserID(c),
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Relation: req.relation(),
		Priority: req.Priority,
	}
	if err := models.CreateContact(h.DB, contact); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contact)
}

func (h *Handlers) handleUpdateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 {
		response.Fail(c, http.StatusBadRequest, "Contact id required")
		return
	}
	if msg := validateContact(req); msg != "" {
		response.Fail(c, http.StatusBadRequest, msg)
		return
	}
	contact, err := models.UpdateContact(h.DB, models.CurrentUserID(c), &models.Contact{
		ID:       req.ID,
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Relation: req.relation(),
		Priority: req.Priority,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, http.StatusNotFound, "Contact not found")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, contact)
}

func (h *Handlers) handleDeleteContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 {
		response.Fail(c, http.StatusBadRequest, "Contact id required")
		return
	}
	found, err := models.DeleteContact(h.DB, models.CurrentUserID(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !found {
		response.Fail(c, http.StatusNotFound, "Contact not found")
		return
	}
	response.Success(c, gin.H{"ok": true})
}
