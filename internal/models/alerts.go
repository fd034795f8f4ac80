package models

import (
	"strconv"
	"time"

	"LifeLine/pkg/notification"
	"LifeLine/pkg/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert status values.
const (
	AlertStatusSent    = "sent"    // every contact reached
	AlertStatusPartial = "partial" // some sends failed
	AlertStatusFailed  = "failed"  // nobody reached
)

// Acknowledgement status values.
const (
	AckPending      = "pending"
	AckAcknowledged = "acknowledged"
	AckResponded    = "responded"
)

// AlertRecord is written once per emergency and never updated.
type AlertRecord struct {
	ID                   uint                   `json:"id" gorm:"primaryKey"`
	PublicID             string                 `json:"publicId" gorm:"size:36;uniqueIndex"`
	Reference            string                 `json:"reference" gorm:"size:16;index"`
	UserID               string                 `json:"userId" gorm:"size:64;index"`
	UserName             string                 `json:"userName" gorm:"size:128"`
	MessageText          string                 `json:"message" gorm:"type:text"`
	RawLocation          string                 `json:"location" gorm:"size:128"`
	Latitude             *float64               `json:"latitude"`
	Longitude            *float64               `json:"longitude"`
	ContactsNotified     int                    `json:"contactsNotified"`
	SentCount            int                    `json:"sentCount"`
	FailedCount          int                    `json:"failedCount"`
	VoiceReference       string                 `json:"voiceReference,omitempty" gorm:"size:512"`
	Transcript           string                 `json:"transcript,omitempty" gorm:"type:text"`
	TranslatedTranscript string                 `json:"translatedTranscript,omitempty" gorm:"type:text"`
	DetectedLanguage     string                 `json:"detectedLanguage,omitempty" gorm:"size:16"`
	TranscriptConfidence float64                `json:"transcriptConfidence"`
	MedicalSnapshot      *MedicalSnapshot       `json:"patientMedicalInfo,omitempty" gorm:"serializer:json"`
	Providers            []string               `json:"providers" gorm:"serializer:json"`
	ProviderOutcomes     []notification.Outcome `json:"providerOutcomes" gorm:"serializer:json"`
	ProviderReasons      map[string]string      `json:"providerReasons,omitempty" gorm:"serializer:json"`
	NearbyHospitalIDs    []uint                 `json:"nearbyHospitalIds" gorm:"serializer:json"`
	Status               string                 `json:"status" gorm:"size:16;index"`
	CreatedAt            time.Time              `json:"createdAt" gorm:"autoCreateTime;index"`
}

// BeforeCreate assigns the public id and the short reference.
func (a *AlertRecord) BeforeCreate(tx *gorm.DB) error {
	if a.PublicID == "" {
		a.PublicID = uuid.NewString()
	}
	if a.Reference == "" {
		a.Reference = util.ShortRef(a.PublicID)
	}
	return nil
}

// StatusFor derives the record status from the dispatch counters.
func StatusFor(sent, failed int) string {
	switch {
	case sent > 0 && failed == 0:
		return AlertStatusSent
	case sent > 0:
		return AlertStatusPartial
	}
	return AlertStatusFailed
}

// AlertAcknowledgement is a hospital's response to an alert. Rows are
// appended; the alert itself is never touched.
type AlertAcknowledgement struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	AlertID         uint      `json:"alertId" gorm:"index"`
	HospitalID      uint      `json:"hospitalId" gorm:"index"`
	Status          string    `json:"status" gorm:"size:16"`
	ResponseMinutes *int      `json:"responseTime,omitempty"`
	Notes           string    `json:"notes" gorm:"type:text"`
	CreatedAt       time.Time `json:"receivedAt" gorm:"autoCreateTime"`
}

func ValidAckStatus(s string) bool {
	return s == AckPending || s == AckAcknowledged || s == AckResponded
}

func CreateAlertRecord(db *gorm.DB, rec *AlertRecord) error {
	return db.Create(rec).Error
}

// ListAlertRecords returns the newest alerts of a user first.
func ListAlertRecords(db *gorm.DB, userID string, limit int) ([]AlertRecord, error) {
	var records []AlertRecord
	q := db.Where("user_id = ?", userID).Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetAlertRecord looks an alert up by numeric id or public id, scoped to
// its owner.
func GetAlertRecord(db *gorm.DB, userID, id string) (*AlertRecord, error) {
	var rec AlertRecord
	q := db.Where("user_id = ?", userID)
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		q = q.Where("id = ?", n)
	} else {
		q = q.Where("public_id = ?", id)
	}
	if err := q.First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func GetAlertByID(db *gorm.DB, id uint) (*AlertRecord, error) {
	var rec AlertRecord
	if err := db.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func CreateAcknowledgement(db *gorm.DB, ack *AlertAcknowledgement) error {
	return db.Create(ack).Error
}

func ListAcknowledgements(db *gorm.DB, alertID uint) ([]AlertAcknowledgement, error) {
	var acks []AlertAcknowledgement
	if err := db.Where("alert_id = ?", alertID).Order("id asc").Find(&acks).Error; err != nil {
		return nil, err
	}
	return acks, nil
}
