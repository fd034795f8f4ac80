package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const UnknownBloodType = "Unknown"

var BloodTypes = []string{"O+", "O-", "A+", "A-", "B+", "B-", "AB+", "AB-", UnknownBloodType}

type MedicalInfo struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	UserID            string    `json:"userId" gorm:"size:64;uniqueIndex"`
	BloodType         string    `json:"bloodType" gorm:"size:8;default:Unknown"`
	Allergies         []string  `json:"allergies" gorm:"serializer:json"`
	Medications       []string  `json:"medications" gorm:"serializer:json"`
	MedicalConditions []string  `json:"medicalConditions" gorm:"serializer:json"`
	EmergencyNotes    string    `json:"emergencyNotes" gorm:"type:text"`
	OrganDonor        bool      `json:"organDonor"`
	Height            string    `json:"height" gorm:"size:32"`
	Weight            string    `json:"weight" gorm:"size:32"`
	CreatedAt         time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"lastUpdated" gorm:"autoUpdateTime"`
}

// MedicalSnapshot is the medical profile as it stood when an alert fired.
// It is stored by value on the alert and never follows later edits.
type MedicalSnapshot struct {
	BloodType         string   `json:"bloodType"`
	Allergies         []string `json:"allergies"`
	Medications       []string `json:"medications"`
	MedicalConditions []string `json:"medicalConditions"`
	EmergencyNotes    string   `json:"emergencyNotes"`
	OrganDonor        bool     `json:"organDonor"`
	Height            string   `json:"height"`
	Weight            string   `json:"weight"`
}

// EmptySnapshot is used when the user never filled in a profile.
func EmptySnapshot() MedicalSnapshot {
	return MedicalSnapshot{
		BloodType:         UnknownBloodType,
		Allergies:         []string{},
		Medications:       []string{},
		MedicalConditions: []string{},
	}
}

func (m *MedicalInfo) Snapshot() MedicalSnapshot {
	s := MedicalSnapshot{
		BloodType:         m.BloodType,
		Allergies:         cloneStrings(m.Allergies),
		Medications:       cloneStrings(m.Medications),
		MedicalConditions: cloneStrings(m.MedicalConditions),
		EmergencyNotes:    m.EmergencyNotes,
		OrganDonor:        m.OrganDonor,
		Height:            m.Height,
		Weight:            m.Weight,
	}
	if s.BloodType == "" {
		s.BloodType = UnknownBloodType
	}
	return s
}

func ValidBloodType(v string) bool {
	for _, t := range BloodTypes {
		if t == v {
			return true
		}
	}
	return false
}

// GetMedicalInfo returns nil, nil when the user has no profile yet.
func GetMedicalInfo(db *gorm.DB, userID string) (*MedicalInfo, error) {
	var info MedicalInfo
	err := db.Where("user_id = ?", userID).First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// UpsertMedicalInfo creates or replaces the profile keyed by UserID.
func UpsertMedicalInfo(db *gorm.DB, info *MedicalInfo) error {
	if info.BloodType == "" {
		info.BloodType = UnknownBloodType
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"blood_type", "allergies", "medications", "medical_conditions",
			"emergency_notes", "organ_donor", "height", "weight", "updated_at",
		}),
	}).Create(info).Error
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
