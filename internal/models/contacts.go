package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxAlertContacts caps how many contacts one alert fans out to.
const MaxAlertContacts = 20

type Contact struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"size:64;index"`
	Name      string    `json:"name" gorm:"size:128"`
	Phone     string    `json:"phone" gorm:"size:32"` // raw, normalized at send time
	Relation  string    `json:"relation" gorm:"size:64"`
	Priority  int       `json:"priority" gorm:"default:0"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ListContacts returns a user's contacts, highest priority first, then in
// insertion order. limit <= 0 means no limit.
func ListContacts(db *gorm.DB, userID string, limit int) ([]Contact, error) {
	var contacts []Contact
	q := db.Where("user_id = ?", userID).Order("priority desc").Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

func CreateContact(db *gorm.DB, c *Contact) error {
	return db.Create(c).Error
}

// UpdateContact overwrites the editable fields of a contact owned by userID.
func UpdateContact(db *gorm.DB, userID string, c *Contact) (*Contact, error) {
	var existing Contact
	if err := db.Where("id = ? AND user_id = ?", c.ID, userID).First(&existing).Error; err != nil {
		return nil, err
	}
	err := db.Model(&existing).Updates(map[string]any{
		"name":     c.Name,
		"phone":    c.Phone,
		"relation": c.Relation,
		"priority": c.Priority,
	}).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// DeleteContact reports whether a row was removed.
func DeleteContact(db *gorm.DB, userID string, id uint) (bool, error) {
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(&Contact{})
	return res.RowsAffected > 0, res.Error
}
