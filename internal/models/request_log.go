package models

import (
	"time"

	"gorm.io/gorm"
)

// RequestLog is one audited API call.
type RequestLog struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          string    `gorm:"size:64;index" json:"userId"`
	Action          string    `gorm:"size:16" json:"action"`  // HTTP method
	Target          string    `gorm:"size:255" json:"target"` // route path
	Status          int       `json:"status"`
	LatencyMs       int64     `json:"latencyMs"`
	IPAddress       string    `gorm:"size:64" json:"ipAddress"`
	UserAgent       string    `gorm:"size:512" json:"userAgent"`
	Referer         string    `gorm:"size:512" json:"referer"`
	Device          string    `gorm:"size:64" json:"device"`
	Browser         string    `gorm:"size:128" json:"browser"`
	OperatingSystem string    `gorm:"size:128" json:"operatingSystem"`
	Mobile          bool      `json:"mobile"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func CreateRequestLog(db *gorm.DB, l *RequestLog) error {
	return db.Create(l).Error
}
