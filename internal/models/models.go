// Package models holds the gorm models of the alert service and the small
// query helpers the handlers and stores share.
package models

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// DbField is the gin context key holding the request's *gorm.DB.
	DbField = "_lifeline_db"
	// UserField is the gin context key holding the authenticated user id.
	UserField = "_lifeline_user"
	// UserNameField and UserEmailField carry optional identity claims.
	UserNameField  = "_lifeline_user_name"
	UserEmailField = "_lifeline_user_email"
	// UserRoleField holds the token role; empty for ordinary users.
	UserRoleField = "_lifeline_user_role"
	// UserHospitalField holds the hospital id a hospital-role token is bound to.
	UserHospitalField = "_lifeline_user_hospital"

	SigAlertRecorded = "alert.recorded"
)

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Contact{},
		&MedicalInfo{},
		&Hospital{},
		&AlertRecord{},
		&AlertAcknowledgement{},
		&RequestLog{},
	)
}

// CurrentUserID returns the user id set by the auth middleware.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserField)
}

func CurrentUserName(c *gin.Context) string {
	return c.GetString(UserNameField)
}

func CurrentUserEmail(c *gin.Context) string {
	return c.GetString(UserEmailField)
}

func CurrentUserRole(c *gin.Context) string {
	return c.GetString(UserRoleField)
}

// CurrentHospitalID 医院账号绑定的医院 id，普通用户为 0
func CurrentHospitalID(c *gin.Context) uint {
	return c.GetUint(UserHospitalField)
}

func GetDB(c *gin.Context) *gorm.DB {
	return c.MustGet(DbField).(*gorm.DB)
}
