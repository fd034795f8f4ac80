package models

import (
	"time"

	"LifeLine/pkg/geo"

	"gorm.io/gorm"
)

type Hospital struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	Name                string    `json:"name" gorm:"size:255;not null"`
	Email               string    `json:"email" gorm:"size:255;uniqueIndex"`
	Phone               string    `json:"phone" gorm:"size:32"`
	Address             string    `json:"address" gorm:"size:512"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	Specialties         []string  `json:"specialties" gorm:"serializer:json"`
	BedsAvailable       int       `json:"bedsAvailable"`
	AmbulancesAvailable int       `json:"ambulancesAvailable"`
	ContactPersonName   string    `json:"contactPersonName,omitempty" gorm:"size:128"`
	ContactPersonPhone  string    `json:"contactPersonPhone,omitempty" gorm:"size:32"`
	IsActive            bool      `json:"isActive" gorm:"index"`
	CreatedAt           time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt           time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (h Hospital) SiteName() string    { return h.Name }
func (h Hospital) SitePoint() geo.Point { return geo.Point{Lat: h.Latitude, Lon: h.Longitude} }
func (h Hospital) SiteActive() bool     { return h.IsActive }

// ActiveHospitals loads every hospital that accepts alerts.
func ActiveHospitals(db *gorm.DB) ([]Hospital, error) {
	var hospitals []Hospital
	if err := db.Where("is_active = ?", true).Order("id asc").Find(&hospitals).Error; err != nil {
		return nil, err
	}
	return hospitals, nil
}

func GetHospital(db *gorm.DB, id uint) (*Hospital, error) {
	var h Hospital
	if err := db.First(&h, id).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// HospitalEmailTaken reports whether another hospital already uses email.
func HospitalEmailTaken(db *gorm.DB, email string, exceptID uint) (bool, error) {
	var count int64
	q := db.Model(&Hospital{}).Where("email = ?", email)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func CreateHospital(db *gorm.DB, h *Hospital) error {
	h.IsActive = true
	return db.Create(h).Error
}

// UpdateHospital applies the non-zero fields of patch. Specialties are
// replaced when the slice is non-nil.
func UpdateHospital(db *gorm.DB, id uint, patch *Hospital) (*Hospital, error) {
	h, err := GetHospital(db, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	setStr := func(col, v string) {
		if v != "" {
			updates[col] = v
		}
	}
	setStr("name", patch.Name)
	setStr("email", patch.Email)
	setStr("phone", patch.Phone)
	setStr("address", patch.Address)
	setStr("contact_person_name", patch.ContactPersonName)
	setStr("contact_person_phone", patch.ContactPersonPhone)
	if patch.Latitude != 0 {
		updates["latitude"] = patch.Latitude
	}
	if patch.Longitude != 0 {
		updates["longitude"] = patch.Longitude
	}
	if patch.BedsAvailable != 0 {
		updates["beds_available"] = patch.BedsAvailable
	}
	if patch.AmbulancesAvailable != 0 {
		updates["ambulances_available"] = patch.AmbulancesAvailable
	}
	if len(updates) > 0 {
		if err := db.Model(h).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	if patch.Specialties != nil {
		h.Specialties = patch.Specialties
		if err := db.Model(h).Select("specialties").Updates(h).Error; err != nil {
			return nil, err
		}
	}
	return GetHospital(db, id)
}

// DeactivateHospital is a soft delete; alerts keep referencing the row.
func DeactivateHospital(db *gorm.DB, id uint) (bool, error) {
	res := db.Model(&Hospital{}).Where("id = ?", id).Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

// SeedHospitals inserts the demo hospitals around Bangalore and Mysore
// when the table is empty. It returns the number of rows inserted.
func SeedHospitals(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&Hospital{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	seed := DefaultHospitals()
	if err := db.Create(&seed).Error; err != nil {
		return 0, err
	}
	return len(seed), nil
}

func DefaultHospitals() []Hospital {
	return []Hospital{
		{Name: "Bangalore Emergency Hospital", Email: "emergency@bgram.hospital.com", Phone: "+91-9876543210",
			Address: "Indiranagar, Bangalore, Karnataka", Latitude: 12.9716, Longitude: 77.6412,
			Specialties: []string{"Emergency", "Trauma", "Cardiology"}, BedsAvailable: 25, AmbulancesAvailable: 5,
			ContactPersonName: "Dr. Sharma", ContactPersonPhone: "+91-9876543210", IsActive: true},
		{Name: "Apollo Hospital Bangalore", Email: "apollo@bangalore.hospital.com", Phone: "+91-9876543211",
			Address: "Koramangala, Bangalore, Karnataka", Latitude: 12.9352, Longitude: 77.6245,
			Specialties: []string{"Cardiology", "Neurology", "Emergency"}, BedsAvailable: 40, AmbulancesAvailable: 8,
			ContactPersonName: "Dr. Patel", ContactPersonPhone: "+91-9876543211", IsActive: true},
		{Name: "Max Healthcare Bangalore", Email: "max@bangalore.hospital.com", Phone: "+91-9876543212",
			Address: "Whitefield, Bangalore, Karnataka", Latitude: 12.9698, Longitude: 77.7499,
			Specialties: []string{"Emergency", "Trauma", "Orthopedics"}, BedsAvailable: 35, AmbulancesAvailable: 6,
			ContactPersonName: "Dr. Singh", ContactPersonPhone: "+91-9876543212", IsActive: true},
		{Name: "Fortis Hospital Bangalore", Email: "fortis@bangalore.hospital.com", Phone: "+91-9876543213",
			Address: "Cunningham Road, Bangalore, Karnataka", Latitude: 13.0011, Longitude: 77.5946,
			Specialties: []string{"Cardiology", "Neurology", "Emergency"}, BedsAvailable: 30, AmbulancesAvailable: 7,
			ContactPersonName: "Dr. Kumar", ContactPersonPhone: "+91-9876543213", IsActive: true},
		{Name: "Manipal Hospital Bangalore", Email: "manipal@bangalore.hospital.com", Phone: "+91-9876543214",
			Address: "Domlur, Bangalore, Karnataka", Latitude: 12.9689, Longitude: 77.6499,
			Specialties: []string{"Emergency", "Trauma", "General Surgery"}, BedsAvailable: 28, AmbulancesAvailable: 5,
			ContactPersonName: "Dr. Desai", ContactPersonPhone: "+91-9876543214", IsActive: true},
		{Name: "Mysore Medical Center", Email: "contact@mysoremedical.hospital.com", Phone: "+91-9876543215",
			Address: "Sayyaji Rao Road, Mysore, Karnataka", Latitude: 12.2958, Longitude: 76.6394,
			Specialties: []string{"Emergency", "Trauma", "General Medicine"}, BedsAvailable: 20, AmbulancesAvailable: 4,
			ContactPersonName: "Dr. Reddy", ContactPersonPhone: "+91-9876543215", IsActive: true},
		{Name: "Apollo Hospital Mysore", Email: "apollo@mysore.hospital.com", Phone: "+91-9876543216",
			Address: "Hebbal, Mysore, Karnataka", Latitude: 12.3019, Longitude: 76.6551,
			Specialties: []string{"Cardiology", "Emergency", "Neurology"}, BedsAvailable: 32, AmbulancesAvailable: 6,
			ContactPersonName: "Dr. Gupta", ContactPersonPhone: "+91-9876543216", IsActive: true},
		{Name: "Fortis Hospital Mysore", Email: "fortis@mysore.hospital.com", Phone: "+91-9876543217",
			Address: "Gokulam, Mysore, Karnataka", Latitude: 12.3105, Longitude: 76.6874,
			Specialties: []string{"Emergency", "Trauma", "Orthopedics"}, BedsAvailable: 28, AmbulancesAvailable: 5,
			ContactPersonName: "Dr. Rao", ContactPersonPhone: "+91-9876543217", IsActive: true},
	}
}
