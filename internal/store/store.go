// Package store adapts the gorm models to the collaborator interfaces the
// alert orchestrator and the handlers depend on.
package store

import (
	"context"
	"time"

	"LifeLine/internal/models"
	"LifeLine/pkg/cache"
	"LifeLine/pkg/errors"
	"LifeLine/pkg/metrics"

	"gorm.io/gorm"
)

const hospitalsKey = "hospitals:active"

type Store struct {
	db          *gorm.DB
	cache       cache.Cache
	hospitalTTL time.Duration
	metrics     *metrics.Metrics
}

// New wraps db. A nil cache disables hospital caching.
func New(db *gorm.DB, c cache.Cache, hospitalTTL time.Duration, m *metrics.Metrics) *Store {
	return &Store{db: db, cache: c, hospitalTTL: hospitalTTL, metrics: m}
}

func (s *Store) DB() *gorm.DB { return s.db }

// ListContacts returns at most models.MaxAlertContacts contacts in alert
// order.
func (s *Store) ListContacts(ctx context.Context, userID string) ([]models.Contact, error) {
	contacts, err := models.ListContacts(s.db.WithContext(ctx), userID, models.MaxAlertContacts)
	if err != nil {
		return nil, errors.WrapKind(err, errors.KindPersistence, "load contacts")
	}
	return contacts, nil
}

// MedicalSnapshot returns nil when the user has no medical profile.
func (s *Store) MedicalSnapshot(ctx context.Context, userID string) (*models.MedicalSnapshot, error) {
	info, err := models.GetMedicalInfo(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, errors.WrapKind(err, errors.KindPersistence, "load medical info")
	}
	if info == nil {
		return nil, nil
	}
	snap := info.Snapshot()
	return &snap, nil
}

// ActiveHospitals serves a snapshot that may be up to hospitalTTL old.
func (s *Store) ActiveHospitals(ctx context.Context) ([]models.Hospital, error) {
	load := func(ctx context.Context) ([]models.Hospital, error) {
		return models.ActiveHospitals(s.db.WithContext(ctx))
	}
	if s.cache == nil || s.hospitalTTL <= 0 {
		hs, err := load(ctx)
		return hs, wrapPersistence(err, "load hospitals")
	}
	hs, hit, err := cache.Remember(ctx, s.cache, hospitalsKey, s.hospitalTTL, load)
	if err != nil {
		return nil, wrapPersistence(err, "load hospitals")
	}
	s.metrics.RecordCacheLookup("hospitals", hit)
	return hs, nil
}

// InvalidateHospitals drops the cached snapshot after a hospital changes.
func (s *Store) InvalidateHospitals(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, hospitalsKey)
	}
}

func (s *Store) SaveAlert(ctx context.Context, rec *models.AlertRecord) error {
	return wrapPersistence(models.CreateAlertRecord(s.db.WithContext(ctx), rec), "save alert")
}

func wrapPersistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.WrapKind(err, errors.KindPersistence, msg)
}
