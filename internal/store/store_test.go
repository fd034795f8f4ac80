package store

import (
	"context"
	"testing"
	"time"

	"LifeLine/internal/models"
	"LifeLine/pkg/cache"
	"LifeLine/pkg/errors"
	"LifeLine/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	db, err := util.InitDatabase("sqlite", "", false)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	_, err = models.SeedHospitals(db)
	require.NoError(t, err)
	return New(db, cache.NewLocalCache(cache.LocalConfig{}), ttl, nil)
}

func TestContactsCappedForAlerts(t *testing.T) {
	s := newStore(t, 0)
	for i := 0; i < models.MaxAlertContacts+5; i++ {
		require.NoError(t, models.CreateContact(s.DB(), &models.Contact{UserID: "u1", Name: "c", Phone: "9876543210"}))
	}
	got, err := s.ListContacts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, got, models.MaxAlertContacts)
}

func TestMedicalSnapshotAbsent(t *testing.T) {
	s := newStore(t, 0)
	snap, err := s.MedicalSnapshot(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, snap)

	require.NoError(t, models.UpsertMedicalInfo(s.DB(), &models.MedicalInfo{UserID: "u1", BloodType: "A-"}))
	snap, err = s.MedicalSnapshot(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "A-", snap.BloodType)
}

func TestHospitalSnapshotCached(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, time.Minute)

	first, err := s.ActiveHospitals(ctx)
	require.NoError(t, err)
	require.Len(t, first, 8)

	require.NoError(t, s.DB().Model(&models.Hospital{}).Where("id = ?", first[0].ID).Update("is_active", false).Error)
	cached, err := s.ActiveHospitals(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 8)
	assert.Equal(t, first[0].Specialties, cached[0].Specialties)

	s.InvalidateHospitals(ctx)
	fresh, err := s.ActiveHospitals(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 7)
}

func TestSaveAlertFailureIsPersistenceKind(t *testing.T) {
	s := newStore(t, 0)
	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = s.SaveAlert(context.Background(), &models.AlertRecord{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindPersistence))
}
