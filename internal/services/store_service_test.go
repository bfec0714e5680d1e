package services

import (
	"testing"

	"repair_crm_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreFixture(t *testing.T) (*fakeStoreRepo, StoreService) {
	t.Helper()
	storeRepo := newFakeStoreRepo()
	storeRepo.stores[1] = &models.Store{ID: 1, Name: "Downtown Repair"}
	return storeRepo, NewStoreService(storeRepo, newStubDB(t))
}

func TestUpsertSettingRoundTrip(t *testing.T) {
	_, svc := newStoreFixture(t)

	saved, err := svc.UpsertSetting(1, "receipt_footer", UpsertSettingRequest{SettingValue: "Thanks for your visit"})
	require.NoError(t, err)
	assert.Equal(t, "receipt_footer", saved.SettingKey)

	loaded, err := svc.GetSetting(1, "receipt_footer")
	require.NoError(t, err)
	assert.Equal(t, "Thanks for your visit", loaded.SettingValue)
}

func TestUpsertWarrantyPeriodValidated(t *testing.T) {
	_, svc := newStoreFixture(t)

	_, err := svc.UpsertSetting(1, SettingWarrantyPeriodDays, UpsertSettingRequest{SettingValue: "ninety"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpsertSetting(1, SettingWarrantyPeriodDays, UpsertSettingRequest{SettingValue: "-5"})
	require.ErrorIs(t, err, ErrValidation)

	saved, err := svc.UpsertSetting(1, SettingWarrantyPeriodDays, UpsertSettingRequest{SettingValue: "90"})
	require.NoError(t, err)
	assert.Equal(t, "90", saved.SettingValue)
}

func TestUpsertSettingRejectsBlankKeyOrValue(t *testing.T) {
	_, svc := newStoreFixture(t)

	_, err := svc.UpsertSetting(1, "  ", UpsertSettingRequest{SettingValue: "x"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpsertSetting(1, "some_key", UpsertSettingRequest{SettingValue: "  "})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteSetting(t *testing.T) {
	_, svc := newStoreFixture(t)
	_, err := svc.UpsertSetting(1, "receipt_footer", UpsertSettingRequest{SettingValue: "bye"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSetting(1, "receipt_footer"))
	err = svc.DeleteSetting(1, "receipt_footer")
	require.ErrorIs(t, err, ErrSettingNotFound)
}

func TestGetStoreNotFound(t *testing.T) {
	_, svc := newStoreFixture(t)
	_, err := svc.GetStore(42)
	require.ErrorIs(t, err, ErrStoreNotFound)
}
