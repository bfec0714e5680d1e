package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"repair_crm_backend/internal/models"
	"repair_crm_backend/internal/repositories"
)

// --- Custom Service Errors ---
var (
	ErrStoreNotFound   = errors.New("store not found")
	ErrSettingNotFound = errors.New("store setting not found")
)

// --- Store DTOs ---

type UpsertSettingRequest struct {
	SettingValue string  `json:"setting_value" binding:"required"`
	Description  *string `json:"description"`
}

// --- StoreService Interface ---

// StoreService exposes store metadata and per-store settings. Settings
// are free-form key/value pairs; keys with known semantics (such as
// the warranty period) get extra validation on write.
type StoreService interface {
	GetStore(storeID int64) (*models.Store, error)
	GetSettings(storeID int64) ([]models.StoreSetting, error)
	GetSetting(storeID int64, key string) (*models.StoreSetting, error)
	UpsertSetting(storeID int64, key string, req UpsertSettingRequest) (*models.StoreSetting, error)
	DeleteSetting(storeID int64, key string) error
}

type storeService struct {
	storeRepo repositories.StoreRepository
	db        *sql.DB
}

// NewStoreService creates a new instance of StoreService.
func NewStoreService(repo repositories.StoreRepository, db *sql.DB) StoreService {
	return &storeService{storeRepo: repo, db: db}
}

func (s *storeService) GetStore(storeID int64) (*models.Store, error) {
	store, err := s.storeRepo.GetStoreByID(storeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return store, nil
}

func (s *storeService) GetSettings(storeID int64) ([]models.StoreSetting, error) {
	settings, err := s.storeRepo.GetSettings(storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get store settings: %w", err)
	}
	return settings, nil
}

func (s *storeService) GetSetting(storeID int64, key string) (*models.StoreSetting, error) {
	setting, err := s.storeRepo.GetSettingByKey(storeID, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to get store setting %q: %w", key, err)
	}
	return setting, nil
}

func (s *storeService) UpsertSetting(storeID int64, key string, req UpsertSettingRequest) (*models.StoreSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: setting key cannot be empty", ErrValidation)
	}
	value := strings.TrimSpace(req.SettingValue)
	if value == "" {
		return nil, fmt.Errorf("%w: setting value cannot be empty", ErrValidation)
	}

	if key == SettingWarrantyPeriodDays {
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("%w: %s must be a positive integer", ErrValidation, SettingWarrantyPeriodDays)
		}
	}

	setting := &models.StoreSetting{
		StoreID:      storeID,
		SettingKey:   key,
		SettingValue: value,
		Description:  req.Description,
	}
	if err := s.storeRepo.UpsertSetting(s.db, setting); err != nil {
		return nil, fmt.Errorf("failed to save store setting %q: %w", key, err)
	}
	return setting, nil
}

func (s *storeService) DeleteSetting(storeID int64, key string) error {
	if err := s.storeRepo.DeleteSettingByKey(s.db, storeID, key); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSettingNotFound
		}
		return fmt.Errorf("failed to delete store setting %q: %w", key, err)
	}
	return nil
}
