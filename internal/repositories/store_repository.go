package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"repair_crm_backend/internal/models"
)

// StoreRepository defines the interface for store and per-store
// setting database operations.
type StoreRepository interface {
	GetStoreByID(storeID int64) (*models.Store, error)
	GetSettings(storeID int64) ([]models.StoreSetting, error)
	GetSettingByKey(storeID int64, key string) (*models.StoreSetting, error)
	UpsertSetting(executor SQLExecutor, setting *models.StoreSetting) error
	DeleteSettingByKey(executor SQLExecutor, storeID int64, key string) error
}

type storeRepository struct {
	db *sql.DB
}

// NewStoreRepository creates a new instance of StoreRepository.
func NewStoreRepository(db *sql.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) GetStoreByID(storeID int64) (*models.Store, error) {
	store := &models.Store{}
	query := `SELECT id, name, address, phone, created_at, updated_at FROM stores WHERE id = $1`
	err := r.db.QueryRow(query, storeID).Scan(
		&store.ID, &store.Name, &store.Address, &store.Phone, &store.CreatedAt, &store.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting store by ID %d: %v", ErrDatabaseError, storeID, err)
	}
	return store, nil
}

func (r *storeRepository) GetSettings(storeID int64) ([]models.StoreSetting, error) {
	settings := []models.StoreSetting{}
	query := `SELECT id, store_id, setting_key, setting_value, description, created_at, updated_at
	          FROM store_settings WHERE store_id = $1 ORDER BY setting_key`
	rows, err := r.db.Query(query, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting store settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.StoreSetting
		if err := rows.Scan(&s.ID, &s.StoreID, &s.SettingKey, &s.SettingValue, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning store setting: %v", ErrDatabaseError, err)
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating store settings: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *storeRepository) GetSettingByKey(storeID int64, key string) (*models.StoreSetting, error) {
	s := &models.StoreSetting{}
	query := `SELECT id, store_id, setting_key, setting_value, description, created_at, updated_at
	          FROM store_settings WHERE store_id = $1 AND setting_key = $2`
	err := r.db.QueryRow(query, storeID, key).Scan(
		&s.ID, &s.StoreID, &s.SettingKey, &s.SettingValue, &s.Description, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting store setting %q: %v", ErrDatabaseError, key, err)
	}
	return s, nil
}

func (r *storeRepository) UpsertSetting(executor SQLExecutor, setting *models.StoreSetting) error {
	now := time.Now()
	query := `INSERT INTO store_settings (store_id, setting_key, setting_value, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (store_id, setting_key)
	          DO UPDATE SET setting_value = EXCLUDED.setting_value, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
	          RETURNING id, created_at, updated_at`
	err := executor.QueryRow(query,
		setting.StoreID, setting.SettingKey, setting.SettingValue, setting.Description, now, now,
	).Scan(&setting.ID, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: upserting store setting %q: %v", ErrDatabaseError, setting.SettingKey, err)
	}
	return nil
}

func (r *storeRepository) DeleteSettingByKey(executor SQLExecutor, storeID int64, key string) error {
	result, err := executor.Exec(`DELETE FROM store_settings WHERE store_id = $1 AND setting_key = $2`, storeID, key)
	if err != nil {
		return fmt.Errorf("%w: deleting store setting %q: %v", ErrDatabaseError, key, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
