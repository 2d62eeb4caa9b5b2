// Package settings provides database operations for application settings.
//
// Besides the generic key/value accessors it keeps the status of the last
// scheduled library export.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	err := repo.SetExportStatus("success", "exported 3 libraries", 3)
package settings

import (
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// ExportStatus is the outcome of the last scheduled export run.
type ExportStatus struct {
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Status    string     `json:"status,omitempty"`
	Message   string     `json:"message,omitempty"`
	Count     int        `json:"count"`
}

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(key, value string) error {
	var setting entities.Setting
	result := r.db.Where("key = ?", key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return r.db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}

// GetExportStatus returns the last export status. Missing keys leave the
// corresponding fields empty.
func (r *Repository) GetExportStatus() ExportStatus {
	status := ExportStatus{}

	if setting, err := r.GetSetting(entities.SettingKeyExportLastAt); err == nil && setting.Value != "" {
		if ts, err := time.Parse(time.RFC3339, setting.Value); err == nil {
			status.LastRunAt = &ts
		}
	}
	if setting, err := r.GetSetting(entities.SettingKeyExportLastStatus); err == nil {
		status.Status = setting.Value
	}
	if setting, err := r.GetSetting(entities.SettingKeyExportLastMessage); err == nil {
		status.Message = setting.Value
	}
	if setting, err := r.GetSetting(entities.SettingKeyExportLastCount); err == nil {
		status.Count, _ = strconv.Atoi(setting.Value)
	}

	return status
}

// SetExportStatus records the outcome of an export run stamped with the
// current time.
func (r *Repository) SetExportStatus(status, message string, count int) error {
	now := time.Now().UTC().Format(time.RFC3339)

	values := []struct{ key, value string }{
		{entities.SettingKeyExportLastAt, now},
		{entities.SettingKeyExportLastStatus, status},
		{entities.SettingKeyExportLastMessage, message},
		{entities.SettingKeyExportLastCount, strconv.Itoa(count)},
	}
	for _, kv := range values {
		if err := r.SetSetting(kv.key, kv.value); err != nil {
			return err
		}
	}
	return nil
}
