package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Scheduled library export
	SettingKeyExportLastAt      = "library_export_last_at"
	SettingKeyExportLastStatus  = "library_export_last_status"
	SettingKeyExportLastMessage = "library_export_last_message"
	SettingKeyExportLastCount   = "library_export_last_count"
)
