package entities

import (
	"time"
)

type SyncType string

const (
	SyncTypeLibrary SyncType = "library"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncProgress is the persisted outcome of the latest snapshot push for one
// user's library.
type SyncProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      string     `gorm:"size:128;uniqueIndex:idx_sync_user_type" json:"user_id"`
	SyncType    SyncType   `gorm:"size:50;uniqueIndex:idx_sync_user_type" json:"sync_type"`
	Status      SyncStatus `gorm:"size:20" json:"status"`
	Generation  uint64     `json:"generation"`
	TotalItems  int        `json:"total_items"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (SyncProgress) TableName() string {
	return "sync_progress"
}
