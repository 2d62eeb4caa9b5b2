// Package sync provides database operations for sync progress tracking.
//
// This package implements the ProgressRecorder interface used by the sync engine.
//
// # Interface Implementation
//
//	var _ syncengine.ProgressRecorder = (*Repository)(nil)
//
// # Usage
//
//	repo := sync.NewRepository(db)
//	err := repo.StartPush("ana", 3, 120)
package sync

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Repository handles all sync progress database operations.
type Repository struct {
	db       *gorm.DB
	syncType entities.SyncType
}

// NewRepository creates a new sync repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, syncType: entities.SyncTypeLibrary}
}

// NewRepositoryWithType creates a sync repository for a specific sync type.
func NewRepositoryWithType(db *gorm.DB, syncType entities.SyncType) *Repository {
	return &Repository{db: db, syncType: syncType}
}

// GetSyncProgress retrieves the latest push progress of a user.
func (r *Repository) GetSyncProgress(userID string) (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.db.Where("user_id = ? AND sync_type = ?", userID, r.syncType).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// StartPush creates or resets the user's progress record.
// Implements ProgressRecorder.StartPush.
func (r *Repository) StartPush(userID string, generation uint64, totalItems int) error {
	var progress entities.SyncProgress
	result := r.db.Where("user_id = ? AND sync_type = ?", userID, r.syncType).First(&progress)

	now := time.Now()
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		progress = entities.SyncProgress{
			UserID:     userID,
			SyncType:   r.syncType,
			Status:     entities.SyncStatusRunning,
			Generation: generation,
			TotalItems: totalItems,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		return r.db.Create(&progress).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Reset existing record
	progress.Status = entities.SyncStatusRunning
	progress.Generation = generation
	progress.TotalItems = totalItems
	progress.Error = ""
	progress.StartedAt = now
	progress.UpdatedAt = now
	progress.CompletedAt = nil

	return r.db.Save(&progress).Error
}

// CompletePush marks the push of a generation as completed or failed.
// Results of older generations than the recorded one are ignored.
// Implements ProgressRecorder.CompletePush.
func (r *Repository) CompletePush(userID string, generation uint64, pushErr error) error {
	now := time.Now()
	status := entities.SyncStatusCompleted
	errorMsg := ""
	if pushErr != nil {
		status = entities.SyncStatusFailed
		errorMsg = pushErr.Error()
	}

	return r.db.Model(&entities.SyncProgress{}).
		Where("user_id = ? AND sync_type = ? AND generation <= ?", userID, r.syncType, generation).
		Updates(map[string]any{
			"status":       status,
			"error":        errorMsg,
			"updated_at":   now,
			"completed_at": now,
		}).Error
}

// IsPushRunning checks if a push is currently in progress for the user.
// A push is considered stale if not updated in 10 minutes.
func (r *Repository) IsPushRunning(userID string) (bool, error) {
	var progress entities.SyncProgress
	err := r.db.Where("user_id = ? AND sync_type = ? AND status = ?", userID, r.syncType, entities.SyncStatusRunning).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// Consider push stale if not updated in 10 minutes
	staleThreshold := time.Now().Add(-10 * time.Minute)
	if progress.UpdatedAt.Before(staleThreshold) {
		_ = r.CompletePush(userID, progress.Generation, errors.New("push was interrupted"))
		return false, nil
	}

	return true, nil
}
