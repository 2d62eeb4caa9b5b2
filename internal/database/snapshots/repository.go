// Package snapshots stores whole-library snapshots per user.
//
// A snapshot is spread over four tables: libraries (scalars and the
// existence flag), books, sagas and scan_records. List rows are keyed by
// their position in the snapshot, so ids may repeat. SaveAll replaces every
// row of the user inside one transaction, so readers see either the old or
// the new snapshot.
//
// # Usage
//
//	repo := snapshots.NewRepository(db)
//	if ok, _ := repo.Exists(ctx, "ana"); ok {
//		snap, err := repo.LoadAll(ctx, "ana")
//	}
package snapshots

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const batchSize = 200

// Repository handles all snapshot database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new snapshots repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether a snapshot was ever saved for userID.
func (r *Repository) Exists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.LibraryRecord{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LoadAll reads the user's snapshot. It returns gorm.ErrRecordNotFound when
// nothing was saved.
func (r *Repository) LoadAll(ctx context.Context, userID string) (*entities.Snapshot, error) {
	db := r.db.WithContext(ctx)

	var record entities.LibraryRecord
	if err := db.Where("user_id = ?", userID).First(&record).Error; err != nil {
		return nil, err
	}

	snap := &entities.Snapshot{
		Books:                    []entities.Book{},
		Sagas:                    []entities.Saga{},
		Config:                   record.Config,
		ScanHistory:              []entities.ScanRecord{},
		SearchHistory:            record.SearchHistory,
		CurrentPoints:            record.CurrentPoints,
		TotalEarned:              record.TotalEarned,
		BooksPurchasedWithPoints: record.BooksPurchasedWithPoints,
		UpdatedAt:                record.UpdatedAt,
	}
	if snap.SearchHistory == nil {
		snap.SearchHistory = []string{}
	}

	if err := db.Where("user_id = ?", userID).Order("position").Find(&snap.Books).Error; err != nil {
		return nil, fmt.Errorf("failed to load books: %w", err)
	}
	if err := db.Where("user_id = ?", userID).Order("position").Find(&snap.Sagas).Error; err != nil {
		return nil, fmt.Errorf("failed to load sagas: %w", err)
	}
	if err := db.Where("user_id = ?", userID).Order("position").Find(&snap.ScanHistory).Error; err != nil {
		return nil, fmt.Errorf("failed to load scan history: %w", err)
	}

	// Positions are a storage detail.
	for i := range snap.Books {
		snap.Books[i].Position = 0
	}
	for i := range snap.Sagas {
		snap.Sagas[i].Position = 0
	}
	for i := range snap.ScanHistory {
		snap.ScanHistory[i].Position = 0
	}

	return snap, nil
}

// SaveAll replaces the user's snapshot.
func (r *Repository) SaveAll(ctx context.Context, userID string, snapshot *entities.Snapshot) error {
	if snapshot == nil {
		return errors.New("snapshot is nil")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&entities.Book{}, &entities.Saga{}, &entities.ScanRecord{}} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}

		var existing entities.LibraryRecord
		if err := tx.Where("user_id = ?", userID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}

		record := entities.LibraryRecord{
			UserID:                   userID,
			CreatedAt:                existing.CreatedAt,
			Config:                   snapshot.Config,
			SearchHistory:            snapshot.SearchHistory,
			CurrentPoints:            snapshot.CurrentPoints,
			TotalEarned:              snapshot.TotalEarned,
			BooksPurchasedWithPoints: snapshot.BooksPurchasedWithPoints,
		}
		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("failed to save library: %w", err)
		}

		if len(snapshot.Books) > 0 {
			books := make([]entities.Book, len(snapshot.Books))
			for i, b := range snapshot.Books {
				b.UserID = userID
				b.Position = i
				books[i] = b
			}
			if err := tx.CreateInBatches(books, batchSize).Error; err != nil {
				return fmt.Errorf("failed to save books: %w", err)
			}
		}

		if len(snapshot.Sagas) > 0 {
			sagas := make([]entities.Saga, len(snapshot.Sagas))
			for i, s := range snapshot.Sagas {
				s.UserID = userID
				s.Position = i
				sagas[i] = s
			}
			if err := tx.CreateInBatches(sagas, batchSize).Error; err != nil {
				return fmt.Errorf("failed to save sagas: %w", err)
			}
		}

		if len(snapshot.ScanHistory) > 0 {
			scans := make([]entities.ScanRecord, len(snapshot.ScanHistory))
			for i, s := range snapshot.ScanHistory {
				s.UserID = userID
				s.Position = i
				scans[i] = s
			}
			if err := tx.CreateInBatches(scans, batchSize).Error; err != nil {
				return fmt.Errorf("failed to save scan history: %w", err)
			}
		}

		return nil
	})
}

// Delete removes everything stored for userID.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&entities.Book{}, &entities.Saga{}, &entities.ScanRecord{}, &entities.LibraryRecord{}} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUsers returns the ids of every user with a stored snapshot.
func (r *Repository) ListUsers(ctx context.Context) ([]string, error) {
	var users []string
	err := r.db.WithContext(ctx).Model(&entities.LibraryRecord{}).Order("user_id").Pluck("user_id", &users).Error
	return users, err
}
