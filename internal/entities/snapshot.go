package entities

import (
	"time"
)

// Snapshot is the full persisted shape of one user's library. It is what
// gets pushed to and pulled from the remote store and what exports contain.
type Snapshot struct {
	Books         []Book       `json:"books"`
	Sagas         []Saga       `json:"sagas"`
	Config        Settings     `json:"config"`
	ScanHistory   []ScanRecord `json:"scanHistory"`
	SearchHistory []string     `json:"searchHistory"`

	CurrentPoints            int `json:"currentPoints"`
	TotalEarned              int `json:"totalEarned"`
	BooksPurchasedWithPoints int `json:"booksPurchasedWithPoints"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// LibraryRecord holds the scalar part of a snapshot. Its presence is the
// remote store's existence flag for a user.
type LibraryRecord struct {
	UserID        string   `gorm:"primaryKey;size:128"`
	Config        Settings `gorm:"serializer:json;type:text"`
	SearchHistory []string `gorm:"serializer:json;type:text"`

	CurrentPoints            int
	TotalEarned              int
	BooksPurchasedWithPoints int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LibraryRecord) TableName() string {
	return "libraries"
}
