package config

// Default locations on disk
const (
	// DefaultDatabasePath is the default path for the library database
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultLegacyDir holds pre-sync library files, one per user
	DefaultLegacyDir = "./legacy"

	// DefaultExportDir receives JSON library exports
	DefaultExportDir = "./exports"
)
