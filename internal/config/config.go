package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Legacy
		Sync
		Export
		Tasks
		Session
		Lookup
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Legacy struct {
		Dir string // Directory with per-user legacy library files (<user>.json)
	}
	Sync struct {
		Debounce    time.Duration // Quiet period before a snapshot is pushed (default: 2s)
		PushTimeout time.Duration // Upper bound for a single push (default: 30s)
	}
	Export struct {
		Dir             string
		ScheduleEnabled bool
		Schedule        string        // Cron format: "0 3 * * *" = daily at 03:00
		Timeout         time.Duration // Upper bound for one scheduled run
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Session struct {
		Lifetime      time.Duration
		SecureCookies bool // Set to false for local dev without HTTPS
		CookieName    string
	}
	Lookup struct {
		Enabled  bool
		BaseURL  string
		Timeout  time.Duration
		Interval time.Duration // Minimum delay between two requests
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("legacy_dir", DefaultLegacyDir)

	// Sync engine defaults
	v.SetDefault("sync_debounce", "2s")
	v.SetDefault("sync_push_timeout", "30s")

	// Export defaults
	v.SetDefault("export_dir", DefaultExportDir)
	v.SetDefault("export_schedule_enabled", false)
	v.SetDefault("export_schedule", "0 3 * * *") // Daily at 03:00
	v.SetDefault("export_timeout", "10m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Session defaults
	v.SetDefault("session_lifetime", "720h") // 30 days
	v.SetDefault("session_secure_cookies", true)
	v.SetDefault("session_cookie_name", "bookshelf_session")

	// Book lookup defaults
	v.SetDefault("lookup_enabled", true)
	v.SetDefault("lookup_base_url", "https://openlibrary.org")
	v.SetDefault("lookup_timeout", "10s")
	v.SetDefault("lookup_interval", "1s") // OpenLibrary asks for at most 1 request per second

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Legacy: Legacy{
			Dir: v.GetString("LEGACY_DIR"),
		},
		Sync: Sync{
			Debounce:    v.GetDuration("SYNC_DEBOUNCE"),
			PushTimeout: v.GetDuration("SYNC_PUSH_TIMEOUT"),
		},
		Export: Export{
			Dir:             v.GetString("EXPORT_DIR"),
			ScheduleEnabled: v.GetBool("EXPORT_SCHEDULE_ENABLED"),
			Schedule:        v.GetString("EXPORT_SCHEDULE"),
			Timeout:         v.GetDuration("EXPORT_TIMEOUT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Session: Session{
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			SecureCookies: v.GetBool("SESSION_SECURE_COOKIES"),
			CookieName:    v.GetString("SESSION_COOKIE_NAME"),
		},
		Lookup: Lookup{
			Enabled:  v.GetBool("LOOKUP_ENABLED"),
			BaseURL:  v.GetString("LOOKUP_BASE_URL"),
			Timeout:  v.GetDuration("LOOKUP_TIMEOUT"),
			Interval: v.GetDuration("LOOKUP_INTERVAL"),
		},
	}
}
