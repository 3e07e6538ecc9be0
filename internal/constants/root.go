package constants

import "time"

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitual/habitual.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is used when persisting completion and creation timestamps
	TimestampFormat = time.RFC3339Nano

	// DefaultTimezone is the reference location for calendar-day comparisons
	DefaultTimezone = "UTC"

	// Calendar window sizes
	CalendarDays28     = 28
	CalendarDays30     = 30
	MaxCalendarDays    = 366
	LegacyWindowDays   = 30
	InsightsWindowDays = 30

	// Habit validation limits
	MaxHabitNameLen        = 100
	MaxHabitDescriptionLen = 500

	// Insights constants
	InsightsReadyThreshold = 5
	DefaultOllamaModel     = "phi"
	OllamaGeneratePath     = "/api/generate"
	InsightsTimeout        = 60 * time.Second

	// Server constants
	DefaultServerAddr    = "127.0.0.1:5000"
	ServerLockfileName   = "habitual-server.lock"
	ServerReadTimeout    = 10 * time.Second
	ServerWriteTimeout   = 90 * time.Second
	ServerIdleTimeout    = time.Minute
	ServerShutdownWindow = 30 * time.Second

	// SSH constants
	DefaultSSHAddr    = "127.0.0.1:23234"
	DefaultSSHKeyName = "habitual_ed25519"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitual-"
	BackupFileSuffix = ".db"
)

// Log file settings
const (
	LogDirName    = "logs"
	LogFileName   = "habitual.log"
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28
)
