package config

import "time"

// Application constants for the taskgate front end
const (
	// Application Info
	AppName    = "taskgate"
	AppVersion = "1.0.0"

	// Default activation and task-intake endpoints
	DefaultActivationURL = "https://kerrey-severss.vercel.app/activate"
	DefaultSubmissionURL = "https://kerrey-api-vercel.vercel.app/submit_task"
	DefaultUserAgent     = "taskgate-client/1.0"

	// Durable store keys, kept identical to the browser storage keys
	KeyDeviceID     = "browser_id"
	KeyLicenseToken = "license_key"
	KeyLastEmail    = "last_email"

	// Store drivers
	StorageDriverFile   = "file"
	StorageDriverSQLite = "sqlite"
	StorageDriverMemory = "memory"

	// Default file names (relative to the data directory)
	DefaultStoreFile  = "session.json"
	DefaultSQLiteFile = "session.db"

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 10

	// File Paths (relative to the base directory)
	DefaultDataDir = "data"
	DefaultLogsDir = "logs"
)
