package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Schema migration timeout at startup
const DBMigrateTimeout = 30 * time.Second

// Tracking endpoint rate limit window
const TrackingRateLimitWindow = time.Minute

// Server-side page_view idempotency key lifetime.
// Keys are per UTC day, so anything above 24h covers clock skew at the day boundary.
const PageViewDedupTTL = 48 * time.Hour

// Import limits
const (
	ImportMaxErrorMessages = 10
	DefaultImportMaxBytes  = 10 << 20
)

// Event query limits
const (
	DefaultEventQueryLimit = 100
	MaxEventQueryLimit     = 1000
)
