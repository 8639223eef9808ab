package shared

import "time"

// HTTP Client Configuration
const (
	DefaultShutdownTimeout = 10 * time.Second
)

// Cache Configuration
const (
	PredictionCacheTTL = 30 * time.Minute
	APIKeyCacheTTL     = 1 * time.Minute
)

// API Configuration
const (
	MaxUploadBytes = 10 << 20 // 10MB per image
	APIKeyLength   = 32
)

// Flush Configuration
const (
	FlushInterval   = 1 * time.Minute
	FlushRetryDelay = 5 * time.Second
	MaxFlushRetries = 3
)

// DefaultHistoryLimit caps /predictions/history page size.
const DefaultHistoryLimit = 50
