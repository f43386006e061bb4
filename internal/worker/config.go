// Package worker provides background reading ingestion for CivicAir.
package worker

import "time"

// RefreshConfig holds configuration for the reading ingestion job.
type RefreshConfig struct {
	// Concurrency is the number of locations fetched in parallel.
	// Default: 3
	Concurrency int

	// Timeout bounds the provider fan-out for one location.
	// Default: 30 seconds
	Timeout time.Duration

	// SkipFallbackData drops results that came from the database fallback
	// tier instead of a live provider, so the store never feeds on itself.
	// Default: true
	SkipFallbackData bool
}

// DefaultRefreshConfig returns the default ingestion configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency:      3,
		Timeout:          30 * time.Second,
		SkipFallbackData: true,
	}
}
