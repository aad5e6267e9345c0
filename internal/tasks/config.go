package tasks

import "time"

// Config holds configuration for the background import queue.
type Config struct {
	// Workers is the number of concurrent task workers. Batches into the
	// same collection still run one at a time. Default: 1
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 45m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    45 * time.Minute,
		CleanupInterval: 1 * time.Hour,
	}
}
