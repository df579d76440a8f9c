// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - External errors are wrapped via this package's error kinds.
package config

import "runtime"

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence backend: memory or sqlite.
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// RefreshQueueSize bounds the in-memory profile refresh queue.
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the event-id idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// WindowSize is how many recent events derived computations read.
	WindowSize int `koanf:"window_size"`

	// MaxHistoryLimit caps GET score history ?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`

	// MaxOpenTasks caps how many tasks one generation run materializes.
	MaxOpenTasks int `koanf:"max_open_tasks"`

	// TaskCooldownDays is how long a completed task suppresses its rule.
	TaskCooldownDays int `koanf:"task_cooldown_days"`

	// Scoring band boundaries and scaling divisors. The component/band
	// shape is fixed; only the numeric thresholds are tunable.
	EmergingMin       int `koanf:"emerging_min"`
	VCReadyMin        int `koanf:"vc_ready_min"`
	EngagementDivisor int `koanf:"engagement_divisor"`
	FollowerDivisor   int `koanf:"follower_divisor"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9090",
		Store:             StoreMemory,
		SQLitePath:        "growthengine.db",
		RefreshQueueSize:  10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
		WindowSize:        100,
		MaxHistoryLimit:   100,
		MaxOpenTasks:      5,
		TaskCooldownDays:  7,
		EmergingMin:       50,
		VCReadyMin:        80,
		EngagementDivisor: 10,
		FollowerDivisor:   2,
	}
}
