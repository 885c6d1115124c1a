// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() returns a Config populated with defaults.
//   - Load(ctx) layers defaults, an optional YAML file and WUDAO_* env vars.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the scoring job queue shared by all sessions.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// UploadStepImage and UploadStepVideo are the progress increments per tick.
	UploadStepImage int `koanf:"upload_step_image"`
	UploadStepVideo int `koanf:"upload_step_video"`

	// UploadTickMS is the interval between upload progress ticks.
	UploadTickMS int `koanf:"upload_tick_ms"`

	// UploadBudgetMS bounds the whole upload phase; progress jumps to 100 when it runs out.
	UploadBudgetMS int `koanf:"upload_budget_ms"`

	// AnalysisLatencyImageMS and AnalysisLatencyVideoMS drive the simulated scorer.
	AnalysisLatencyImageMS int `koanf:"analysis_latency_image_ms"`
	AnalysisLatencyVideoMS int `koanf:"analysis_latency_video_ms"`

	// ScorerURL switches from the simulated scorer to the HTTP scorer when set.
	ScorerURL string `koanf:"scorer_url"`

	// ScorerTimeoutMS bounds one HTTP scorer call.
	ScorerTimeoutMS int `koanf:"scorer_timeout_ms"`

	// ScorerRatePerSec caps outbound scorer requests; 0 disables the limiter.
	ScorerRatePerSec float64 `koanf:"scorer_rate_per_sec"`

	// BreakerFailures is the consecutive failure count that opens the breaker.
	BreakerFailures int `koanf:"breaker_failures"`

	// SessionTTLMinutes expires idle sessions.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// CatalogFoldCase enables case-insensitive catalog search.
	CatalogFoldCase bool `koanf:"catalog_fold_case"`

	// MaxUploadMB caps artifact uploads over HTTP.
	MaxUploadMB int `koanf:"max_upload_mb"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		QueueSize:              1_000,
		WorkerCount:            runtime.NumCPU() * 2,
		UploadStepImage:        10,
		UploadStepVideo:        5,
		UploadTickMS:           300,
		UploadBudgetMS:         3000,
		AnalysisLatencyImageMS: 2000,
		AnalysisLatencyVideoMS: 3000,
		ScorerTimeoutMS:        120_000,
		ScorerRatePerSec:       5,
		BreakerFailures:        5,
		SessionTTLMinutes:      30,
		CatalogFoldCase:        false,
		MaxUploadMB:            200,
	}
}

// UploadTick returns UploadTickMS as a duration.
func (c *Config) UploadTick() time.Duration {
	return time.Duration(c.UploadTickMS) * time.Millisecond
}

// UploadBudget returns UploadBudgetMS as a duration.
func (c *Config) UploadBudget() time.Duration {
	return time.Duration(c.UploadBudgetMS) * time.Millisecond
}

// AnalysisLatencyImage returns AnalysisLatencyImageMS as a duration.
func (c *Config) AnalysisLatencyImage() time.Duration {
	return time.Duration(c.AnalysisLatencyImageMS) * time.Millisecond
}

// AnalysisLatencyVideo returns AnalysisLatencyVideoMS as a duration.
func (c *Config) AnalysisLatencyVideo() time.Duration {
	return time.Duration(c.AnalysisLatencyVideoMS) * time.Millisecond
}

// ScorerTimeout returns ScorerTimeoutMS as a duration.
func (c *Config) ScorerTimeout() time.Duration {
	return time.Duration(c.ScorerTimeoutMS) * time.Millisecond
}

// SessionTTL returns SessionTTLMinutes as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
