package models

import "time"

// Config is the root configuration structure for the glimpse daemon.
type Config struct {
	Application ApplicationSettings `yaml:"application"`
	Engine      EngineSettings      `yaml:"engine"`
	Extraction  ExtractionSettings  `yaml:"extraction"`
	LLM         LLMSettings         `yaml:"llm"`
	Storage     StorageSettings     `yaml:"storage"`
}

// ApplicationSettings holds global settings.
type ApplicationSettings struct {
	LogLevel    string `yaml:"log_level"`     // "debug", "info", "warn", "error"
	LogFormat   string `yaml:"log_format"`    // "text", "json"
	PIDFilePath string `yaml:"pid_file_path"` // path to store the process ID
}

// EngineSettings tunes the playbook engine.
type EngineSettings struct {
	ScanInterval   Duration    `yaml:"scan_interval"`   // trigger scan tick, default 5s
	EventQueueSize int         `yaml:"event_queue_size"` // ingestion queue capacity
	WebhookTimeout Duration    `yaml:"webhook_timeout"` // HTTP client timeout for webhook actions
	DefaultRetry   RetryPolicy `yaml:"default_retry"`   // retry policy for completion/export calls
}

// ExtractionSettings tunes the action-item extraction subsystem.
type ExtractionSettings struct {
	MinMeetingDurationMinutes int            `yaml:"min_meeting_duration_minutes"`
	ExtractionCooldownMinutes int            `yaml:"extraction_cooldown_minutes"`
	MinConfidenceThreshold    float64        `yaml:"min_confidence_threshold"`
	CacheEntries              int            `yaml:"cache_entries"`
	NotifyUser                bool           `yaml:"notify_user"`
	AutoExport                []ExportTarget `yaml:"auto_export"`
}

// LLMSettings configures the completion backend. An empty BaseURL disables
// the backend; extraction then falls back to pattern matching.
type LLMSettings struct {
	BaseURL string   `yaml:"base_url"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// StorageSettings configures persistence. An empty DataDir runs in-memory.
type StorageSettings struct {
	DataDir string `yaml:"data_dir"`
}

// RetryPolicy defines parameters for retrying failed backend calls.
// Pointers distinguish an explicitly-set zero from an unset field so the
// policy can be merged with defaults.
type RetryPolicy struct {
	MaxRetries    *int     `yaml:"max_retries"`
	Delay         *float64 `yaml:"delay"`          // initial delay in seconds
	BackoffFactor *float64 `yaml:"backoff_factor"` // exponential backoff multiplier
}

// Duration wraps time.Duration so YAML strings like "5s" or "1h" parse.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	var err error
	d.Duration, err = time.ParseDuration(s)
	return err
}
