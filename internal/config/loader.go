package config

import (
	"fmt"
	"os"
	"time"

	"github.com/glimpse-app/glimpse/pkg/models"
	"gopkg.in/yaml.v3"
)

// Defaults applied to unset fields after loading.
const (
	DefaultScanInterval   = 5 * time.Second
	DefaultQueueSize      = 1000
	DefaultWebhookTimeout = 30 * time.Second

	DefaultMinMeetingDuration = 5  // minutes
	DefaultExtractionCooldown = 30 // minutes
	DefaultMinConfidence      = 0.7
	DefaultCacheEntries       = 1000
)

// LoadConfig reads a YAML configuration file, applies defaults, and
// validates the result.
func LoadConfig(configPath string) (*models.Config, error) {
	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	var cfg models.Config
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", configPath, err)
	}

	ApplyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields with their documented defaults.
func ApplyDefaults(cfg *models.Config) {
	if cfg.Engine.ScanInterval.Duration <= 0 {
		cfg.Engine.ScanInterval.Duration = DefaultScanInterval
	}
	if cfg.Engine.EventQueueSize <= 0 {
		cfg.Engine.EventQueueSize = DefaultQueueSize
	}
	if cfg.Engine.WebhookTimeout.Duration <= 0 {
		cfg.Engine.WebhookTimeout.Duration = DefaultWebhookTimeout
	}
	if cfg.Extraction.MinMeetingDurationMinutes <= 0 {
		cfg.Extraction.MinMeetingDurationMinutes = DefaultMinMeetingDuration
	}
	if cfg.Extraction.ExtractionCooldownMinutes <= 0 {
		cfg.Extraction.ExtractionCooldownMinutes = DefaultExtractionCooldown
	}
	if cfg.Extraction.MinConfidenceThreshold <= 0 {
		cfg.Extraction.MinConfidenceThreshold = DefaultMinConfidence
	}
	if cfg.Extraction.CacheEntries <= 0 {
		cfg.Extraction.CacheEntries = DefaultCacheEntries
	}
	if cfg.LLM.Timeout.Duration <= 0 {
		cfg.LLM.Timeout.Duration = 60 * time.Second
	}
}
