package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/glimpse-app/glimpse/pkg/models"
)

// ValidateConfig checks the configuration for logical consistency.
// Cron expressions inside playbooks are deliberately not validated here:
// malformed expressions surface as evaluation errors at scan time, scoped to
// the playbook that carries them.
func ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	if err := validateApplicationSettings(&cfg.Application); err != nil {
		return fmt.Errorf("invalid application settings: %w", err)
	}
	if err := validateEngineSettings(&cfg.Engine); err != nil {
		return fmt.Errorf("invalid engine settings: %w", err)
	}
	if err := validateExtractionSettings(&cfg.Extraction); err != nil {
		return fmt.Errorf("invalid extraction settings: %w", err)
	}
	if cfg.LLM.BaseURL != "" {
		if _, err := url.Parse(cfg.LLM.BaseURL); err != nil {
			return fmt.Errorf("invalid llm base_url: %w", err)
		}
	}
	return nil
}

func validateApplicationSettings(app *models.ApplicationSettings) error {
	if app.LogLevel != "" {
		level := strings.ToLower(app.LogLevel)
		if level != "debug" && level != "info" && level != "warn" && level != "error" {
			return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", app.LogLevel)
		}
	}
	if app.LogFormat != "" {
		format := strings.ToLower(app.LogFormat)
		if format != "text" && format != "json" {
			return fmt.Errorf("invalid log_format: %s (must be text or json)", app.LogFormat)
		}
	}
	return nil
}

func validateEngineSettings(eng *models.EngineSettings) error {
	if eng.ScanInterval.Duration <= 0 {
		return errors.New("scan_interval must be a positive duration")
	}
	if eng.EventQueueSize <= 0 {
		return errors.New("event_queue_size must be positive")
	}
	if eng.WebhookTimeout.Duration <= 0 {
		return errors.New("webhook_timeout must be a positive duration")
	}
	return validateRetryPolicy(&eng.DefaultRetry, "default_retry")
}

func validateExtractionSettings(ext *models.ExtractionSettings) error {
	if ext.MinConfidenceThreshold < 0 || ext.MinConfidenceThreshold > 1 {
		return fmt.Errorf("min_confidence_threshold must be within [0,1]: %v", ext.MinConfidenceThreshold)
	}
	for i, target := range ext.AutoExport {
		if err := ValidateExportTarget(&target); err != nil {
			return fmt.Errorf("invalid auto_export target at index %d: %w", i, err)
		}
	}
	return nil
}

// ValidateExportTarget checks an export destination for required fields.
func ValidateExportTarget(target *models.ExportTarget) error {
	switch target.Type {
	case models.ExportTodoist:
		if target.APIToken == "" {
			return errors.New("todoist target requires api_token")
		}
	case models.ExportNotion:
		if target.APIToken == "" || target.DatabaseID == "" {
			return errors.New("notion target requires api_token and database_id")
		}
	case models.ExportWebhook, models.ExportSlack:
		if target.URL == "" {
			return errors.New("webhook/slack target requires url")
		}
		if _, err := url.ParseRequestURI(target.URL); err != nil {
			return fmt.Errorf("invalid target url: %w", err)
		}
	default:
		return fmt.Errorf("unknown export target type: %s", target.Type)
	}
	return nil
}

func validateRetryPolicy(policy *models.RetryPolicy, fieldName string) error {
	if policy == nil {
		return nil
	}
	if policy.MaxRetries != nil && *policy.MaxRetries < 0 {
		return fmt.Errorf("%s: max_retries cannot be negative", fieldName)
	}
	if policy.Delay != nil && *policy.Delay < 0 {
		return fmt.Errorf("%s: delay cannot be negative", fieldName)
	}
	if policy.BackoffFactor != nil && *policy.BackoffFactor < 1.0 {
		return fmt.Errorf("%s: backoff_factor cannot be less than 1.0", fieldName)
	}
	return nil
}
