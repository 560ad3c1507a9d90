package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/pkg/models"
)

const defaultTimeframeMinutes = 30

// Executor dispatches playbook actions to their effects. Collaborators may
// be nil; the affected actions then degrade to a logged no-op result instead
// of failing.
type Executor struct {
	db         DatabaseManager
	pipes      PipeManager
	notifier   Notifier
	recorder   Recorder
	focus      FocusController
	completer  Completer
	extractor  ItemExtractor
	exporter   ItemExporter
	httpClient *http.Client
}

// Config wires the executor's collaborators.
type Config struct {
	DB             DatabaseManager
	Pipes          PipeManager
	Notifier       Notifier
	Recorder       Recorder
	Focus          FocusController
	Completer      Completer
	Extractor      ItemExtractor
	Exporter       ItemExporter
	WebhookTimeout time.Duration
}

// NewExecutor creates an executor from the given collaborators.
func NewExecutor(cfg Config) *Executor {
	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{
		db:         cfg.DB,
		pipes:      cfg.Pipes,
		notifier:   cfg.Notifier,
		recorder:   cfg.Recorder,
		focus:      cfg.Focus,
		completer:  cfg.Completer,
		extractor:  cfg.Extractor,
		exporter:   cfg.Exporter,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Execute runs one action and records its outcome. Errors are captured in
// the result, never returned, so one failed action cannot abort its
// siblings.
func (e *Executor) Execute(ctx context.Context, act models.Action) models.ActionResult {
	start := time.Now()
	result, err := e.dispatch(ctx, act)
	out := models.ActionResult{
		Action:     act,
		Success:    err == nil,
		Result:     result,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		out.Error = err.Error()
		logger.L().Error("Action failed", "type", act.Type, "error", err)
	}
	return out
}

func (e *Executor) dispatch(ctx context.Context, act models.Action) (map[string]any, error) {
	switch act.Type {
	case models.ActionNotify:
		return e.executeNotify(ctx, act)
	case models.ActionSummarize:
		return e.executeSummarize(ctx, act)
	case models.ActionFocusMode:
		return e.executeFocusMode(act)
	case models.ActionRunPipe:
		return e.executeRunPipe(ctx, act)
	case models.ActionTag:
		return e.executeTag(ctx, act)
	case models.ActionWebhook:
		return e.executeWebhook(ctx, act)
	case models.ActionExtractActionItems:
		return e.executeExtract(ctx, act)
	case models.ActionExportActionItems:
		return e.executeExport(ctx, act)
	case models.ActionStartRecording:
		return e.executeStartRecording(ctx, act)
	case models.ActionStopRecording:
		return e.executeStopRecording(ctx)
	default:
		return nil, fmt.Errorf("unknown action type %q", act.Type)
	}
}

// executeNotify never fails; notifier errors fall back to a log entry.
func (e *Executor) executeNotify(ctx context.Context, act models.Action) (map[string]any, error) {
	persistent := act.Persistent != nil && *act.Persistent

	if e.notifier == nil {
		logger.L().Info("[NOTIFICATION] "+act.Title, "message", act.Message)
		return map[string]any{
			"notified": true,
			"title":    act.Title,
			"message":  act.Message,
			"method":   "log",
		}, nil
	}

	if err := e.notifier.Notify(ctx, act.Title, act.Message, persistent); err != nil {
		logger.L().Warn("Failed to show notification, falling back to log", "error", err)
		return map[string]any{
			"notified": true,
			"title":    act.Title,
			"message":  act.Message,
			"fallback": true,
		}, nil
	}

	return map[string]any{
		"notified": true,
		"title":    act.Title,
		"message":  act.Message,
	}, nil
}

func (e *Executor) executeSummarize(ctx context.Context, act models.Action) (map[string]any, error) {
	timeframe := act.TimeframeMinutes
	if timeframe <= 0 {
		timeframe = defaultTimeframeMinutes
	}
	focus := models.SummaryAll
	if act.Focus != nil {
		focus = *act.Focus
	}
	logger.L().Info("Generating summary", "timeframe_minutes", timeframe, "focus", focus)

	result := map[string]any{
		"summarized": true,
		"timeframe":  timeframe,
		"focus":      string(focus),
	}

	if e.db == nil || e.completer == nil {
		return result, nil
	}

	end := time.Now().UTC()
	text, err := e.db.RecentTranscriptText(ctx, end.Add(-time.Duration(timeframe)*time.Minute), end)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent transcripts: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		result["summary"] = ""
		return result, nil
	}

	summary, err := e.completer.Complete(ctx, summaryPrompt(focus, timeframe, text))
	if err != nil {
		return nil, fmt.Errorf("summary generation failed: %w", err)
	}
	result["summary"] = strings.TrimSpace(summary)
	return result, nil
}

func summaryPrompt(focus models.SummaryFocus, timeframe int, text string) string {
	var ask string
	switch focus {
	case models.SummaryActionItems:
		ask = "List the action items mentioned, one per line."
	case models.SummaryDecisions:
		ask = "List the decisions that were made, one per line."
	case models.SummaryKeyPoints:
		ask = "List the key points discussed, one per line."
	default:
		ask = "Write a short summary of what happened."
	}
	return fmt.Sprintf("The following is a transcript of the last %d minutes of activity.\n%s\n\nTranscript:\n%s", timeframe, ask, text)
}

// executeFocusMode is a pure state mutation and always succeeds.
func (e *Executor) executeFocusMode(act models.Action) (map[string]any, error) {
	enabled := act.Enabled != nil && *act.Enabled

	if e.focus != nil {
		var endTime *time.Time
		if enabled && act.DurationMinutes != nil {
			t := time.Now().UTC().Add(time.Duration(*act.DurationMinutes) * time.Minute)
			endTime = &t
		}
		e.focus.SetFocusMode(enabled, endTime)
	}

	if enabled {
		logger.L().Info("Focus mode enabled", "duration_minutes", act.DurationMinutes)
	} else {
		logger.L().Info("Focus mode disabled")
	}

	return map[string]any{
		"focus_mode":            enabled,
		"duration":              act.DurationMinutes,
		"allowed_apps":          act.AllowedApps,
		"silence_notifications": act.SilenceNotifications,
	}, nil
}

func (e *Executor) executeRunPipe(ctx context.Context, act models.Action) (map[string]any, error) {
	logger.L().Info("Running pipe", "pipe_id", act.PipeID)

	if e.pipes == nil {
		logger.L().Warn("No pipe manager configured, cannot run pipe", "pipe_id", act.PipeID)
		return map[string]any{
			"pipe_run": false,
			"pipe_id":  act.PipeID,
			"error":    "no pipe manager configured",
		}, nil
	}

	info, err := e.pipes.GetPipeInfo(ctx, act.PipeID)
	if err != nil {
		return nil, fmt.Errorf("error accessing pipe manager: %w", err)
	}

	if info != nil && info.Enabled {
		logger.L().Info("Pipe already running", "pipe_id", act.PipeID, "port", info.Port)
		return map[string]any{
			"pipe_run":        true,
			"pipe_id":         act.PipeID,
			"already_running": true,
			"port":            info.Port,
		}, nil
	}

	if err := e.pipes.StartPipe(ctx, act.PipeID, act.Params); err != nil {
		return nil, fmt.Errorf("failed to start pipe: %w", err)
	}

	logger.L().Info("Pipe started", "pipe_id", act.PipeID)
	return map[string]any{
		"pipe_run": true,
		"pipe_id":  act.PipeID,
		"started":  true,
	}, nil
}

// executeTag applies tags to recent vision and audio content. Per-item
// failures are collected, not fatal.
func (e *Executor) executeTag(ctx context.Context, act models.Action) (map[string]any, error) {
	if len(act.Tags) == 0 {
		return map[string]any{
			"tagged": false,
			"reason": "no tags provided",
		}, nil
	}

	if e.db == nil {
		logger.L().Warn("No database manager configured, cannot tag content")
		return map[string]any{
			"tagged":    false,
			"tags":      act.Tags,
			"timeframe": act.TimeframeMinutes,
			"error":     "no database manager configured",
		}, nil
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(act.TimeframeMinutes) * time.Minute)

	visionIDs, err := e.db.SearchRecentFrames(ctx, start, end)
	if err != nil {
		logger.L().Error("Failed to search recent frames", "error", err)
		visionIDs = nil
	}
	audioIDs, err := e.db.SearchRecentAudio(ctx, start, end)
	if err != nil {
		logger.L().Error("Failed to search recent audio", "error", err)
		audioIDs = nil
	}

	var taggedCount int
	var errors []string
	for _, id := range visionIDs {
		if err := e.db.AddTags(ctx, id, TagContentVision, act.Tags); err != nil {
			logger.L().Error("Failed to tag vision content", "id", id, "error", err)
			errors = append(errors, fmt.Sprintf("vision:%d - %v", id, err))
		} else {
			taggedCount++
		}
	}
	for _, id := range audioIDs {
		if err := e.db.AddTags(ctx, id, TagContentAudio, act.Tags); err != nil {
			logger.L().Error("Failed to tag audio content", "id", id, "error", err)
			errors = append(errors, fmt.Sprintf("audio:%d - %v", id, err))
		} else {
			taggedCount++
		}
	}

	logger.L().Info("Tagged recent content",
		"tags", act.Tags,
		"total_tagged", taggedCount,
		"errors", len(errors))

	result := map[string]any{
		"tagged":       true,
		"tags":         act.Tags,
		"timeframe":    act.TimeframeMinutes,
		"vision_items": len(visionIDs),
		"audio_items":  len(audioIDs),
		"total_tagged": taggedCount,
	}
	if len(errors) > 0 {
		result["errors"] = errors
	}
	return result, nil
}

// executeWebhook issues the HTTP call directly; a non-2xx response or
// network failure is a hard action failure with no retry at this layer.
func (e *Executor) executeWebhook(ctx context.Context, act models.Action) (map[string]any, error) {
	logger.L().Info("Calling webhook", "url", act.URL, "method", act.Method)

	parsed, err := url.Parse(act.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid webhook URL %q", act.URL)
	}

	method := string(act.Method)
	if method == "" {
		method = http.MethodPost
	}

	var bodyReader *bytes.Reader
	if act.Body != nil {
		encoded, err := json.Marshal(act.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode webhook body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, parsed.String(), bodyReader)
	if err != nil {
		return nil, err
	}
	for key, value := range act.Headers {
		req.Header.Set(key, value)
	}
	if act.Body != nil && (method == http.MethodPost || method == http.MethodPut) {
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	durationMS := time.Since(start).Milliseconds()

	var responseBody any
	if decodeErr := json.NewDecoder(resp.Body).Decode(&responseBody); decodeErr != nil {
		responseBody = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L().Warn("Webhook returned error status", "url", act.URL, "status", resp.StatusCode)
		return nil, fmt.Errorf("webhook returned error status: %d", resp.StatusCode)
	}

	logger.L().Info("Webhook call successful", "url", act.URL, "duration_ms", durationMS)
	return map[string]any{
		"webhook_called": true,
		"url":            act.URL,
		"method":         method,
		"status_code":    resp.StatusCode,
		"duration_ms":    durationMS,
		"response":       responseBody,
	}, nil
}

func (e *Executor) executeExtract(ctx context.Context, act models.Action) (map[string]any, error) {
	timeframe := act.TimeframeMinutes
	if timeframe <= 0 {
		timeframe = defaultTimeframeMinutes
	}
	logger.L().Info("Extracting action items", "timeframe_minutes", timeframe)

	if e.db == nil || e.extractor == nil {
		return map[string]any{
			"extracted":    true,
			"action_items": []any{},
		}, nil
	}

	end := time.Now().UTC()
	text, err := e.db.RecentTranscriptText(ctx, end.Add(-time.Duration(timeframe)*time.Minute), end)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent transcripts: %w", err)
	}

	items, err := e.extractor.Extract(ctx, text, models.SourceMeeting, "")
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	if act.MinConfidence != nil {
		filtered := items[:0]
		for _, item := range items {
			if item.Confidence >= *act.MinConfidence {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	if len(items) > 0 {
		if err := e.db.SaveActionItems(ctx, items); err != nil {
			return nil, fmt.Errorf("failed to save action items: %w", err)
		}
	}

	if e.exporter != nil {
		for _, target := range act.AutoExport {
			if !target.Enabled {
				continue
			}
			if err := e.exporter.Export(ctx, items, target); err != nil {
				logger.L().Error("Failed to export action items", "target", target.Type, "error", err)
			}
		}
	}

	return map[string]any{
		"extracted":    true,
		"action_items": len(items),
	}, nil
}

func (e *Executor) executeExport(ctx context.Context, act models.Action) (map[string]any, error) {
	if act.Target == nil {
		return nil, fmt.Errorf("export action has no target")
	}
	logger.L().Info("Exporting action items", "target", act.Target.Type)

	if e.db == nil || e.exporter == nil {
		return map[string]any{
			"exported": true,
			"target":   string(act.Target.Type),
		}, nil
	}

	items, err := e.db.ListActionItems(ctx, act.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list action items: %w", err)
	}

	if err := e.exporter.Export(ctx, items, *act.Target); err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}

	return map[string]any{
		"exported": true,
		"target":   string(act.Target.Type),
		"count":    len(items),
	}, nil
}

func (e *Executor) executeStartRecording(ctx context.Context, act models.Action) (map[string]any, error) {
	logger.L().Info("Starting recording", "focus_app", act.FocusApp, "tag", act.RecordingTag)

	if e.recorder == nil {
		return map[string]any{
			"recording_started": false,
			"error":             "no recorder configured",
		}, nil
	}
	if err := e.recorder.StartRecording(ctx, act.FocusApp, act.RecordingTag); err != nil {
		return nil, fmt.Errorf("failed to start recording: %w", err)
	}
	return map[string]any{
		"recording_started": true,
	}, nil
}

func (e *Executor) executeStopRecording(ctx context.Context) (map[string]any, error) {
	logger.L().Info("Stopping recording")

	if e.recorder == nil {
		return map[string]any{
			"recording_stopped": false,
			"error":             "no recorder configured",
		}, nil
	}
	if err := e.recorder.StopRecording(ctx); err != nil {
		return nil, fmt.Errorf("failed to stop recording: %w", err)
	}
	return map[string]any{
		"recording_stopped": true,
	}, nil
}
