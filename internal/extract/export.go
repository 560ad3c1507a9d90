package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/glimpse-app/glimpse/internal/retry"
	"github.com/glimpse-app/glimpse/pkg/models"
)

// WebhookExporter delivers action items to external services over HTTP.
// Each target type gets its own payload shape; everything ships as a POST.
type WebhookExporter struct {
	httpClient  *http.Client
	retryPolicy *models.RetryPolicy
}

// NewWebhookExporter creates an exporter with the given request timeout.
// The retry policy may be nil, falling back to the package defaults.
func NewWebhookExporter(timeout time.Duration, policy *models.RetryPolicy) *WebhookExporter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookExporter{
		httpClient:  &http.Client{Timeout: timeout},
		retryPolicy: policy,
	}
}

// Export sends items to one target. A target without a URL is an error.
func (e *WebhookExporter) Export(ctx context.Context, items []models.ActionItem, target models.ExportTarget) error {
	if target.URL == "" {
		return fmt.Errorf("export target %q has no url", target.Type)
	}

	var payload any
	switch target.Type {
	case models.ExportTodoist:
		payload = ToTodoistFormat(items, target.ProjectID)
	case models.ExportNotion:
		payload = ToNotionFormat(items, target.DatabaseID)
	case models.ExportSlack:
		payload = ToSlackFormat(items, target.Channel)
	case models.ExportWebhook:
		payload = items
	default:
		return fmt.Errorf("unknown export target type %q", target.Type)
	}

	return e.send(ctx, target, payload)
}

func (e *WebhookExporter) send(ctx context.Context, target models.ExportTarget, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode export payload: %w", err)
	}

	return retry.Do(ctx, "export_"+string(target.Type), e.retryPolicy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if target.APIToken != "" {
			req.Header.Set("Authorization", "Bearer "+target.APIToken)
		}

		resp, err := e.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send export webhook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("export webhook returned status %d", resp.StatusCode)
		}
		return nil
	})
}

// ToTodoistFormat maps items to Todoist task-creation payloads. Todoist
// priority runs 1 (lowest) to 4 (highest).
func ToTodoistFormat(items []models.ActionItem, projectID string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		assignee := "Unassigned"
		if item.Assignee != nil {
			assignee = *item.Assignee
		}
		task := map[string]any{
			"content": item.Text,
			"description": fmt.Sprintf("Source: %s | Assignee: %s | Confidence: %.0f%%",
				item.Source, assignee, item.Confidence*100),
			"priority": int(item.Priority) + 1,
			"labels":   []string{"glimpse", "action-item"},
		}
		if item.Deadline != nil {
			task["due_string"] = item.Deadline.Format("2006-01-02")
		}
		if projectID != "" {
			task["project_id"] = projectID
		}
		out = append(out, task)
	}
	return out
}

// ToNotionFormat maps items to Notion page-creation payloads.
func ToNotionFormat(items []models.ActionItem, databaseID string) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		assignee := "Unassigned"
		if item.Assignee != nil {
			assignee = *item.Assignee
		}
		props := map[string]any{
			"Name": map[string]any{
				"title": []map[string]any{{"text": map[string]any{"content": item.Text}}},
			},
			"Assignee": map[string]any{
				"rich_text": []map[string]any{{"text": map[string]any{"content": assignee}}},
			},
			"Status": map[string]any{
				"select": map[string]any{"name": string(item.Status)},
			},
			"Priority": map[string]any{
				"select": map[string]any{"name": item.Priority.String()},
			},
			"Source": map[string]any{
				"rich_text": []map[string]any{{"text": map[string]any{"content": string(item.Source)}}},
			},
			"Confidence": map[string]any{
				"number": item.Confidence,
			},
		}
		if item.Deadline != nil {
			props["Deadline"] = map[string]any{
				"date": map[string]any{"start": item.Deadline.Format(time.RFC3339)},
			}
		}
		out = append(out, map[string]any{
			"parent":     map[string]any{"database_id": databaseID},
			"properties": props,
		})
	}
	return out
}

// ToSlackFormat renders items as a single Slack message payload.
func ToSlackFormat(items []models.ActionItem, channel string) map[string]any {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d action item(s) extracted:*\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "• %s", item.Text)
		if item.Assignee != nil {
			fmt.Fprintf(&b, " _(assignee: %s)_", *item.Assignee)
		}
		if item.Deadline != nil {
			fmt.Fprintf(&b, " _(due: %s)_", item.Deadline.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}

	msg := map[string]any{"text": b.String()}
	if channel != "" {
		msg["channel"] = channel
	}
	return msg
}
