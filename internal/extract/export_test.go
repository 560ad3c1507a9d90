package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/pkg/models"
)

func noRetry() *models.RetryPolicy {
	zero := 0
	return &models.RetryPolicy{MaxRetries: &zero}
}

func sampleItems() []models.ActionItem {
	assignee := "Alice"
	deadline := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	item := models.NewActionItem("Send the revised proposal")
	item.Assignee = &assignee
	item.Deadline = &deadline
	item.Priority = models.PriorityCritical
	item.Confidence = 0.9
	return []models.ActionItem{item}
}

func TestWebhookExporter_SendsPayload(t *testing.T) {
	testInitLogger(t)

	var received []map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exporter := NewWebhookExporter(5*time.Second, noRetry())
	err := exporter.Export(context.Background(), sampleItems(), models.ExportTarget{
		Type:     models.ExportTodoist,
		Enabled:  true,
		URL:      server.URL,
		APIToken: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	require.Len(t, received, 1)
	assert.Equal(t, "Send the revised proposal", received[0]["content"])
	// Todoist priority runs 1-4 with 4 as highest.
	assert.Equal(t, float64(4), received[0]["priority"])
	assert.Equal(t, "2026-02-15", received[0]["due_string"])
}

func TestWebhookExporter_Non2xxFails(t *testing.T) {
	testInitLogger(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	exporter := NewWebhookExporter(5*time.Second, noRetry())
	err := exporter.Export(context.Background(), sampleItems(), models.ExportTarget{
		Type: models.ExportWebhook, Enabled: true, URL: server.URL,
	})
	assert.ErrorContains(t, err, "502")
}

func TestWebhookExporter_MissingURL(t *testing.T) {
	testInitLogger(t)
	exporter := NewWebhookExporter(5*time.Second, noRetry())
	err := exporter.Export(context.Background(), sampleItems(), models.ExportTarget{Type: models.ExportNotion})
	assert.ErrorContains(t, err, "no url")
}

func TestToTodoistFormat_PriorityScale(t *testing.T) {
	priorities := map[models.ActionItemPriority]int{
		models.PriorityLow:      1,
		models.PriorityMedium:   2,
		models.PriorityHigh:     3,
		models.PriorityCritical: 4,
	}
	for priority, want := range priorities {
		item := models.NewActionItem("some long enough task")
		item.Priority = priority
		out := ToTodoistFormat([]models.ActionItem{item}, "")
		require.Len(t, out, 1)
		assert.Equal(t, want, out[0]["priority"])
	}
}

func TestToNotionFormat_Deadline(t *testing.T) {
	out := ToNotionFormat(sampleItems(), "db-123")
	require.Len(t, out, 1)
	parent := out[0]["parent"].(map[string]any)
	assert.Equal(t, "db-123", parent["database_id"])
	props := out[0]["properties"].(map[string]any)
	assert.Contains(t, props, "Deadline")

	noDeadline := models.NewActionItem("task without a deadline")
	out = ToNotionFormat([]models.ActionItem{noDeadline}, "db-123")
	props = out[0]["properties"].(map[string]any)
	assert.NotContains(t, props, "Deadline")
}

func TestToSlackFormat(t *testing.T) {
	msg := ToSlackFormat(sampleItems(), "#standup")
	assert.Equal(t, "#standup", msg["channel"])
	text := msg["text"].(string)
	assert.Contains(t, text, "Send the revised proposal")
	assert.Contains(t, text, "Alice")
	assert.Contains(t, text, "2026-02-15")
}
