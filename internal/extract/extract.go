// Package extract turns meeting transcripts into action items, either via a
// completion backend or a pattern-matching fallback, with meeting boundary
// detection and result caching.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/glimpse-app/glimpse/internal/llm"
	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/pkg/models"
)

const promptTemplate = `Analyze the following transcript and extract action items.

For each action item, identify:
- The task to be done (clear, actionable description)
- Who is responsible (if mentioned - person name or role)
- Any deadline mentioned (date/time)
- Priority level (low, medium, high, critical) based on context

Guidelines:
- Only extract actual tasks, not general discussion points
- Be specific and actionable
- If a deadline is relative (e.g., "next week"), include it as stated
- Confidence score should reflect how clear the action item is (0.0-1.0)

Transcript:
"""
{transcript}
"""

Return ONLY a JSON array in this exact format:
[
  {
    "text": "Complete project proposal",
    "assignee": "John Smith",
    "deadline": "2024-02-15",
    "priority": "high",
    "confidence": 0.95
  }
]

If no action items are found, return an empty array: []`

// rawActionItem mirrors the JSON the backend is asked to produce.
type rawActionItem struct {
	Text       string   `json:"text"`
	Assignee   *string  `json:"assignee"`
	Deadline   *string  `json:"deadline"`
	Priority   *string  `json:"priority"`
	Confidence *float64 `json:"confidence"`
}

// Extractor extracts action items from transcripts. With a nil Completer it
// falls back to pattern matching.
type Extractor struct {
	completer llm.Completer
}

// NewExtractor creates an extractor backed by the given completer, which may
// be nil to force the pattern fallback.
func NewExtractor(completer llm.Completer) *Extractor {
	return &Extractor{completer: completer}
}

// Extract returns the action items found in the transcript. An empty or
// whitespace-only transcript returns an empty list without touching the
// backend. Backend errors and unparsable responses surface as errors.
func (e *Extractor) Extract(ctx context.Context, transcript string, source models.ActionItemSource, sourceID string) ([]models.ActionItem, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, nil
	}

	if e.completer == nil {
		return ExtractPatterns(transcript, source, sourceID), nil
	}

	prompt := strings.Replace(promptTemplate, "{transcript}", transcript, 1)

	response, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion backend failed: %w", err)
	}

	return parseActionItems(response, source, sourceID)
}

// parseActionItems decodes a backend response into action items.
func parseActionItems(response string, source models.ActionItemSource, sourceID string) ([]models.ActionItem, error) {
	jsonStr := extractJSON(response)

	var raw []rawActionItem
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse completion response as JSON: %w", err)
	}

	items := make([]models.ActionItem, 0, len(raw))
	for _, r := range raw {
		item := models.NewActionItem(r.Text)
		item.Source = source
		if sourceID != "" {
			id := sourceID
			item.SourceID = &id
		}
		if r.Assignee != nil && *r.Assignee != "" {
			item.Assignee = r.Assignee
		}
		if r.Deadline != nil {
			if deadline, ok := parseDeadline(*r.Deadline); ok {
				item.Deadline = &deadline
			}
		}
		if r.Priority != nil {
			item.Priority = models.ParsePriority(*r.Priority)
		}
		confidence := 0.5
		if r.Confidence != nil {
			confidence = *r.Confidence
		}
		item.Confidence = models.ClampConfidence(confidence)

		items = append(items, item)
	}

	logger.L().Info("Extracted action items from transcript", "count", len(items))
	return items, nil
}

// extractJSON pulls the JSON payload out of a backend response, handling
// fenced code blocks, then a bare [...] span, then the trimmed response.
func extractJSON(response string) string {
	if start := strings.Index(response, "```json"); start >= 0 {
		rest := response[start+7:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}

	if start := strings.Index(response, "```"); start >= 0 {
		rest := response[start+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			content := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(content, "[") || strings.HasPrefix(content, "{") {
				return content
			}
		}
	}

	if start := strings.Index(response, "["); start >= 0 {
		if end := strings.LastIndex(response, "]"); end > start {
			return response[start : end+1]
		}
	}

	return strings.TrimSpace(response)
}

// deadlineLayouts is the format ladder tried in order for deadline strings.
var deadlineLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC3339,
	time.RFC1123Z,
}

// parseDeadline tries the layout ladder; unparseable deadlines are logged
// and dropped, never fatal.
func parseDeadline(s string) (time.Time, bool) {
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	logger.L().Warn("Could not parse deadline", "deadline", s)
	return time.Time{}, false
}
