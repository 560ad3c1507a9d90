package extract

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/pkg/models"
)

// testInitLogger initializes the logger for test execution, discarding output.
func testInitLogger(t *testing.T) {
	t.Helper()
	settings := models.ApplicationSettings{LogLevel: "error", LogFormat: "text"}
	err := logger.Init(settings, io.Discard)
	require.NoError(t, err, "Failed to initialize logger for test")
}

// fakeCompleter returns a canned response or error.
type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExtract_EmptyTranscript(t *testing.T) {
	testInitLogger(t)
	completer := &fakeCompleter{response: "[]"}
	e := NewExtractor(completer)

	items, err := e.Extract(context.Background(), "   \n\t ", models.SourceMeeting, "m1")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, completer.calls, "backend must not be called for empty transcript")
}

func TestExtract_FencedJSONResponse(t *testing.T) {
	testInitLogger(t)
	completer := &fakeCompleter{response: "Here are the items:\n```json\n[\n" +
		`{"text": "Complete project proposal", "assignee": "Alice", "deadline": "2026-02-15", "priority": "high", "confidence": 0.95}` +
		"\n]\n```"}
	e := NewExtractor(completer)

	items, err := e.Extract(context.Background(), "some transcript", models.SourceMeeting, "m1")
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Complete project proposal", item.Text)
	require.NotNil(t, item.Assignee)
	assert.Equal(t, "Alice", *item.Assignee)
	require.NotNil(t, item.Deadline)
	assert.Equal(t, "2026-02-15", item.Deadline.Format("2006-01-02"))
	assert.Equal(t, models.PriorityHigh, item.Priority)
	assert.InDelta(t, 0.95, item.Confidence, 0.001)
	assert.Equal(t, models.ItemPending, item.Status)
	assert.Equal(t, models.SourceMeeting, item.Source)
	require.NotNil(t, item.SourceID)
	assert.Equal(t, "m1", *item.SourceID)
}

func TestExtract_BareArrayResponse(t *testing.T) {
	testInitLogger(t)
	completer := &fakeCompleter{response: `The extracted items are [{"text": "Review code changes"}] as requested.`}
	e := NewExtractor(completer)

	items, err := e.Extract(context.Background(), "transcript", models.SourceChat, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Review code changes", items[0].Text)
	assert.Nil(t, items[0].SourceID)
	// Missing priority and confidence take their defaults.
	assert.Equal(t, models.PriorityMedium, items[0].Priority)
	assert.InDelta(t, 0.5, items[0].Confidence, 0.001)
}

func TestExtract_UnparsableResponse(t *testing.T) {
	testInitLogger(t)
	completer := &fakeCompleter{response: "I could not find any action items, sorry!"}
	e := NewExtractor(completer)

	_, err := e.Extract(context.Background(), "transcript", models.SourceMeeting, "m1")
	assert.Error(t, err)
}

func TestExtract_BackendError(t *testing.T) {
	testInitLogger(t)
	completer := &fakeCompleter{err: errors.New("connection refused")}
	e := NewExtractor(completer)

	_, err := e.Extract(context.Background(), "transcript", models.SourceMeeting, "m1")
	assert.ErrorContains(t, err, "completion backend failed")
}

func TestExtract_PriorityMapping(t *testing.T) {
	testInitLogger(t)
	completer := &fakeCompleter{response: `[
		{"text": "task one", "priority": "URGENT"},
		{"text": "task two", "priority": "highest"},
		{"text": "task three", "priority": "high"},
		{"text": "task four", "priority": "low"},
		{"text": "task five", "priority": "whatever"},
		{"text": "task six"}
	]`}
	e := NewExtractor(completer)

	items, err := e.Extract(context.Background(), "transcript", models.SourceMeeting, "m1")
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, models.PriorityCritical, items[0].Priority)
	assert.Equal(t, models.PriorityCritical, items[1].Priority)
	assert.Equal(t, models.PriorityHigh, items[2].Priority)
	assert.Equal(t, models.PriorityLow, items[3].Priority)
	assert.Equal(t, models.PriorityMedium, items[4].Priority)
	assert.Equal(t, models.PriorityMedium, items[5].Priority)
}

func TestExtract_ConfidenceClamped(t *testing.T) {
	testInitLogger(t)
	completer := &fakeCompleter{response: `[
		{"text": "over", "confidence": 1.7},
		{"text": "under", "confidence": -0.3}
	]`}
	e := NewExtractor(completer)

	items, err := e.Extract(context.Background(), "transcript", models.SourceMeeting, "m1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1.0, items[0].Confidence)
	assert.Equal(t, 0.0, items[1].Confidence)
}

func TestExtract_UnparseableDeadlineDropped(t *testing.T) {
	testInitLogger(t)
	completer := &fakeCompleter{response: `[{"text": "finish the report", "deadline": "sometime next week"}]`}
	e := NewExtractor(completer)

	items, err := e.Extract(context.Background(), "transcript", models.SourceMeeting, "m1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Deadline)
}

func TestParseDeadline_Formats(t *testing.T) {
	testInitLogger(t)
	cases := []string{
		"2026-02-15",
		"2026-02-15 14:30",
		"15/02/2026",
		"February 15, 2026",
		"Feb 15, 2026",
		"15 February 2026",
		"2026-02-15T14:30:00Z",
	}
	for _, input := range cases {
		deadline, ok := parseDeadline(input)
		assert.True(t, ok, "expected %q to parse", input)
		assert.Equal(t, 2026, deadline.Year(), "wrong year for %q", input)
	}

	_, ok := parseDeadline("by the end of the sprint")
	assert.False(t, ok)
}

func TestExtractJSON_FallbackChain(t *testing.T) {
	assert.Equal(t, `[{"text":"a"}]`, extractJSON("```json\n[{\"text\":\"a\"}]\n```"))
	assert.Equal(t, `[{"text":"a"}]`, extractJSON("```\n[{\"text\":\"a\"}]\n```"))
	assert.Equal(t, `[{"text":"a"}]`, extractJSON(`prefix [{"text":"a"}] suffix`))
	assert.Equal(t, `[]`, extractJSON("  []  "))
}

func TestExtractPatterns_Scenario(t *testing.T) {
	testInitLogger(t)
	transcript := "Let's get started. Alice will finish the report by Friday. Bob needs to review the code."

	items := ExtractPatterns(transcript, models.SourceMeeting, "m1")
	require.Len(t, items, 2)

	for _, item := range items {
		assert.Equal(t, 0.7, item.Confidence)
		assert.Equal(t, models.PriorityMedium, item.Priority)
		assert.Equal(t, models.ItemPending, item.Status)
	}

	// Sorted lexicographically by text.
	assert.Equal(t, "finish the report by Friday", items[0].Text)
	require.NotNil(t, items[0].Assignee)
	assert.Equal(t, "Alice", *items[0].Assignee)
	assert.Equal(t, "review the code", items[1].Text)
	require.NotNil(t, items[1].Assignee)
	assert.Equal(t, "Bob", *items[1].Assignee)
}

func TestExtractPatterns_DedupCaseInsensitive(t *testing.T) {
	testInitLogger(t)
	transcript := "Todo: update the deployment docs. todo: update the deployment docs."

	items := ExtractPatterns(transcript, models.SourceDocument, "")
	assert.Len(t, items, 1)
}

func TestExtractPatterns_ShortMatchesDiscarded(t *testing.T) {
	testInitLogger(t)
	items := ExtractPatterns("Todo: fix it. Alice will go.", models.SourceMeeting, "")
	assert.Empty(t, items)
}
