package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/pkg/models"
)

func testSettings() models.ExtractionSettings {
	return models.ExtractionSettings{
		MinMeetingDurationMinutes: 5,
		ExtractionCooldownMinutes: 30,
		MinConfidenceThreshold:    0.7,
		CacheEntries:              100,
	}
}

func newTestTracker(t *testing.T, completer *fakeCompleter) *Tracker {
	t.Helper()
	testInitLogger(t)
	return NewTracker(testSettings(), NewExtractor(completer), nil, nil)
}

func TestTracker_StartDetection(t *testing.T) {
	tracker := newTestTracker(t, &fakeCompleter{response: "[]"})

	_, err := tracker.ProcessTranscript(context.Background(), "zoom-1", "Welcome everyone, glad you could make it.")
	require.NoError(t, err)

	meetings := tracker.ActiveMeetings()
	require.Contains(t, meetings, "zoom-1")
	assert.True(t, meetings["zoom-1"].IsActive)
	assert.Len(t, meetings["zoom-1"].TranscriptBuffer, 1)
}

func TestTracker_NoStartWithoutIndicator(t *testing.T) {
	tracker := newTestTracker(t, &fakeCompleter{response: "[]"})

	_, err := tracker.ProcessTranscript(context.Background(), "zoom-1", "Just some background chatter.")
	require.NoError(t, err)
	assert.Empty(t, tracker.ActiveMeetings())
}

func TestTracker_EndPhraseExtractsItems(t *testing.T) {
	completer := &fakeCompleter{response: `[
		{"text": "Send the revised proposal to the client", "assignee": "Alice", "confidence": 0.9},
		{"text": "low confidence guess", "confidence": 0.3}
	]`}
	tracker := newTestTracker(t, completer)
	ctx := context.Background()

	_, err := tracker.ProcessTranscript(ctx, "zoom-1", "Let's get started with the agenda.")
	require.NoError(t, err)

	// Backdate the meeting so it clears the minimum duration.
	tracker.mu.Lock()
	tracker.activeMeetings["zoom-1"].StartedAt = time.Now().UTC().Add(-10 * time.Minute)
	tracker.mu.Unlock()

	items, err := tracker.ProcessTranscript(ctx, "zoom-1", "Thank you everyone, goodbye.")
	require.NoError(t, err)

	// Items below the confidence threshold are filtered out.
	require.Len(t, items, 1)
	assert.Equal(t, "Send the revised proposal to the client", items[0].Text)
	assert.Empty(t, tracker.ActiveMeetings(), "meeting must be removed after end")
}

func TestTracker_ShortMeetingDiscarded(t *testing.T) {
	completer := &fakeCompleter{response: `[{"text": "should never be extracted", "confidence": 0.9}]`}
	tracker := newTestTracker(t, completer)
	ctx := context.Background()

	tracker.StartMeeting("zoom-1")

	// 3 minutes of activity with a 5 minute minimum: discard, no extraction.
	tracker.mu.Lock()
	tracker.activeMeetings["zoom-1"].StartedAt = time.Now().UTC().Add(-3 * time.Minute)
	tracker.activeMeetings["zoom-1"].TranscriptBuffer = []string{"Alice will finish the report by Friday."}
	tracker.mu.Unlock()

	items, err := tracker.EndMeeting(ctx, "zoom-1")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, completer.calls)
}

func TestTracker_IdleMeetingSuperseded(t *testing.T) {
	tracker := newTestTracker(t, &fakeCompleter{response: "[]"})
	ctx := context.Background()

	tracker.StartMeeting("zoom-1")
	tracker.mu.Lock()
	tracker.activeMeetings["zoom-1"].LastActivity = time.Now().UTC().Add(-15 * time.Minute)
	first := tracker.activeMeetings["zoom-1"].StartedAt
	tracker.mu.Unlock()

	// A transcript after >10 minutes of silence begins a fresh meeting even
	// without a start phrase.
	_, err := tracker.ProcessTranscript(ctx, "zoom-1", "Okay, picking this back up.")
	require.NoError(t, err)

	meetings := tracker.ActiveMeetings()
	require.Contains(t, meetings, "zoom-1")
	assert.True(t, meetings["zoom-1"].StartedAt.After(first))
	assert.Len(t, meetings["zoom-1"].TranscriptBuffer, 1)
}

func TestTracker_ExtractionCooldown(t *testing.T) {
	completer := &fakeCompleter{response: `[{"text": "prepare the launch checklist", "confidence": 0.9}]`}
	tracker := newTestTracker(t, completer)
	ctx := context.Background()

	endMeeting := func() []models.ActionItem {
		tracker.StartMeeting("zoom-1")
		tracker.mu.Lock()
		tracker.activeMeetings["zoom-1"].StartedAt = time.Now().UTC().Add(-10 * time.Minute)
		tracker.activeMeetings["zoom-1"].TranscriptBuffer = []string{"discussion"}
		tracker.mu.Unlock()
		items, err := tracker.EndMeeting(ctx, "zoom-1")
		require.NoError(t, err)
		return items
	}

	first := endMeeting()
	assert.Len(t, first, 1)

	// A second meeting from the same source inside the cooldown yields
	// nothing.
	second := endMeeting()
	assert.Empty(t, second)
}

func TestTracker_EndMeetingUnknownSource(t *testing.T) {
	tracker := newTestTracker(t, &fakeCompleter{response: "[]"})

	items, err := tracker.EndMeeting(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestTracker_EndAllMeetings(t *testing.T) {
	completer := &fakeCompleter{response: `[{"text": "follow up with the design team", "confidence": 0.9}]`}
	tracker := newTestTracker(t, completer)
	ctx := context.Background()

	for _, source := range []string{"zoom-1", "meet-2"} {
		tracker.StartMeeting(source)
		tracker.mu.Lock()
		tracker.activeMeetings[source].StartedAt = time.Now().UTC().Add(-10 * time.Minute)
		tracker.activeMeetings[source].TranscriptBuffer = []string{"transcript for " + source}
		tracker.mu.Unlock()
	}

	results, err := tracker.EndAllMeetings(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Empty(t, tracker.ActiveMeetings())
}
