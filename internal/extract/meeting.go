package extract

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/pkg/models"
)

// Idle thresholds for the boundary state machine. A source quiet for longer
// than supersedeIdle has its meeting replaced on the next transcript; quiet
// for longer than endIdle ends the meeting.
const (
	supersedeIdle = 10 * time.Minute
	endIdle       = 5 * time.Minute
)

var startIndicators = []string{
	"let's start",
	"meeting started",
	"call started",
	"begin the",
	"welcome everyone",
	"let's get started",
	"meeting is now",
}

var endIndicators = []string{
	"let's wrap up",
	"meeting ended",
	"call ended",
	"thank you everyone",
	"that's all for today",
	"see you next time",
	"goodbye",
	"end of meeting",
}

// MeetingState tracks one in-progress meeting per transcript source.
type MeetingState struct {
	SourceID         string
	StartedAt        time.Time
	LastActivity     time.Time
	TranscriptBuffer []string
	IsActive         bool
	ParticipantCount *int
	Metadata         map[string]any
}

func NewMeetingState(sourceID string) *MeetingState {
	now := time.Now().UTC()
	return &MeetingState{
		SourceID:     sourceID,
		StartedAt:    now,
		LastActivity: now,
		IsActive:     true,
		Metadata:     make(map[string]any),
	}
}

func (m *MeetingState) Duration() time.Duration {
	return time.Since(m.StartedAt)
}

func (m *MeetingState) IdleDuration() time.Duration {
	return time.Since(m.LastActivity)
}

func (m *MeetingState) AddTranscript(text string) {
	m.TranscriptBuffer = append(m.TranscriptBuffer, text)
	m.LastActivity = time.Now().UTC()
}

func (m *MeetingState) FullTranscript() string {
	return strings.Join(m.TranscriptBuffer, "\n")
}

// Exporter sends extracted items to an external target.
type Exporter interface {
	Export(ctx context.Context, items []models.ActionItem, target models.ExportTarget) error
}

// UserNotifier surfaces an extraction result to the user.
type UserNotifier interface {
	NotifyExtraction(ctx context.Context, n ActionItemsNotification) error
}

// Tracker runs meeting boundary detection over transcript streams and
// extracts action items when meetings end. Safe for concurrent use.
type Tracker struct {
	mu             sync.Mutex
	settings       models.ExtractionSettings
	extractor      *Extractor
	cache          *Cache
	activeMeetings map[string]*MeetingState
	lastExtraction map[string]time.Time
	exporter       Exporter
	notifier       UserNotifier
}

// NewTracker creates a tracker. Exporter and notifier may be nil; auto-export
// and user notification are then skipped.
func NewTracker(settings models.ExtractionSettings, extractor *Extractor, exporter Exporter, notifier UserNotifier) *Tracker {
	return &Tracker{
		settings:       settings,
		extractor:      extractor,
		cache:          NewCache(settings.CacheEntries),
		activeMeetings: make(map[string]*MeetingState),
		lastExtraction: make(map[string]time.Time),
		exporter:       exporter,
		notifier:       notifier,
	}
}

// ProcessTranscript feeds one transcript chunk for a source through the
// boundary state machine. When the chunk ends a meeting, the extracted items
// are returned; otherwise the result is nil.
func (t *Tracker) ProcessTranscript(ctx context.Context, sourceID, transcript string) ([]models.ActionItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.detectMeetingStart(sourceID, transcript) {
		logger.L().Info("Detected new meeting", "source_id", sourceID)
		t.activeMeetings[sourceID] = NewMeetingState(sourceID)
	}

	if meeting, ok := t.activeMeetings[sourceID]; ok {
		meeting.AddTranscript(transcript)
	}

	if t.detectMeetingEnd(sourceID) {
		logger.L().Info("Detected end of meeting", "source_id", sourceID)
		return t.endMeetingLocked(ctx, sourceID)
	}

	return nil, nil
}

// StartMeeting begins tracking a meeting for a source, replacing any
// existing one.
func (t *Tracker) StartMeeting(sourceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activeMeetings[sourceID] = NewMeetingState(sourceID)
}

// EndMeeting ends a tracked meeting and extracts action items. Meetings
// shorter than the configured minimum are discarded without extraction.
// Returns nil items when no meeting was active for the source.
func (t *Tracker) EndMeeting(ctx context.Context, sourceID string) ([]models.ActionItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endMeetingLocked(ctx, sourceID)
}

func (t *Tracker) endMeetingLocked(ctx context.Context, sourceID string) ([]models.ActionItem, error) {
	meeting, ok := t.activeMeetings[sourceID]
	if !ok {
		return nil, nil
	}
	delete(t.activeMeetings, sourceID)

	if !meeting.IsActive {
		return nil, nil
	}

	if meeting.Duration() < time.Duration(t.settings.MinMeetingDurationMinutes)*time.Minute {
		logger.L().Debug("Meeting too short, skipping extraction",
			"source_id", sourceID,
			"duration", meeting.Duration().Round(time.Second))
		return nil, nil
	}

	return t.extractFromMeeting(ctx, meeting)
}

// EndAllMeetings force-ends every active meeting, returning extracted items
// keyed by source. Sources that yield no items are omitted.
func (t *Tracker) EndAllMeetings(ctx context.Context) (map[string][]models.ActionItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	results := make(map[string][]models.ActionItem)
	sourceIDs := make([]string, 0, len(t.activeMeetings))
	for id := range t.activeMeetings {
		sourceIDs = append(sourceIDs, id)
	}

	for _, sourceID := range sourceIDs {
		items, err := t.endMeetingLocked(ctx, sourceID)
		if err != nil {
			return results, err
		}
		if len(items) > 0 {
			results[sourceID] = items
		}
	}
	return results, nil
}

// ActiveMeetings returns a snapshot of the currently tracked meetings.
func (t *Tracker) ActiveMeetings() map[string]MeetingState {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]MeetingState, len(t.activeMeetings))
	for id, m := range t.activeMeetings {
		out[id] = *m
	}
	return out
}

func (t *Tracker) detectMeetingStart(sourceID, transcript string) bool {
	if meeting, ok := t.activeMeetings[sourceID]; ok {
		// A long-idle meeting is superseded by a fresh one.
		return meeting.IdleDuration() > supersedeIdle
	}

	lower := strings.ToLower(transcript)
	for _, indicator := range startIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func (t *Tracker) detectMeetingEnd(sourceID string) bool {
	meeting, ok := t.activeMeetings[sourceID]
	if !ok {
		return false
	}

	if meeting.IdleDuration() > endIdle {
		return true
	}

	buf := meeting.TranscriptBuffer
	start := len(buf) - 5
	if start < 0 {
		start = 0
	}
	recent := strings.ToLower(strings.Join(buf[start:], " "))
	for _, indicator := range endIndicators {
		if strings.Contains(recent, indicator) {
			return true
		}
	}
	return false
}

func (t *Tracker) extractFromMeeting(ctx context.Context, meeting *MeetingState) ([]models.ActionItem, error) {
	transcript := meeting.FullTranscript()

	if last, ok := t.lastExtraction[meeting.SourceID]; ok {
		cooldown := time.Duration(t.settings.ExtractionCooldownMinutes) * time.Minute
		if time.Since(last) < cooldown {
			logger.L().Debug("Extraction cooldown active", "source_id", meeting.SourceID)
			return nil, nil
		}
	}

	items, err := t.extractor.ExtractCached(ctx, transcript, models.SourceMeeting, meeting.SourceID, t.cache)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.ActionItem, 0, len(items))
	for _, item := range items {
		if item.Confidence >= t.settings.MinConfidenceThreshold {
			filtered = append(filtered, item)
		}
	}

	t.lastExtraction[meeting.SourceID] = time.Now().UTC()

	logger.L().Info("Extracted action items from meeting",
		"source_id", meeting.SourceID,
		"count", len(filtered))

	if len(filtered) > 0 {
		t.autoExport(ctx, filtered)
		t.notify(ctx, meeting.SourceID, filtered)
	}

	return filtered, nil
}

func (t *Tracker) autoExport(ctx context.Context, items []models.ActionItem) {
	if t.exporter == nil {
		return
	}
	for _, target := range t.settings.AutoExport {
		if !target.Enabled {
			continue
		}
		if err := t.exporter.Export(ctx, items, target); err != nil {
			logger.L().Error("Failed to export action items", "target", target.Type, "error", err)
			continue
		}
		logger.L().Debug("Exported action items", "target", target.Type)
	}
}

func (t *Tracker) notify(ctx context.Context, sourceID string, items []models.ActionItem) {
	if t.notifier == nil || !t.settings.NotifyUser {
		return
	}
	if err := t.notifier.NotifyExtraction(ctx, NewActionItemsNotification(sourceID, items)); err != nil {
		logger.L().Error("Failed to notify user of extracted action items", "error", err)
	}
}

// ActionItemsNotification summarizes an extraction run for user display.
type ActionItemsNotification struct {
	SourceID    string              `json:"source_id"`
	SourceType  string              `json:"source_type"`
	ItemCount   int                 `json:"item_count"`
	Items       []ActionItemSummary `json:"items"`
	ExtractedAt time.Time           `json:"extracted_at"`
}

// ActionItemSummary is the per-item slice of a notification.
type ActionItemSummary struct {
	Text     string     `json:"text"`
	Assignee *string    `json:"assignee,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Priority string     `json:"priority"`
}

func NewActionItemsNotification(sourceID string, items []models.ActionItem) ActionItemsNotification {
	summaries := make([]ActionItemSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, ActionItemSummary{
			Text:     item.Text,
			Assignee: item.Assignee,
			Deadline: item.Deadline,
			Priority: item.Priority.String(),
		})
	}
	return ActionItemsNotification{
		SourceID:    sourceID,
		SourceType:  "meeting",
		ItemCount:   len(items),
		Items:       summaries,
		ExtractedAt: time.Now().UTC(),
	}
}
