package engine

import (
	"time"
)

const ringCapacity = 100

// AppState is the last-observed window for an open application.
type AppState struct {
	WindowName *string
	LastSeen   time.Time
}

// TriggerState is the engine's execution bookkeeping: last fire time and
// daily counter per playbook, open applications, and focus-mode status.
// Guarded by the engine's state lock; never accessed directly by callers.
type TriggerState struct {
	LastExecution    map[string]time.Time
	DailyExecutions  map[string]int
	CurrentDay       time.Time
	OpenApps         map[string]AppState
	FocusModeActive  bool
	FocusModeEndTime *time.Time
}

func newTriggerState() TriggerState {
	return TriggerState{
		LastExecution:   make(map[string]time.Time),
		DailyExecutions: make(map[string]int),
		CurrentDay:      time.Now().UTC(),
		OpenApps:        make(map[string]AppState),
	}
}

// OCREvent is one entry in the recent-OCR ring.
type OCREvent struct {
	Text      string
	AppName   string
	Timestamp time.Time
}

// AudioEvent is one entry in the recent-audio ring.
type AudioEvent struct {
	Text      string
	Timestamp time.Time
}

// MeetingContext marks the currently active meeting, if any.
type MeetingContext struct {
	SourceID  string
	StartedAt time.Time
	AppName   *string
}

// TriggerContext is the rolling window of environmental signals read during
// trigger evaluation. The OCR and audio rings hold at most 100 entries,
// dropping the oldest on insert. Guarded by the engine's context lock.
type TriggerContext struct {
	RecentOCR     []OCREvent
	RecentAudio   []AudioEvent
	IdleMinutes   int
	IsIdle        bool
	ActiveMeeting *MeetingContext
}

func (tc *TriggerContext) pushOCR(ev OCREvent) {
	tc.RecentOCR = append(tc.RecentOCR, ev)
	if len(tc.RecentOCR) > ringCapacity {
		tc.RecentOCR = tc.RecentOCR[1:]
	}
}

func (tc *TriggerContext) pushAudio(ev AudioEvent) {
	tc.RecentAudio = append(tc.RecentAudio, ev)
	if len(tc.RecentAudio) > ringCapacity {
		tc.RecentAudio = tc.RecentAudio[1:]
	}
}
