package models

import "time"

// EventType indicates the kind of ingestion event.
type EventType string

const (
	EventOcrText            EventType = "ocr_text"
	EventAudioTranscription EventType = "audio_transcription"
	EventAppOpened          EventType = "app_opened"
	EventAppClosed          EventType = "app_closed"
	EventMeetingStarted     EventType = "meeting_started"
	EventMeetingEnded       EventType = "meeting_ended"
	EventIdleStateChanged   EventType = "idle_state_changed"
	EventTimeTick           EventType = "time_tick"
)

// Event is a runtime signal submitted to the engine. Fields are meaningful
// per Type: text/app for OCR, text for audio transcription, app/window for
// app open/close, source/duration for meeting boundaries, idle fields for
// idle transitions.
type Event struct {
	Type            EventType `json:"type"`
	Text            string    `json:"text,omitempty"`
	AppName         string    `json:"app_name,omitempty"`
	WindowName      *string   `json:"window_name,omitempty"`
	SourceID        string    `json:"source_id,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	IsIdle          bool      `json:"is_idle,omitempty"`
	IdleMinutes     int       `json:"idle_minutes,omitempty"`
	Timestamp       time.Time `json:"timestamp,omitempty"`
}
