package action

import (
	"context"
	"time"

	"github.com/glimpse-app/glimpse/pkg/models"
)

// TagContentType distinguishes which content table a tag applies to.
type TagContentType string

const (
	TagContentVision TagContentType = "vision"
	TagContentAudio  TagContentType = "audio"
)

// DatabaseManager is the content-store surface the executor depends on.
// Implementations scope reads and writes by tenant where applicable.
type DatabaseManager interface {
	AddTags(ctx context.Context, id int64, contentType TagContentType, tags []string) error
	SearchRecentFrames(ctx context.Context, start, end time.Time) ([]int64, error)
	SearchRecentAudio(ctx context.Context, start, end time.Time) ([]int64, error)

	// RecentTranscriptText joins audio transcript text in the window,
	// newest last, for summarization and extraction.
	RecentTranscriptText(ctx context.Context, start, end time.Time) (string, error)

	SaveActionItems(ctx context.Context, items []models.ActionItem) error
	ListActionItems(ctx context.Context, filter *models.ActionItemFilter) ([]models.ActionItem, error)
}

// PipeInfo describes a managed pipe.
type PipeInfo struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
	Port    *int   `json:"port,omitempty"`
}

// PipeManager starts and inspects pipes.
type PipeManager interface {
	StartPipe(ctx context.Context, pipeID string, params map[string]any) error
	GetPipeInfo(ctx context.Context, pipeID string) (*PipeInfo, error)
}

// Notifier shows a user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, title, message string, persistent bool) error
}

// Recorder controls the capture backend.
type Recorder interface {
	StartRecording(ctx context.Context, focusApp, tag *string) error
	StopRecording(ctx context.Context) error
}

// FocusController mutates the engine's focus-mode state.
type FocusController interface {
	SetFocusMode(enabled bool, endTime *time.Time)
}

// ItemExtractor extracts action items from transcript text.
type ItemExtractor interface {
	Extract(ctx context.Context, transcript string, source models.ActionItemSource, sourceID string) ([]models.ActionItem, error)
}

// ItemExporter ships action items to an external target.
type ItemExporter interface {
	Export(ctx context.Context, items []models.ActionItem, target models.ExportTarget) error
}

// Completer produces a single-shot LLM completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
