package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActionItemSource is where an action item was extracted from.
type ActionItemSource string

const (
	SourceMeeting  ActionItemSource = "meeting"
	SourceEmail    ActionItemSource = "email"
	SourceChat     ActionItemSource = "chat"
	SourceDocument ActionItemSource = "document"
	SourceOther    ActionItemSource = "other"
)

// ActionItemStatus is the lifecycle state of an action item.
// Done and Cancelled are terminal.
type ActionItemStatus string

const (
	ItemPending    ActionItemStatus = "pending"
	ItemInProgress ActionItemStatus = "in_progress"
	ItemDone       ActionItemStatus = "done"
	ItemCancelled  ActionItemStatus = "cancelled"
)

// ActionItemPriority is ordered: Low < Medium < High < Critical.
type ActionItemPriority int

const (
	PriorityLow ActionItemPriority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[ActionItemPriority]string{
	PriorityLow:      "low",
	PriorityMedium:   "medium",
	PriorityHigh:     "high",
	PriorityCritical: "critical",
}

func (p ActionItemPriority) String() string {
	if s, ok := priorityNames[p]; ok {
		return s
	}
	return "medium"
}

// MarshalJSON serializes the priority as its snake_case name.
func (p ActionItemPriority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts the snake_case names produced by MarshalJSON.
func (p *ActionItemPriority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, v := range priorityNames {
		if v == s {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown priority %q", s)
}

// ParsePriority maps a free-form priority string onto the ordered scale.
// "critical", "urgent" and "highest" map to Critical; anything unrecognised
// (including empty) maps to Medium.
func ParsePriority(s string) ActionItemPriority {
	switch strings.ToLower(s) {
	case "critical", "urgent", "highest":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// ActionItem is a discrete task extracted from transcript text.
type ActionItem struct {
	ID          string             `json:"id"`
	Text        string             `json:"text"`
	Assignee    *string            `json:"assignee,omitempty"`
	Deadline    *time.Time         `json:"deadline,omitempty"`
	Source      ActionItemSource   `json:"source"`
	SourceID    *string            `json:"source_id,omitempty"`
	Confidence  float64            `json:"confidence"`
	Status      ActionItemStatus   `json:"status"`
	Priority    ActionItemPriority `json:"priority"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// NewActionItem creates a pending medium-priority item with a fresh id.
func NewActionItem(text string) ActionItem {
	now := time.Now().UTC()
	return ActionItem{
		ID:        uuid.NewString(),
		Text:      text,
		Source:    SourceMeeting,
		Status:    ItemPending,
		Priority:  PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkInProgress transitions the item to in_progress.
func (a *ActionItem) MarkInProgress() {
	a.Status = ItemInProgress
	a.UpdatedAt = time.Now().UTC()
}

// MarkDone transitions the item to done and stamps completed_at.
func (a *ActionItem) MarkDone() {
	now := time.Now().UTC()
	a.Status = ItemDone
	a.CompletedAt = &now
	a.UpdatedAt = now
}

// ClampConfidence bounds a confidence score to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
