package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	cases := map[string]ActionItemPriority{
		"critical": PriorityCritical,
		"URGENT":   PriorityCritical,
		"highest":  PriorityCritical,
		"High":     PriorityHigh,
		"low":      PriorityLow,
		"medium":   PriorityMedium,
		"whatever": PriorityMedium,
		"":         PriorityMedium,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParsePriority(input), "input %q", input)
	}
}

func TestPriorityOrdering(t *testing.T) {
	assert.True(t, PriorityLow < PriorityMedium)
	assert.True(t, PriorityMedium < PriorityHigh)
	assert.True(t, PriorityHigh < PriorityCritical)
}

func TestPriorityJSON(t *testing.T) {
	data, err := json.Marshal(PriorityCritical)
	require.NoError(t, err)
	assert.Equal(t, `"critical"`, string(data))

	var p ActionItemPriority
	require.NoError(t, json.Unmarshal([]byte(`"high"`), &p))
	assert.Equal(t, PriorityHigh, p)

	err = json.Unmarshal([]byte(`"astronomical"`), &p)
	assert.ErrorContains(t, err, "unknown priority")
}

func TestPriorityString_OutOfRange(t *testing.T) {
	assert.Equal(t, "medium", ActionItemPriority(42).String())
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.5))
	assert.Equal(t, 1.0, ClampConfidence(1.5))
	assert.Equal(t, 0.7, ClampConfidence(0.7))
}

func TestNewActionItem(t *testing.T) {
	item := NewActionItem("write the release notes")
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "write the release notes", item.Text)
	assert.Equal(t, SourceMeeting, item.Source)
	assert.Equal(t, ItemPending, item.Status)
	assert.Equal(t, PriorityMedium, item.Priority)
	assert.False(t, item.CreatedAt.IsZero())

	other := NewActionItem("another task")
	assert.NotEqual(t, item.ID, other.ID)
}

func TestActionItemTransitions(t *testing.T) {
	item := NewActionItem("task")

	item.MarkInProgress()
	assert.Equal(t, ItemInProgress, item.Status)
	assert.Nil(t, item.CompletedAt)

	item.MarkDone()
	assert.Equal(t, ItemDone, item.Status)
	require.NotNil(t, item.CompletedAt)
}
