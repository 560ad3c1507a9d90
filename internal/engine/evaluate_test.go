package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimpse-app/glimpse/pkg/models"
)

// tuesdayNine is a fixed Tuesday 09:00:00 reference point.
var tuesdayNine = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

func strptr(s string) *string { return &s }

func freshState() *TriggerState {
	state := newTriggerState()
	return &state
}

func TestEvaluateCron(t *testing.T) {
	trig := models.Trigger{Type: models.TriggerTime, Cron: "0 9 * * 1-5"}
	state := newTriggerState()
	tc := &TriggerContext{}

	fired, err := evaluateTrigger(trig, &state, tc, tuesdayNine)
	require.NoError(t, err)
	assert.True(t, fired, "exact boundary fires")

	fired, err = evaluateTrigger(trig, &state, tc, tuesdayNine.Add(4*time.Second))
	require.NoError(t, err)
	assert.True(t, fired, "within the catch-up window fires")

	fired, err = evaluateTrigger(trig, &state, tc, tuesdayNine.Add(6*time.Second))
	require.NoError(t, err)
	assert.False(t, fired, "past the catch-up window does not fire")

	// Saturday never matches a weekday schedule.
	saturday := time.Date(2026, 9, 5, 9, 0, 0, 0, time.UTC)
	fired, err = evaluateTrigger(trig, &state, tc, saturday)
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestEvaluateCron_Invalid(t *testing.T) {
	trig := models.Trigger{Type: models.TriggerTime, Cron: "not a schedule"}
	_, err := evaluateTrigger(trig, freshState(), &TriggerContext{}, tuesdayNine)
	assert.ErrorContains(t, err, "invalid cron expression")
}

func TestEvaluateAppOpen(t *testing.T) {
	state := newTriggerState()
	state.OpenApps["zoom"] = AppState{WindowName: strptr("Weekly Sync - GitHub Review"), LastSeen: tuesdayNine}
	state.OpenApps["slack"] = AppState{LastSeen: tuesdayNine}
	tc := &TriggerContext{}

	cases := []struct {
		name string
		trig models.Trigger
		want bool
	}{
		{"app present, no window requirement", models.Trigger{Type: models.TriggerAppOpen, AppName: "zoom"}, true},
		{"app absent", models.Trigger{Type: models.TriggerAppOpen, AppName: "teams"}, false},
		{"window substring, case-insensitive", models.Trigger{Type: models.TriggerAppOpen, AppName: "zoom", WindowName: strptr("github")}, true},
		{"window substring not found", models.Trigger{Type: models.TriggerAppOpen, AppName: "zoom", WindowName: strptr("jira")}, false},
		{"window required but app reported none", models.Trigger{Type: models.TriggerAppOpen, AppName: "slack", WindowName: strptr("general")}, false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			fired, err := evaluateTrigger(tt.trig, &state, tc, tuesdayNine)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fired)
		})
	}
}

func TestEvaluateKeyword(t *testing.T) {
	tc := &TriggerContext{
		RecentOCR:   []OCREvent{{Text: "Quarterly Budget Review.pdf", Timestamp: tuesdayNine}},
		RecentAudio: []AudioEvent{{Text: "we should deploy the new release tomorrow", Timestamp: tuesdayNine}},
	}
	state := newTriggerState()
	threshold := 0.5

	cases := []struct {
		name string
		trig models.Trigger
		want bool
	}{
		{"substring in ocr", models.Trigger{Type: models.TriggerKeyword, Pattern: "budget review", Source: models.KeywordSourceOCR}, true},
		{"substring in audio", models.Trigger{Type: models.TriggerKeyword, Pattern: "deploy", Source: models.KeywordSourceAudio}, true},
		{"both sources by default", models.Trigger{Type: models.TriggerKeyword, Pattern: "budget"}, true},
		{"wrong source misses", models.Trigger{Type: models.TriggerKeyword, Pattern: "deploy", Source: models.KeywordSourceOCR}, false},
		{"no substring, no threshold", models.Trigger{Type: models.TriggerKeyword, Pattern: "release the deploy now", Source: models.KeywordSourceAudio}, false},
		{"token overlap meets threshold", models.Trigger{Type: models.TriggerKeyword, Pattern: "release the deploy now", Source: models.KeywordSourceAudio, Threshold: &threshold}, true},
		{"empty pattern never fires", models.Trigger{Type: models.TriggerKeyword, Pattern: "  "}, false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			fired, err := evaluateTrigger(tt.trig, &state, tc, tuesdayNine)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fired)
		})
	}
}

func TestEvaluateContext(t *testing.T) {
	state := newTriggerState()
	state.OpenApps["code"] = AppState{WindowName: strptr("engine.go - glimpse"), LastSeen: tuesdayNine}
	state.OpenApps["terminal"] = AppState{LastSeen: tuesdayNine}
	tc := &TriggerContext{}

	cases := []struct {
		name string
		trig models.Trigger
		want bool
	}{
		{"no conditions always fires", models.Trigger{Type: models.TriggerContext}, true},
		{"matching weekday", models.Trigger{Type: models.TriggerContext, DaysOfWeek: []int{1, 2, 3, 4, 5}}, true},
		{"every weekday listed", models.Trigger{Type: models.TriggerContext, DaysOfWeek: []int{0, 1, 2, 3, 4, 5, 6}}, true},
		{"non-matching weekday", models.Trigger{Type: models.TriggerContext, DaysOfWeek: []int{0, 6}}, false},
		{"impossible weekday", models.Trigger{Type: models.TriggerContext, DaysOfWeek: []int{8}}, false},
		{"within time range", models.Trigger{Type: models.TriggerContext, TimeRange: strptr("09:00-12:00")}, true},
		{"outside time range", models.Trigger{Type: models.TriggerContext, TimeRange: strptr("13:00-17:00")}, false},
		{"range end is inclusive", models.Trigger{Type: models.TriggerContext, TimeRange: strptr("08:00-09:00")}, true},
		{"all apps present", models.Trigger{Type: models.TriggerContext, Apps: []string{"code", "terminal"}}, true},
		{"one app missing", models.Trigger{Type: models.TriggerContext, Apps: []string{"code", "figma"}}, false},
		{"any window substring", models.Trigger{Type: models.TriggerContext, Windows: []string{"GLIMPSE"}}, true},
		{"no window matches", models.Trigger{Type: models.TriggerContext, Windows: []string{"spotify"}}, false},
		{"combined conditions", models.Trigger{Type: models.TriggerContext, DaysOfWeek: []int{2}, TimeRange: strptr("09:00-12:00"), Apps: []string{"code"}}, true},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			fired, err := evaluateTrigger(tt.trig, &state, tc, tuesdayNine)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fired)
		})
	}
}

func TestEvaluateContext_BadTimeRange(t *testing.T) {
	trig := models.Trigger{Type: models.TriggerContext, TimeRange: strptr("nine to five")}
	_, err := evaluateTrigger(trig, freshState(), &TriggerContext{}, tuesdayNine)
	assert.ErrorContains(t, err, "invalid time range")
}

func TestEvaluateEventOnlyTriggers(t *testing.T) {
	state := newTriggerState()
	tc := &TriggerContext{}
	for _, typ := range []models.TriggerType{models.TriggerMeetingStart, models.TriggerMeetingEnd, models.TriggerIdleState} {
		fired, err := evaluateTrigger(models.Trigger{Type: typ}, &state, tc, tuesdayNine)
		require.NoError(t, err)
		assert.False(t, fired, "type %s is event-driven only", typ)
	}
}

func TestEvaluateUnknownType(t *testing.T) {
	_, err := evaluateTrigger(models.Trigger{Type: "telepathy"}, freshState(), &TriggerContext{}, tuesdayNine)
	assert.ErrorContains(t, err, "unknown trigger type")
}
