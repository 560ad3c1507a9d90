package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/glimpse-app/glimpse/pkg/models"
)

// catchUpWindow matches the scan interval so a cron boundary falling between
// two ticks is still caught by the next one.
const catchUpWindow = 5 * time.Second

// evaluateTrigger decides whether a trigger fires given the current state
// and context. It is pure: no argument is mutated. Meeting and idle triggers
// always evaluate false here; they fire through event delivery instead of
// polling.
func evaluateTrigger(trig models.Trigger, state *TriggerState, tc *TriggerContext, now time.Time) (bool, error) {
	switch trig.Type {
	case models.TriggerAppOpen:
		return evaluateAppOpen(trig, state), nil
	case models.TriggerTime:
		return evaluateCron(trig.Cron, now)
	case models.TriggerKeyword:
		return evaluateKeyword(trig, tc), nil
	case models.TriggerContext:
		return evaluateContext(trig, state, now)
	case models.TriggerMeetingStart, models.TriggerMeetingEnd, models.TriggerIdleState:
		return false, nil
	default:
		return false, fmt.Errorf("unknown trigger type %q", trig.Type)
	}
}

func evaluateAppOpen(trig models.Trigger, state *TriggerState) bool {
	appState, open := state.OpenApps[trig.AppName]
	if !open {
		return false
	}
	if trig.WindowName == nil {
		return true
	}
	if appState.WindowName == nil {
		return false
	}
	return strings.Contains(
		strings.ToLower(*appState.WindowName),
		strings.ToLower(*trig.WindowName))
}

func evaluateCron(expr string, now time.Time) (bool, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return false, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	next := schedule.Next(now.Add(-catchUpWindow))
	return !next.After(now), nil
}

// evaluateKeyword scans the selected context rings. A plain substring match
// fires; with a threshold set, a token-overlap score at or above it also
// fires.
func evaluateKeyword(trig models.Trigger, tc *TriggerContext) bool {
	pattern := strings.ToLower(strings.TrimSpace(trig.Pattern))
	if pattern == "" {
		return false
	}

	source := trig.Source
	if source == "" {
		source = models.KeywordSourceBoth
	}

	if source == models.KeywordSourceOCR || source == models.KeywordSourceBoth {
		for _, ev := range tc.RecentOCR {
			if keywordMatches(pattern, ev.Text, trig.Threshold) {
				return true
			}
		}
	}
	if source == models.KeywordSourceAudio || source == models.KeywordSourceBoth {
		for _, ev := range tc.RecentAudio {
			if keywordMatches(pattern, ev.Text, trig.Threshold) {
				return true
			}
		}
	}
	return false
}

func keywordMatches(pattern, text string, threshold *float64) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, pattern) {
		return true
	}
	if threshold == nil {
		return false
	}

	patternTokens := strings.Fields(pattern)
	if len(patternTokens) == 0 {
		return false
	}
	textTokens := make(map[string]bool)
	for _, tok := range strings.Fields(lower) {
		textTokens[strings.Trim(tok, ".,!?;:")] = true
	}

	var matched int
	for _, tok := range patternTokens {
		if textTokens[tok] {
			matched++
		}
	}
	return float64(matched)/float64(len(patternTokens)) >= *threshold
}

// evaluateContext requires every specified sub-condition to hold. Weekdays
// are zero-indexed from Sunday; time ranges are inclusive "HH:MM-HH:MM" in
// the clock of now.
func evaluateContext(trig models.Trigger, state *TriggerState, now time.Time) (bool, error) {
	if len(trig.DaysOfWeek) > 0 {
		today := int(now.Weekday())
		found := false
		for _, day := range trig.DaysOfWeek {
			if day == today {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}

	if trig.TimeRange != nil {
		within, err := withinTimeRange(*trig.TimeRange, now)
		if err != nil {
			return false, err
		}
		if !within {
			return false, nil
		}
	}

	for _, app := range trig.Apps {
		if _, open := state.OpenApps[app]; !open {
			return false, nil
		}
	}

	if len(trig.Windows) > 0 {
		matched := false
		for _, appState := range state.OpenApps {
			if appState.WindowName == nil {
				continue
			}
			window := strings.ToLower(*appState.WindowName)
			for _, req := range trig.Windows {
				if strings.Contains(window, strings.ToLower(req)) {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			return false, nil
		}
	}

	return true, nil
}

func withinTimeRange(rangeSpec string, now time.Time) (bool, error) {
	parts := strings.Split(rangeSpec, "-")
	if len(parts) != 2 {
		return false, fmt.Errorf("invalid time range %q, want HH:MM-HH:MM", rangeSpec)
	}
	start, err := time.Parse("15:04", strings.TrimSpace(parts[0]))
	if err != nil {
		return false, fmt.Errorf("invalid time range start %q: %w", parts[0], err)
	}
	end, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
	if err != nil {
		return false, fmt.Errorf("invalid time range end %q: %w", parts[1], err)
	}

	current := now.Hour()*60 + now.Minute()
	startMins := start.Hour()*60 + start.Minute()
	endMins := end.Hour()*60 + end.Minute()
	return current >= startMins && current <= endMins, nil
}
