package engine

import (
	"time"

	"github.com/glimpse-app/glimpse/pkg/models"
)

func ptr[T any](v T) *T { return &v }

// DefaultPlaybooks is the built-in set seeded on first run. All ship
// disabled; users opt in by toggling them on.
func DefaultPlaybooks() []models.Playbook {
	now := time.Now().UTC()
	return []models.Playbook{
		{
			ID:          "daily-standup",
			Name:        "Daily Standup",
			Description: ptr("Automatically generate a summary of your work at 9 AM on weekdays"),
			Enabled:     false,
			Triggers: []models.Trigger{{
				Type:        models.TriggerTime,
				Cron:        "0 9 * * 1-5",
				Description: ptr("Every weekday at 9:00 AM"),
			}},
			Actions: []models.Action{{
				Type:             models.ActionSummarize,
				TimeframeMinutes: 1440,
				Focus:            ptr(models.SummaryActionItems),
			}},
			CooldownMinutes: ptr(60),
			CreatedAt:       &now,
			UpdatedAt:       &now,
			IsBuiltin:       true,
			Icon:            ptr("📅"),
			Color:           ptr("#3B82F6"),
		},
		{
			ID:          "customer-call",
			Name:        "Customer Call",
			Description: ptr("Focus on action items when joining Zoom or Google Meet"),
			Enabled:     false,
			Triggers: []models.Trigger{{
				Type:    models.TriggerAppOpen,
				AppName: "zoom",
			}},
			Actions: []models.Action{
				{
					Type:                 models.ActionFocusMode,
					Enabled:              ptr(true),
					DurationMinutes:      ptr(60),
					SilenceNotifications: ptr(true),
					AllowedApps:          []string{"zoom", "chrome"},
				},
				{
					Type:       models.ActionNotify,
					Title:      "Customer Call Mode",
					Message:    "Focus mode enabled. I'll summarize action items at the end of the call.",
					Persistent: ptr(false),
				},
			},
			CreatedAt: &now,
			UpdatedAt: &now,
			IsBuiltin: true,
			Icon:      ptr("🎥"),
			Color:     ptr("#10B981"),
		},
		{
			ID:          "deep-work",
			Name:        "Deep Work",
			Description: ptr("Block distractions during focus time"),
			Enabled:     false,
			Triggers: []models.Trigger{{
				Type:       models.TriggerContext,
				TimeRange:  ptr("09:00-12:00"),
				DaysOfWeek: []int{1, 2, 3, 4, 5},
			}},
			Actions: []models.Action{{
				Type:                 models.ActionFocusMode,
				Enabled:              ptr(true),
				DurationMinutes:      ptr(180),
				SilenceNotifications: ptr(true),
				AllowedApps:          []string{"code", "cursor", "vscode", "terminal"},
			}},
			CooldownMinutes: ptr(240),
			CreatedAt:       &now,
			UpdatedAt:       &now,
			IsBuiltin:       true,
			Icon:            ptr("🎯"),
			Color:           ptr("#8B5CF6"),
		},
	}
}
