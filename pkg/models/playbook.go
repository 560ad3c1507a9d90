package models

import "time"

// TriggerType discriminates the Trigger variants.
type TriggerType string

const (
	TriggerAppOpen      TriggerType = "app_open"
	TriggerTime         TriggerType = "time"
	TriggerKeyword      TriggerType = "keyword"
	TriggerContext      TriggerType = "context"
	TriggerMeetingStart TriggerType = "meeting_start"
	TriggerMeetingEnd   TriggerType = "meeting_end"
	TriggerIdleState    TriggerType = "idle_state"
)

// KeywordSource selects which context ring a keyword trigger scans.
type KeywordSource string

const (
	KeywordSourceOCR   KeywordSource = "ocr"
	KeywordSourceAudio KeywordSource = "audio"
	KeywordSourceBoth  KeywordSource = "both"
)

// IdleDirection is the edge an idle_state trigger fires on.
type IdleDirection string

const (
	BecomesIdle   IdleDirection = "becomes_idle"
	BecomesActive IdleDirection = "becomes_active"
)

// Trigger is a condition evaluated against runtime state. It is a closed
// tagged variant: Type selects which of the optional fields are meaningful.
// Triggers are pure values; evaluation never mutates them.
type Trigger struct {
	Type TriggerType `json:"type"`

	// app_open, meeting_start, meeting_end
	AppName    string  `json:"app_name,omitempty"`
	WindowName *string `json:"window_name,omitempty"`

	// time
	Cron        string  `json:"cron,omitempty"`
	Description *string `json:"description,omitempty"`

	// keyword
	Pattern   string        `json:"pattern,omitempty"`
	Source    KeywordSource `json:"source,omitempty"`
	Threshold *float64      `json:"threshold,omitempty"`

	// context
	Apps       []string `json:"apps,omitempty"`
	Windows    []string `json:"windows,omitempty"`
	TimeRange  *string  `json:"time_range,omitempty"`
	DaysOfWeek []int    `json:"days_of_week,omitempty"`

	// meeting_start
	Keywords []string `json:"keywords,omitempty"`

	// meeting_end
	MinDurationMinutes *int `json:"min_duration_minutes,omitempty"`

	// idle_state
	IdleMinutes int           `json:"idle_minutes,omitempty"`
	State       IdleDirection `json:"state,omitempty"`
}

// ActionType discriminates the Action variants.
type ActionType string

const (
	ActionNotify             ActionType = "notify"
	ActionSummarize          ActionType = "summarize"
	ActionFocusMode          ActionType = "focus_mode"
	ActionRunPipe            ActionType = "run_pipe"
	ActionTag                ActionType = "tag"
	ActionWebhook            ActionType = "webhook"
	ActionExtractActionItems ActionType = "extract_action_items"
	ActionExportActionItems  ActionType = "export_action_items"
	ActionStartRecording     ActionType = "start_recording"
	ActionStopRecording      ActionType = "stop_recording"
)

// SummaryFocus narrows what a summarize action reports on.
type SummaryFocus string

const (
	SummaryAll         SummaryFocus = "all"
	SummaryActionItems SummaryFocus = "action_items"
	SummaryDecisions   SummaryFocus = "decisions"
	SummaryKeyPoints   SummaryFocus = "key_points"
)

// HTTPMethod restricts webhook actions to the supported verbs.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
)

// ExportTargetType identifies an external export destination.
type ExportTargetType string

const (
	ExportTodoist ExportTargetType = "todoist"
	ExportNotion  ExportTargetType = "notion"
	ExportWebhook ExportTargetType = "webhook"
	ExportSlack   ExportTargetType = "slack"
)

// ExportTarget describes where extracted action items are sent. It appears
// both in playbook actions (JSON) and in the extraction config (YAML).
type ExportTarget struct {
	Type       ExportTargetType `json:"type" yaml:"type"`
	Enabled    bool             `json:"enabled" yaml:"enabled"`
	URL        string           `json:"url,omitempty" yaml:"url"`
	APIToken   string           `json:"api_token,omitempty" yaml:"api_token"`
	ProjectID  string           `json:"project_id,omitempty" yaml:"project_id"`
	DatabaseID string           `json:"database_id,omitempty" yaml:"database_id"`
	Channel    string           `json:"channel,omitempty" yaml:"channel"`
}

// ActionItemFilter narrows which stored action items an export covers.
type ActionItemFilter struct {
	Since       *time.Time          `json:"since,omitempty"`
	Status      *ActionItemStatus   `json:"status,omitempty"`
	MinPriority *ActionItemPriority `json:"min_priority,omitempty"`
}

// Action is an effect executed when a playbook fires. Like Trigger it is a
// closed tagged variant; actions carry only their own parameters and share no
// mutable state within an execution.
type Action struct {
	Type ActionType `json:"type"`

	// notify
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Persistent *bool  `json:"persistent,omitempty"`

	// summarize, tag, extract_action_items
	TimeframeMinutes int `json:"timeframe_minutes,omitempty"`

	// summarize
	Focus *SummaryFocus `json:"focus,omitempty"`

	// focus_mode
	Enabled              *bool    `json:"enabled,omitempty"`
	DurationMinutes      *int     `json:"duration_minutes,omitempty"`
	AllowedApps          []string `json:"allowed_apps,omitempty"`
	SilenceNotifications *bool    `json:"silence_notifications,omitempty"`

	// run_pipe
	PipeID string         `json:"pipe_id,omitempty"`
	Params map[string]any `json:"params,omitempty"`

	// tag
	Tags []string `json:"tags,omitempty"`

	// webhook
	URL     string            `json:"url,omitempty"`
	Method  HTTPMethod        `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    map[string]any    `json:"body,omitempty"`

	// extract_action_items
	MinConfidence *float64       `json:"min_confidence,omitempty"`
	AutoExport    []ExportTarget `json:"auto_export,omitempty"`

	// export_action_items
	Target *ExportTarget     `json:"target,omitempty"`
	Filter *ActionItemFilter `json:"filter,omitempty"`

	// start_recording
	FocusApp     *string `json:"focus_app,omitempty"`
	RecordingTag *string `json:"tag,omitempty"`
}

// Playbook is a named automation rule: any trigger may fire it, all actions
// then execute in order. A playbook with no triggers never fires; an empty
// action list is a legal no-op.
type Playbook struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         *string    `json:"description,omitempty"`
	Enabled             bool       `json:"enabled"`
	Triggers            []Trigger  `json:"triggers"`
	Actions             []Action   `json:"actions"`
	CooldownMinutes     *int       `json:"cooldown_minutes,omitempty"`
	MaxExecutionsPerDay *int       `json:"max_executions_per_day,omitempty"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
	IsBuiltin           bool       `json:"is_builtin,omitempty"`
	Icon                *string    `json:"icon,omitempty"`
	Color               *string    `json:"color,omitempty"`
}

// PlaybookUpdate is a partial update: nil fields retain the stored value.
// Pointing CooldownMinutes or MaxExecutionsPerDay at a negative value clears
// the limit.
type PlaybookUpdate struct {
	Name                *string   `json:"name,omitempty"`
	Description         *string   `json:"description,omitempty"`
	Enabled             *bool     `json:"enabled,omitempty"`
	Triggers            []Trigger `json:"triggers,omitempty"`
	Actions             []Action  `json:"actions,omitempty"`
	CooldownMinutes     *int      `json:"cooldown_minutes,omitempty"`
	MaxExecutionsPerDay *int      `json:"max_executions_per_day,omitempty"`
	Icon                *string   `json:"icon,omitempty"`
	Color               *string   `json:"color,omitempty"`
}

// ExecutionStatus is the terminal state of a playbook execution.
type ExecutionStatus string

const (
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
	StatusCancelled ExecutionStatus = "cancelled"
)

// ActionResult records the outcome of one action within an execution.
type ActionResult struct {
	Action     Action         `json:"action"`
	Success    bool           `json:"success"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// PlaybookExecution is the audit record of a single firing.
type PlaybookExecution struct {
	ID            string          `json:"id"`
	PlaybookID    string          `json:"playbook_id"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	Status        ExecutionStatus `json:"status"`
	TriggeredBy   Trigger         `json:"triggered_by"`
	ActionResults []ActionResult  `json:"action_results"`
	Error         *string         `json:"error,omitempty"`
}
