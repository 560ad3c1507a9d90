package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glimpse-app/glimpse/internal/action"
	"github.com/glimpse-app/glimpse/internal/extract"
	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/internal/queue"
	"github.com/glimpse-app/glimpse/internal/worker"
	"github.com/glimpse-app/glimpse/pkg/models"
)

var (
	// ErrNotFound is returned for operations on an unknown playbook id.
	ErrNotFound = errors.New("playbook not found")
	// ErrBuiltinPlaybook is returned when deleting a built-in playbook.
	ErrBuiltinPlaybook = errors.New("built-in playbooks cannot be deleted")
)

// Store persists playbooks and execution history. All methods are optional
// in the sense that the engine runs fully in-memory with a nil Store.
type Store interface {
	SavePlaybook(ctx context.Context, pb models.Playbook) error
	DeletePlaybook(ctx context.Context, id string) error
	LoadPlaybooks(ctx context.Context) ([]models.Playbook, error)
	SaveExecution(ctx context.Context, exec models.PlaybookExecution) error
}

// Engine owns the playbook registry and evaluates triggers on a fixed scan
// interval, firing matching playbooks as detached execution tasks. Meeting
// and idle triggers fire through SubmitEvent instead of the scan loop.
//
// The registry, trigger state, and trigger context each sit behind their own
// lock; the scan tick takes registry-read then state-write in that order and
// never holds more than those two at once.
type Engine struct {
	settings models.EngineSettings
	executor *action.Executor
	tracker  *extract.Tracker
	store    Store

	mu        sync.RWMutex
	playbooks map[string]*models.Playbook

	stateMu sync.RWMutex
	state   TriggerState

	ctxMu   sync.RWMutex
	context TriggerContext

	events *queue.EventQueue
	tasks  worker.Group
	cancel context.CancelFunc
}

// New creates an engine and its action executor. The engine registers
// itself as the executor's focus-mode controller. The tracker and store may
// be nil; transcript processing and persistence are then disabled.
func New(settings models.EngineSettings, execCfg action.Config, tracker *extract.Tracker, store Store) *Engine {
	queueSize := settings.EventQueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}
	e := &Engine{
		settings:  settings,
		tracker:   tracker,
		store:     store,
		playbooks: make(map[string]*models.Playbook),
		state:     newTriggerState(),
		events:    queue.NewEventQueue(queueSize),
	}
	execCfg.Focus = e
	e.executor = action.NewExecutor(execCfg)
	return e
}

// Init loads persisted playbooks and seeds the built-in set on first run.
func (e *Engine) Init(ctx context.Context) error {
	var loaded []models.Playbook
	if e.store != nil {
		var err error
		loaded, err = e.store.LoadPlaybooks(ctx)
		if err != nil {
			return fmt.Errorf("failed to load playbooks: %w", err)
		}
	}

	e.mu.Lock()
	for i := range loaded {
		pb := loaded[i]
		e.playbooks[pb.ID] = &pb
	}
	if len(e.playbooks) == 0 {
		for _, pb := range DefaultPlaybooks() {
			pb := pb
			e.playbooks[pb.ID] = &pb
		}
	}
	count := len(e.playbooks)
	e.mu.Unlock()

	if e.store != nil && len(loaded) == 0 {
		for _, pb := range DefaultPlaybooks() {
			if err := e.store.SavePlaybook(ctx, pb); err != nil {
				return fmt.Errorf("failed to persist built-in playbook %q: %w", pb.ID, err)
			}
		}
	}

	logger.L().Info("Playbook engine initialized", "playbooks", count)
	return nil
}

// Start launches the scan and event loops. They run until Stop or until the
// given context is cancelled.
func (e *Engine) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	interval := e.settings.ScanInterval.Duration
	if interval <= 0 {
		interval = 5 * time.Second
	}

	e.tasks.Go("scan_loop", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				e.scanTick(runCtx, time.Now())
			}
		}
	})

	e.tasks.Go("event_loop", func() {
		for {
			event, err := e.events.Dequeue(runCtx)
			if err != nil {
				return
			}
			e.handleEvent(runCtx, event)
		}
	})

	logger.L().Info("Playbook engine started", "scan_interval", interval)
}

// Stop cancels the loops and waits for in-flight work, including detached
// execution tasks.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.events.Stop()
	e.tasks.Wait()
	logger.L().Info("Playbook engine stopped")
}

// SubmitEvent records an inbound event in the trigger context and queues it
// for event-driven trigger handling. It never blocks; when the queue is full
// the oldest pending event is dropped.
func (e *Engine) SubmitEvent(event models.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	switch event.Type {
	case models.EventOcrText:
		e.ctxMu.Lock()
		e.context.pushOCR(OCREvent{Text: event.Text, AppName: event.AppName, Timestamp: event.Timestamp})
		e.ctxMu.Unlock()
	case models.EventAudioTranscription:
		e.ctxMu.Lock()
		e.context.pushAudio(AudioEvent{Text: event.Text, Timestamp: event.Timestamp})
		e.ctxMu.Unlock()
	case models.EventIdleStateChanged:
		e.ctxMu.Lock()
		e.context.IsIdle = event.IsIdle
		e.context.IdleMinutes = event.IdleMinutes
		e.ctxMu.Unlock()
	case models.EventMeetingStarted:
		e.ctxMu.Lock()
		var app *string
		if event.AppName != "" {
			name := event.AppName
			app = &name
		}
		e.context.ActiveMeeting = &MeetingContext{
			SourceID:  event.SourceID,
			StartedAt: event.Timestamp,
			AppName:   app,
		}
		e.ctxMu.Unlock()
	case models.EventMeetingEnded:
		e.ctxMu.Lock()
		e.context.ActiveMeeting = nil
		e.ctxMu.Unlock()
	case models.EventAppOpened:
		e.stateMu.Lock()
		e.state.OpenApps[event.AppName] = AppState{WindowName: event.WindowName, LastSeen: event.Timestamp}
		e.stateMu.Unlock()
	case models.EventAppClosed:
		e.stateMu.Lock()
		delete(e.state.OpenApps, event.AppName)
		e.stateMu.Unlock()
	}

	if err := e.events.Enqueue(event); err != nil {
		logger.L().Warn("Failed to enqueue event", "type", event.Type, "error", err)
	}
}

// SetFocusMode implements the executor's focus-mode collaborator.
func (e *Engine) SetFocusMode(enabled bool, endTime *time.Time) {
	e.stateMu.Lock()
	e.state.FocusModeActive = enabled
	if enabled {
		e.state.FocusModeEndTime = endTime
	} else {
		e.state.FocusModeEndTime = nil
	}
	e.stateMu.Unlock()
}

// FocusModeActive reports the current focus-mode state.
func (e *Engine) FocusModeActive() bool {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state.FocusModeActive
}

// scanTick evaluates all playbooks once. Executions are spawned after both
// locks are released.
func (e *Engine) scanTick(ctx context.Context, now time.Time) {
	type pendingExec struct {
		playbookID string
		trigger    models.Trigger
		actions    []models.Action
	}
	var pending []pendingExec

	e.ctxMu.RLock()
	tc := e.context
	e.ctxMu.RUnlock()

	e.mu.RLock()
	e.stateMu.Lock()

	// Daily counters reset at the UTC day boundary, before any evaluation.
	utcNow := now.UTC()
	if utcNow.YearDay() != e.state.CurrentDay.YearDay() || utcNow.Year() != e.state.CurrentDay.Year() {
		e.state.DailyExecutions = make(map[string]int)
		e.state.CurrentDay = utcNow
	}

	// An expired focus-mode session deactivates on the next tick.
	if e.state.FocusModeActive && e.state.FocusModeEndTime != nil && utcNow.After(*e.state.FocusModeEndTime) {
		e.state.FocusModeActive = false
		e.state.FocusModeEndTime = nil
		logger.L().Info("Focus mode expired")
	}

	for id, pb := range e.playbooks {
		if !e.eligibleLocked(pb, now) {
			continue
		}

		for _, trig := range pb.Triggers {
			fires, err := evaluateTrigger(trig, &e.state, &tc, now)
			if err != nil {
				logger.L().Error("Trigger evaluation failed", "playbook", id, "type", trig.Type, "error", err)
				continue
			}
			if !fires {
				continue
			}

			e.recordFireLocked(id, now)
			pending = append(pending, pendingExec{
				playbookID: id,
				trigger:    trig,
				actions:    append([]models.Action(nil), pb.Actions...),
			})
			break
		}
	}

	e.stateMu.Unlock()
	e.mu.RUnlock()

	for _, p := range pending {
		e.spawnExecution(ctx, p.playbookID, p.trigger, p.actions)
	}
}

// handleEvent fires event-driven triggers and feeds the meeting tracker.
func (e *Engine) handleEvent(ctx context.Context, event models.Event) {
	switch event.Type {
	case models.EventAudioTranscription:
		if e.tracker != nil {
			sourceID := event.SourceID
			if sourceID == "" {
				sourceID = "audio"
			}
			if _, err := e.tracker.ProcessTranscript(ctx, sourceID, event.Text); err != nil {
				logger.L().Error("Transcript processing failed", "source_id", sourceID, "error", err)
			}
		}
	case models.EventMeetingStarted:
		e.fireEventTriggers(ctx, func(trig models.Trigger) bool {
			return trig.Type == models.TriggerMeetingStart && meetingStartMatches(trig, event, e.recentAudioText())
		})
	case models.EventMeetingEnded:
		if e.tracker != nil && event.SourceID != "" {
			if _, err := e.tracker.EndMeeting(ctx, event.SourceID); err != nil {
				logger.L().Error("Meeting end processing failed", "source_id", event.SourceID, "error", err)
			}
		}
		e.fireEventTriggers(ctx, func(trig models.Trigger) bool {
			return trig.Type == models.TriggerMeetingEnd && meetingEndMatches(trig, event)
		})
	case models.EventIdleStateChanged:
		e.fireEventTriggers(ctx, func(trig models.Trigger) bool {
			return trig.Type == models.TriggerIdleState && idleStateMatches(trig, event)
		})
	case models.EventTimeTick:
		// An externally-driven tick runs the same pass as the scan loop.
		e.scanTick(ctx, time.Now())
	}
}

func meetingStartMatches(trig models.Trigger, event models.Event, recentAudio string) bool {
	if trig.AppName != "" && !strings.Contains(strings.ToLower(event.AppName), strings.ToLower(trig.AppName)) {
		return false
	}
	if len(trig.Keywords) > 0 {
		lower := strings.ToLower(recentAudio)
		found := false
		for _, kw := range trig.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func meetingEndMatches(trig models.Trigger, event models.Event) bool {
	if trig.AppName != "" && !strings.Contains(strings.ToLower(event.AppName), strings.ToLower(trig.AppName)) {
		return false
	}
	if trig.MinDurationMinutes != nil && event.DurationMinutes < *trig.MinDurationMinutes {
		return false
	}
	return true
}

func idleStateMatches(trig models.Trigger, event models.Event) bool {
	switch trig.State {
	case models.BecomesIdle:
		return event.IsIdle && event.IdleMinutes >= trig.IdleMinutes
	case models.BecomesActive:
		return !event.IsIdle
	default:
		return false
	}
}

func (e *Engine) recentAudioText() string {
	e.ctxMu.RLock()
	defer e.ctxMu.RUnlock()
	texts := make([]string, 0, len(e.context.RecentAudio))
	for _, ev := range e.context.RecentAudio {
		texts = append(texts, ev.Text)
	}
	return strings.Join(texts, " ")
}

// fireEventTriggers fires every eligible playbook whose first matching
// trigger satisfies the predicate. The usual gates (enabled, cooldown, daily
// limit) still apply.
func (e *Engine) fireEventTriggers(ctx context.Context, match func(models.Trigger) bool) {
	now := time.Now()
	type pendingExec struct {
		playbookID string
		trigger    models.Trigger
		actions    []models.Action
	}
	var pending []pendingExec

	e.mu.RLock()
	e.stateMu.Lock()
	for id, pb := range e.playbooks {
		if !e.eligibleLocked(pb, now) {
			continue
		}
		for _, trig := range pb.Triggers {
			if !match(trig) {
				continue
			}
			e.recordFireLocked(id, now)
			pending = append(pending, pendingExec{
				playbookID: id,
				trigger:    trig,
				actions:    append([]models.Action(nil), pb.Actions...),
			})
			break
		}
	}
	e.stateMu.Unlock()
	e.mu.RUnlock()

	for _, p := range pending {
		e.spawnExecution(ctx, p.playbookID, p.trigger, p.actions)
	}
}

// eligibleLocked applies the skip gates. Caller holds the registry read lock
// and the state lock.
func (e *Engine) eligibleLocked(pb *models.Playbook, now time.Time) bool {
	if !pb.Enabled || len(pb.Triggers) == 0 {
		return false
	}
	if pb.CooldownMinutes != nil {
		if last, ok := e.state.LastExecution[pb.ID]; ok {
			if now.Sub(last) < time.Duration(*pb.CooldownMinutes)*time.Minute {
				return false
			}
		}
	}
	if pb.MaxExecutionsPerDay != nil {
		if e.state.DailyExecutions[pb.ID] >= *pb.MaxExecutionsPerDay {
			return false
		}
	}
	return true
}

func (e *Engine) recordFireLocked(id string, now time.Time) {
	e.state.LastExecution[id] = now
	e.state.DailyExecutions[id]++
}

// spawnExecution runs a playbook's action sequence as a detached task so a
// slow action chain never delays the next scan tick.
func (e *Engine) spawnExecution(ctx context.Context, playbookID string, trigger models.Trigger, actions []models.Action) {
	e.tasks.Go("execute_"+playbookID, func() {
		e.executePlaybook(ctx, playbookID, trigger, actions)
	})
}

func (e *Engine) executePlaybook(ctx context.Context, playbookID string, trigger models.Trigger, actions []models.Action) {
	logger.L().Info("Executing playbook", "playbook", playbookID)

	exec := models.PlaybookExecution{
		ID:          uuid.NewString(),
		PlaybookID:  playbookID,
		StartedAt:   time.Now().UTC(),
		Status:      models.StatusRunning,
		TriggeredBy: trigger,
	}

	// A playbook deleted or disabled between fire and task start is not run.
	e.mu.RLock()
	pb, exists := e.playbooks[playbookID]
	enabled := exists && pb.Enabled
	e.mu.RUnlock()
	if !enabled {
		now := time.Now().UTC()
		exec.Status = models.StatusCancelled
		exec.CompletedAt = &now
		logger.L().Info("Playbook execution cancelled", "playbook", playbookID)
		e.saveExecution(ctx, exec)
		return
	}

	for _, act := range actions {
		exec.ActionResults = append(exec.ActionResults, e.executor.Execute(ctx, act))
	}

	exec.Status = models.StatusCompleted
	for _, res := range exec.ActionResults {
		if !res.Success {
			exec.Status = models.StatusFailed
			break
		}
	}
	now := time.Now().UTC()
	exec.CompletedAt = &now

	logger.L().Info("Playbook execution completed", "playbook", playbookID, "status", exec.Status)
	e.saveExecution(ctx, exec)
}

func (e *Engine) saveExecution(ctx context.Context, exec models.PlaybookExecution) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveExecution(ctx, exec); err != nil {
		logger.L().Error("Failed to save execution record", "playbook", exec.PlaybookID, "error", err)
	}
}

// CreatePlaybook registers a new playbook. The id and timestamps are always
// assigned here; a caller cannot create a built-in.
func (e *Engine) CreatePlaybook(ctx context.Context, pb models.Playbook) (models.Playbook, error) {
	now := time.Now().UTC()
	pb.ID = uuid.NewString()
	pb.CreatedAt = &now
	pb.UpdatedAt = &now
	pb.IsBuiltin = false

	e.mu.Lock()
	stored := pb
	e.playbooks[pb.ID] = &stored
	e.mu.Unlock()

	if err := e.persist(ctx, pb); err != nil {
		return models.Playbook{}, err
	}
	logger.L().Info("Created playbook", "playbook", pb.ID, "name", pb.Name)
	return pb, nil
}

// GetPlaybook returns a copy of the playbook with the given id.
func (e *Engine) GetPlaybook(id string) (models.Playbook, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pb, ok := e.playbooks[id]
	if !ok {
		return models.Playbook{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *pb, nil
}

// ListPlaybooks returns all playbooks sorted by name.
func (e *Engine) ListPlaybooks() []models.Playbook {
	e.mu.RLock()
	out := make([]models.Playbook, 0, len(e.playbooks))
	for _, pb := range e.playbooks {
		out = append(out, *pb)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdatePlaybook applies a partial update: nil fields keep their stored
// value, negative cooldown or daily-limit values clear the limit.
func (e *Engine) UpdatePlaybook(ctx context.Context, id string, update models.PlaybookUpdate) (models.Playbook, error) {
	e.mu.Lock()
	pb, ok := e.playbooks[id]
	if !ok {
		e.mu.Unlock()
		return models.Playbook{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if update.Name != nil {
		pb.Name = *update.Name
	}
	if update.Description != nil {
		pb.Description = update.Description
	}
	if update.Enabled != nil {
		pb.Enabled = *update.Enabled
	}
	if update.Triggers != nil {
		pb.Triggers = update.Triggers
	}
	if update.Actions != nil {
		pb.Actions = update.Actions
	}
	if update.CooldownMinutes != nil {
		if *update.CooldownMinutes < 0 {
			pb.CooldownMinutes = nil
		} else {
			pb.CooldownMinutes = update.CooldownMinutes
		}
	}
	if update.MaxExecutionsPerDay != nil {
		if *update.MaxExecutionsPerDay < 0 {
			pb.MaxExecutionsPerDay = nil
		} else {
			pb.MaxExecutionsPerDay = update.MaxExecutionsPerDay
		}
	}
	if update.Icon != nil {
		pb.Icon = update.Icon
	}
	if update.Color != nil {
		pb.Color = update.Color
	}
	now := time.Now().UTC()
	pb.UpdatedAt = &now
	updated := *pb
	e.mu.Unlock()

	if err := e.persist(ctx, updated); err != nil {
		return models.Playbook{}, err
	}
	return updated, nil
}

// DeletePlaybook removes a playbook. Built-ins are protected.
func (e *Engine) DeletePlaybook(ctx context.Context, id string) error {
	e.mu.Lock()
	pb, ok := e.playbooks[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if pb.IsBuiltin {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBuiltinPlaybook, id)
	}
	delete(e.playbooks, id)
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.DeletePlaybook(ctx, id); err != nil {
			return fmt.Errorf("failed to delete playbook %q: %w", id, err)
		}
	}
	logger.L().Info("Deleted playbook", "playbook", id)
	return nil
}

// TogglePlaybook enables or disables a playbook.
func (e *Engine) TogglePlaybook(ctx context.Context, id string, enabled bool) (models.Playbook, error) {
	e.mu.Lock()
	pb, ok := e.playbooks[id]
	if !ok {
		e.mu.Unlock()
		return models.Playbook{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	pb.Enabled = enabled
	now := time.Now().UTC()
	pb.UpdatedAt = &now
	updated := *pb
	e.mu.Unlock()

	if err := e.persist(ctx, updated); err != nil {
		return models.Playbook{}, err
	}
	return updated, nil
}

func (e *Engine) persist(ctx context.Context, pb models.Playbook) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SavePlaybook(ctx, pb); err != nil {
		return fmt.Errorf("failed to persist playbook %q: %w", pb.ID, err)
	}
	return nil
}
