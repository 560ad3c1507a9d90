package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glimpse-app/glimpse/pkg/models"
)

// SavePlaybook inserts or replaces a playbook. Triggers and actions are
// stored as JSON blobs alongside the scalar columns.
func (s *Store) SavePlaybook(ctx context.Context, pb models.Playbook) error {
	triggers, err := json.Marshal(pb.Triggers)
	if err != nil {
		return fmt.Errorf("encoding triggers: %w", err)
	}
	actions, err := json.Marshal(pb.Actions)
	if err != nil {
		return fmt.Errorf("encoding actions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO playbooks (id, name, description, enabled, triggers, actions,
			cooldown_minutes, max_executions_per_day, is_builtin, icon, color,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			enabled = excluded.enabled,
			triggers = excluded.triggers,
			actions = excluded.actions,
			cooldown_minutes = excluded.cooldown_minutes,
			max_executions_per_day = excluded.max_executions_per_day,
			is_builtin = excluded.is_builtin,
			icon = excluded.icon,
			color = excluded.color,
			updated_at = excluded.updated_at`,
		pb.ID, pb.Name, pb.Description, pb.Enabled, string(triggers), string(actions),
		pb.CooldownMinutes, pb.MaxExecutionsPerDay, pb.IsBuiltin, pb.Icon, pb.Color,
		pb.CreatedAt, pb.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving playbook %s: %w", pb.ID, err)
	}
	return nil
}

// DeletePlaybook removes a playbook row. Deleting an unknown id is not an
// error; the registry is the authority on existence.
func (s *Store) DeletePlaybook(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM playbooks WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting playbook %s: %w", id, err)
	}
	return nil
}

// LoadPlaybooks returns all persisted playbooks.
func (s *Store) LoadPlaybooks(ctx context.Context) ([]models.Playbook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, enabled, triggers, actions,
			cooldown_minutes, max_executions_per_day, is_builtin, icon, color,
			created_at, updated_at
		FROM playbooks`)
	if err != nil {
		return nil, fmt.Errorf("loading playbooks: %w", err)
	}
	defer rows.Close()

	var playbooks []models.Playbook
	for rows.Next() {
		var pb models.Playbook
		var triggers, actions string
		if err := rows.Scan(&pb.ID, &pb.Name, &pb.Description, &pb.Enabled,
			&triggers, &actions, &pb.CooldownMinutes, &pb.MaxExecutionsPerDay,
			&pb.IsBuiltin, &pb.Icon, &pb.Color, &pb.CreatedAt, &pb.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning playbook row: %w", err)
		}
		if err := json.Unmarshal([]byte(triggers), &pb.Triggers); err != nil {
			return nil, fmt.Errorf("decoding triggers for %s: %w", pb.ID, err)
		}
		if err := json.Unmarshal([]byte(actions), &pb.Actions); err != nil {
			return nil, fmt.Errorf("decoding actions for %s: %w", pb.ID, err)
		}
		playbooks = append(playbooks, pb)
	}
	return playbooks, rows.Err()
}

// SaveExecution records one playbook firing in the history table.
func (s *Store) SaveExecution(ctx context.Context, exec models.PlaybookExecution) error {
	triggeredBy, err := json.Marshal(exec.TriggeredBy)
	if err != nil {
		return fmt.Errorf("encoding trigger: %w", err)
	}
	results, err := json.Marshal(exec.ActionResults)
	if err != nil {
		return fmt.Errorf("encoding action results: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO playbook_executions (id, playbook_id, started_at, completed_at,
			status, triggered_by, action_results, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.PlaybookID, exec.StartedAt, exec.CompletedAt,
		string(exec.Status), string(triggeredBy), string(results), exec.Error)
	if err != nil {
		return fmt.Errorf("saving execution %s: %w", exec.ID, err)
	}
	return nil
}

// ListExecutions returns the most recent executions for a playbook, newest
// first. An empty playbookID returns executions across all playbooks.
func (s *Store) ListExecutions(ctx context.Context, playbookID string, limit int) ([]models.PlaybookExecution, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, playbook_id, started_at, completed_at, status,
			triggered_by, action_results, error
		FROM playbook_executions`
	args := []any{}
	if playbookID != "" {
		query += " WHERE playbook_id = ?"
		args = append(args, playbookID)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing executions: %w", err)
	}
	defer rows.Close()

	var executions []models.PlaybookExecution
	for rows.Next() {
		var exec models.PlaybookExecution
		var status, triggeredBy, results string
		var completedAt sql.NullTime
		if err := rows.Scan(&exec.ID, &exec.PlaybookID, &exec.StartedAt, &completedAt,
			&status, &triggeredBy, &results, &exec.Error); err != nil {
			return nil, fmt.Errorf("scanning execution row: %w", err)
		}
		exec.Status = models.ExecutionStatus(status)
		if completedAt.Valid {
			t := completedAt.Time.UTC()
			exec.CompletedAt = &t
		}
		if err := json.Unmarshal([]byte(triggeredBy), &exec.TriggeredBy); err != nil {
			return nil, fmt.Errorf("decoding trigger for %s: %w", exec.ID, err)
		}
		if err := json.Unmarshal([]byte(results), &exec.ActionResults); err != nil {
			return nil, fmt.Errorf("decoding action results for %s: %w", exec.ID, err)
		}
		executions = append(executions, exec)
	}
	return executions, rows.Err()
}

// PruneExecutions deletes execution records older than the cutoff.
func (s *Store) PruneExecutions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM playbook_executions WHERE started_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("pruning executions: %w", err)
	}
	return res.RowsAffected()
}
