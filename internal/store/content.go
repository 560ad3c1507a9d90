package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glimpse-app/glimpse/internal/action"
	"github.com/glimpse-app/glimpse/pkg/models"
)

// ContentStore is the tenant-scoped view over captured content and action
// items. Rows with a NULL tenant are globally visible; rows with a tenant
// are visible only to that tenant. An empty tenant sees and writes global
// rows only.
type ContentStore struct {
	store    *Store
	tenantID string
}

// Content returns the store's content view scoped to tenantID.
func (s *Store) Content(tenantID string) *ContentStore {
	return &ContentStore{store: s, tenantID: tenantID}
}

// tenantClause returns the WHERE fragment scoping reads and its arguments.
func (c *ContentStore) tenantClause() (string, []any) {
	if c.tenantID == "" {
		return "tenant_id IS NULL", nil
	}
	return "(tenant_id = ? OR tenant_id IS NULL)", []any{c.tenantID}
}

func (c *ContentStore) tenantValue() any {
	if c.tenantID == "" {
		return nil
	}
	return c.tenantID
}

// InsertFrame records one captured screen frame and returns its id.
func (c *ContentStore) InsertFrame(ctx context.Context, appName, windowName, ocrText string, capturedAt time.Time) (int64, error) {
	res, err := c.store.db.ExecContext(ctx, `
		INSERT INTO frames (app_name, window_name, ocr_text, tenant_id, captured_at)
		VALUES (?, ?, ?, ?, ?)`,
		appName, windowName, ocrText, c.tenantValue(), capturedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting frame: %w", err)
	}
	return res.LastInsertId()
}

// InsertAudioChunk records one transcribed audio chunk and returns its id.
func (c *ContentStore) InsertAudioChunk(ctx context.Context, transcript string, capturedAt time.Time) (int64, error) {
	res, err := c.store.db.ExecContext(ctx, `
		INSERT INTO audio_chunks (transcript, tenant_id, captured_at)
		VALUES (?, ?, ?)`,
		transcript, c.tenantValue(), capturedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting audio chunk: %w", err)
	}
	return res.LastInsertId()
}

// SearchRecentFrames returns frame ids captured within the window.
func (c *ContentStore) SearchRecentFrames(ctx context.Context, start, end time.Time) ([]int64, error) {
	clause, args := c.tenantClause()
	query := "SELECT id FROM frames WHERE " + clause + " AND captured_at >= ? AND captured_at <= ? ORDER BY captured_at"
	args = append(args, start, end)
	return c.queryIDs(ctx, query, args)
}

// SearchRecentAudio returns audio chunk ids captured within the window.
func (c *ContentStore) SearchRecentAudio(ctx context.Context, start, end time.Time) ([]int64, error) {
	clause, args := c.tenantClause()
	query := "SELECT id FROM audio_chunks WHERE " + clause + " AND captured_at >= ? AND captured_at <= ? ORDER BY captured_at"
	args = append(args, start, end)
	return c.queryIDs(ctx, query, args)
}

func (c *ContentStore) queryIDs(ctx context.Context, query string, args []any) ([]int64, error) {
	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching content: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddTags attaches tags to a content row. Duplicate tags are ignored; a
// missing content row is an error.
func (c *ContentStore) AddTags(ctx context.Context, id int64, contentType action.TagContentType, tags []string) error {
	table := "frames"
	if contentType == action.TagContentAudio {
		table = "audio_chunks"
	}

	clause, args := c.tenantClause()
	var exists int
	args = append([]any{id}, args...)
	err := c.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+" WHERE id = ? AND "+clause, args...).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking content %d: %w", id, err)
	}
	if exists == 0 {
		return fmt.Errorf("%s %d: %w", contentType, id, ErrNotFound)
	}

	now := time.Now().UTC()
	for _, tag := range tags {
		if _, err := c.store.db.ExecContext(ctx, `
			INSERT INTO content_tags (content_id, content_type, tag, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(content_id, content_type, tag) DO NOTHING`,
			id, string(contentType), tag, now); err != nil {
			return fmt.Errorf("tagging %s %d with %q: %w", contentType, id, tag, err)
		}
	}
	return nil
}

// Tags returns the tags attached to a content row.
func (c *ContentStore) Tags(ctx context.Context, id int64, contentType action.TagContentType) ([]string, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT tag FROM content_tags
		WHERE content_id = ? AND content_type = ?
		ORDER BY tag`, id, string(contentType))
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// RecentTranscriptText joins the transcripts captured in the window, oldest
// first, one chunk per line.
func (c *ContentStore) RecentTranscriptText(ctx context.Context, start, end time.Time) (string, error) {
	clause, args := c.tenantClause()
	query := "SELECT transcript FROM audio_chunks WHERE " + clause + " AND captured_at >= ? AND captured_at <= ? ORDER BY captured_at"
	args = append(args, start, end)

	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("loading transcripts: %w", err)
	}
	defer rows.Close()

	var chunks []string
	for rows.Next() {
		var transcript string
		if err := rows.Scan(&transcript); err != nil {
			return "", err
		}
		chunks = append(chunks, transcript)
	}
	return strings.Join(chunks, "\n"), rows.Err()
}

// SaveActionItems upserts extracted items under the store's tenant.
func (c *ContentStore) SaveActionItems(ctx context.Context, items []models.ActionItem) error {
	for _, item := range items {
		_, err := c.store.db.ExecContext(ctx, `
			INSERT INTO action_items (id, text, assignee, deadline, source, source_id,
				confidence, status, priority, tenant_id, created_at, updated_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				text = excluded.text,
				assignee = excluded.assignee,
				deadline = excluded.deadline,
				confidence = excluded.confidence,
				status = excluded.status,
				priority = excluded.priority,
				updated_at = excluded.updated_at,
				completed_at = excluded.completed_at`,
			item.ID, item.Text, item.Assignee, item.Deadline, string(item.Source),
			item.SourceID, item.Confidence, string(item.Status), item.Priority.String(),
			c.tenantValue(), item.CreatedAt, item.UpdatedAt, item.CompletedAt)
		if err != nil {
			return fmt.Errorf("saving action item %s: %w", item.ID, err)
		}
	}
	return nil
}

// GetActionItem returns one item by id.
func (c *ContentStore) GetActionItem(ctx context.Context, id string) (models.ActionItem, error) {
	clause, args := c.tenantClause()
	query := `
		SELECT id, text, assignee, deadline, source, source_id, confidence,
			status, priority, created_at, updated_at, completed_at
		FROM action_items WHERE id = ? AND ` + clause
	args = append([]any{id}, args...)

	row := c.store.db.QueryRowContext(ctx, query, args...)
	item, err := scanActionItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ActionItem{}, fmt.Errorf("action item %s: %w", id, ErrNotFound)
	}
	return item, err
}

// ListActionItems returns items matching the filter, newest first. A nil
// filter returns everything visible to the tenant.
func (c *ContentStore) ListActionItems(ctx context.Context, filter *models.ActionItemFilter) ([]models.ActionItem, error) {
	clause, args := c.tenantClause()
	query := `
		SELECT id, text, assignee, deadline, source, source_id, confidence,
			status, priority, created_at, updated_at, completed_at
		FROM action_items WHERE ` + clause

	if filter != nil {
		if filter.Since != nil {
			query += " AND created_at >= ?"
			args = append(args, *filter.Since)
		}
		if filter.Status != nil {
			query += " AND status = ?"
			args = append(args, string(*filter.Status))
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing action items: %w", err)
	}
	defer rows.Close()

	var items []models.ActionItem
	for rows.Next() {
		item, err := scanActionItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		// Priority ordering is not lexicographic, so this filter applies
		// after the scan.
		if filter != nil && filter.MinPriority != nil && item.Priority < *filter.MinPriority {
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateActionItemStatus applies a status transition to a stored item.
func (c *ContentStore) UpdateActionItemStatus(ctx context.Context, id string, status models.ActionItemStatus) error {
	now := time.Now().UTC()
	var completedAt any
	if status == models.ItemDone {
		completedAt = now
	}

	clause, args := c.tenantClause()
	query := "UPDATE action_items SET status = ?, updated_at = ?, completed_at = ? WHERE id = ? AND " + clause
	args = append([]any{string(status), now, completedAt, id}, args...)

	res, err := c.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating action item %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("action item %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanActionItem(scan func(dest ...any) error) (models.ActionItem, error) {
	var item models.ActionItem
	var source, status, priority string
	var deadline, completedAt sql.NullTime
	err := scan(&item.ID, &item.Text, &item.Assignee, &deadline, &source,
		&item.SourceID, &item.Confidence, &status, &priority,
		&item.CreatedAt, &item.UpdatedAt, &completedAt)
	if err != nil {
		return models.ActionItem{}, err
	}
	item.Source = models.ActionItemSource(source)
	item.Status = models.ActionItemStatus(status)
	item.Priority = models.ParsePriority(priority)
	if deadline.Valid {
		t := deadline.Time.UTC()
		item.Deadline = &t
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		item.CompletedAt = &t
	}
	return item, nil
}
