package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

const columns = `id, external_id, owner, title, description, scheduled_date, start_time, end_time,
	status, category, attachment_ref, attachment_label, storage_file_ref, created_at`

// Store is the on-device mirror of task records.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Upsert inserts the task or replaces the row with the same id.
func (s *Store) Upsert(ctx context.Context, t model.Task) error {
	if t.ID == "" {
		return fmt.Errorf("%w: cache upsert without id", model.ErrInvalidTask)
	}
	_, err := s.DB.ExecContext(ctx, `INSERT INTO tasks (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			external_id = excluded.external_id,
			owner = excluded.owner,
			title = excluded.title,
			description = excluded.description,
			scheduled_date = excluded.scheduled_date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			status = excluded.status,
			category = excluded.category,
			attachment_ref = excluded.attachment_ref,
			attachment_label = excluded.attachment_label,
			storage_file_ref = excluded.storage_file_ref,
			created_at = excluded.created_at`,
		t.ID, t.ExternalID, t.OwnerIdentity, t.Title, t.Description, toMillis(t.ScheduledDate),
		t.StartTime, t.EndTime, string(t.Status), t.Category, t.AttachmentRef, t.AttachmentLabel,
		t.StorageFileRef, toMillis(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert task %s: %w", t.ID, err)
	}
	return nil
}

// Get returns the task with the given id or model.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (model.Task, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+columns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, model.ErrNotFound
	}
	return t, err
}

func (s *Store) FindByExternalID(ctx context.Context, owner, externalID string) ([]model.Task, error) {
	return s.query(ctx, `SELECT `+columns+` FROM tasks WHERE owner = ? AND external_id = ?
		ORDER BY created_at DESC, id`, owner, externalID)
}

// FindSimilar returns tasks sharing the title and exact scheduled date.
func (s *Store) FindSimilar(ctx context.Context, owner, title string, scheduled time.Time) ([]model.Task, error) {
	return s.query(ctx, `SELECT `+columns+` FROM tasks WHERE owner = ? AND title = ? AND scheduled_date = ?
		ORDER BY created_at DESC, id`, owner, title, toMillis(scheduled))
}

func (s *Store) ListByOwner(ctx context.Context, owner string) ([]model.Task, error) {
	return s.query(ctx, `SELECT `+columns+` FROM tasks WHERE owner = ?
		ORDER BY scheduled_date, start_time, id`, owner)
}

// ListLocalOnly returns tasks that never reached the task source.
func (s *Store) ListLocalOnly(ctx context.Context, owner string) ([]model.Task, error) {
	return s.query(ctx, `SELECT `+columns+` FROM tasks WHERE owner = ? AND external_id = ''
		ORDER BY created_at, id`, owner)
}

func (s *Store) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete task %s: %w", id, err)
		}
	}
	return nil
}

// DeleteByOwner removes every task of owner and returns how many rows went.
func (s *Store) DeleteByOwner(ctx context.Context, owner string) (int, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE owner = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("delete tasks of %s: %w", owner, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// CountByStatus returns the number of tasks of owner per stored status.
func (s *Store) CountByStatus(ctx context.Context, owner string) (map[model.Status]int, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks WHERE owner = ? GROUP BY status`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.ParseStatus(status)] += n
	}
	return counts, rows.Err()
}

// Reset drops all cached data and recreates the schema.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DROP TABLE IF EXISTS tasks`); err != nil {
		return fmt.Errorf("drop tasks: %w", err)
	}
	return applySchema(ctx, s.DB)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]model.Task, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (model.Task, error) {
	var t model.Task
	var status string
	var scheduled, created int64
	err := row.Scan(&t.ID, &t.ExternalID, &t.OwnerIdentity, &t.Title, &t.Description, &scheduled,
		&t.StartTime, &t.EndTime, &status, &t.Category, &t.AttachmentRef, &t.AttachmentLabel,
		&t.StorageFileRef, &created)
	if err != nil {
		return model.Task{}, err
	}
	t.Status = model.ParseStatus(status)
	t.ScheduledDate = fromMillis(scheduled)
	t.CreatedAt = fromMillis(created)
	return t, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
