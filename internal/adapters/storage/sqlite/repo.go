package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores boards and their change-event ledger in sqlite.
type Repository struct {
	db *sql.DB
}

var _ app.Store = (*Repository)(nil)

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	// One connection keeps PRAGMA foreign_keys and :memory: state in effect.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS board_columns (
			board_id TEXT NOT NULL,
			id TEXT NOT NULL,
			title TEXT NOT NULL,
			color_tag TEXT NOT NULL DEFAULT '',
			max_tasks INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			PRIMARY KEY(board_id, id),
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			board_id TEXT NOT NULL,
			id TEXT NOT NULL,
			column_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			tags_json TEXT NOT NULL DEFAULT '[]',
			assignee TEXT NOT NULL DEFAULT '',
			due_at TEXT,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			PRIMARY KEY(board_id, id),
			FOREIGN KEY(board_id, column_id) REFERENCES board_columns(board_id, id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS change_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			board_id TEXT NOT NULL,
			task_id TEXT NOT NULL DEFAULT '',
			operation TEXT NOT NULL,
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			FOREIGN KEY(board_id) REFERENCES boards(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_board_columns_position ON board_columns(board_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column_position ON tasks(board_id, column_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_board_created_at ON change_events(board_id, created_at DESC, id DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// LoadBoard returns the stored board with columns in board order and task
// ids in column order.
func (r *Repository) LoadBoard(ctx context.Context, boardID string) (app.BoardRecord, error) {
	rec := app.BoardRecord{ID: boardID}
	var updatedRaw string
	err := r.db.QueryRowContext(ctx, `SELECT name, updated_at FROM boards WHERE id = ?`, boardID).Scan(&rec.Name, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return app.BoardRecord{}, app.ErrNotFound
	}
	if err != nil {
		return app.BoardRecord{}, err
	}
	rec.UpdatedAt = parseTS(updatedRaw)

	columns, err := r.listColumns(ctx, boardID)
	if err != nil {
		return app.BoardRecord{}, err
	}
	byID := make(map[string]int, len(columns))
	for idx := range columns {
		byID[columns[idx].ID] = idx
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, column_id, title, status, priority, tags_json, assignee, due_at, description, created_at
		FROM tasks
		WHERE board_id = ?
		ORDER BY column_id ASC, position ASC, id ASC
	`, boardID)
	if err != nil {
		return app.BoardRecord{}, err
	}
	defer rows.Close()

	for rows.Next() {
		task, columnID, err := scanTask(rows)
		if err != nil {
			return app.BoardRecord{}, err
		}
		idx, ok := byID[columnID]
		if !ok {
			continue
		}
		columns[idx].TaskIDs = append(columns[idx].TaskIDs, task.ID)
		rec.Tasks = append(rec.Tasks, task)
	}
	if err := rows.Err(); err != nil {
		return app.BoardRecord{}, err
	}
	rec.Columns = columns
	return rec, nil
}

func (r *Repository) listColumns(ctx context.Context, boardID string) ([]domain.Column, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, color_tag, max_tasks
		FROM board_columns
		WHERE board_id = ?
		ORDER BY position ASC, id ASC
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Column, 0)
	for rows.Next() {
		c := domain.Column{TaskIDs: []string{}}
		if err := rows.Scan(&c.ID, &c.Title, &c.ColorTag, &c.MaxTasks); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveBoard replaces the stored columns and tasks of rec.ID in one
// transaction. Task positions follow column order; tasks no column lists are
// not stored.
func (r *Repository) SaveBoard(ctx context.Context, rec app.BoardRecord) (err error) {
	if strings.TrimSpace(rec.ID) == "" {
		return domain.ErrInvalidID
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO boards(id, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
	`, rec.ID, rec.Name, ts(updatedAt)); err != nil {
		return fmt.Errorf("upsert board: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks WHERE board_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM board_columns WHERE board_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clear columns: %w", err)
	}

	type slot struct {
		columnID string
		position int
	}
	slots := map[string]slot{}
	for position, c := range rec.Columns {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO board_columns(board_id, id, title, color_tag, max_tasks, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.ID, c.ID, c.Title, c.ColorTag, c.MaxTasks, position); err != nil {
			return fmt.Errorf("insert column %q: %w", c.ID, err)
		}
		for taskPos, id := range c.TaskIDs {
			slots[id] = slot{columnID: c.ID, position: taskPos}
		}
	}

	for _, t := range rec.Tasks {
		at, ok := slots[t.ID]
		if !ok {
			continue
		}
		tagsJSON, marshalErr := json.Marshal(nonNilTags(t.Tags))
		if marshalErr != nil {
			err = fmt.Errorf("encode task tags: %w", marshalErr)
			return err
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO tasks(board_id, id, column_id, position, title, status, priority, tags_json, assignee, due_at, description, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.ID,
			t.ID,
			at.columnID,
			at.position,
			t.Title,
			t.Status,
			string(t.Priority),
			string(tagsJSON),
			t.Assignee,
			nullableTS(t.DueDate),
			t.Description,
			ts(t.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert task %q: %w", t.ID, err)
		}
	}

	err = tx.Commit()
	return err
}

// AppendChangeEvent inserts a change-event ledger record.
func (r *Repository) AppendChangeEvent(ctx context.Context, event domain.ChangeEvent) error {
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO change_events(board_id, task_id, operation, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		event.BoardID,
		event.TaskID,
		string(event.Operation),
		string(metadataJSON),
		ts(normalizeEventTS(event.OccurredAt)),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// ListChangeEvents returns the newest events for a board first.
func (r *Repository) ListChangeEvents(ctx context.Context, boardID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, board_id, task_id, operation, metadata_json, created_at
		FROM change_events
		WHERE board_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, boardID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		var (
			event       domain.ChangeEvent
			opRaw       string
			metadataRaw string
			createdRaw  string
		)
		if err := rows.Scan(&event.ID, &event.BoardID, &event.TaskID, &opRaw, &metadataRaw, &createdRaw); err != nil {
			return nil, err
		}
		event.Operation = normalizeChangeOperation(opRaw)
		event.OccurredAt = parseTS(createdRaw)
		if strings.TrimSpace(metadataRaw) == "" {
			metadataRaw = "{}"
		}
		if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode change_events.metadata_json: %w", err)
		}
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanTask returns a task and the id of the column that holds it.
func scanTask(s scanner) (domain.Task, string, error) {
	var (
		t          domain.Task
		columnID   string
		priority   string
		tagsRaw    string
		dueRaw     sql.NullString
		createdRaw string
	)
	if err := s.Scan(&t.ID, &columnID, &t.Title, &t.Status, &priority, &tagsRaw, &t.Assignee, &dueRaw, &t.Description, &createdRaw); err != nil {
		return domain.Task{}, "", err
	}
	t.Priority = domain.Priority(priority)
	if strings.TrimSpace(tagsRaw) == "" {
		tagsRaw = "[]"
	}
	if err := json.Unmarshal([]byte(tagsRaw), &t.Tags); err != nil {
		return domain.Task{}, "", fmt.Errorf("decode tasks.tags_json: %w", err)
	}
	t.DueDate = parseNullTS(dueRaw)
	t.CreatedAt = parseTS(createdRaw)
	return t, columnID, nil
}

// normalizeChangeOperation maps stored values onto known operations.
func normalizeChangeOperation(raw string) domain.ChangeOperation {
	switch op := domain.ChangeOperation(strings.ToLower(strings.TrimSpace(raw))); op {
	case domain.ChangeOperationCreate,
		domain.ChangeOperationUpdate,
		domain.ChangeOperationMove,
		domain.ChangeOperationDelete,
		domain.ChangeOperationDuplicate:
		return op
	default:
		return domain.ChangeOperationUpdate
	}
}

// normalizeEventTS defaults a zero timestamp to now.
func normalizeEventTS(in time.Time) time.Time {
	if in.IsZero() {
		return time.Now().UTC()
	}
	return in.UTC()
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableTS handles nullable ts.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses input into a normalized form.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}
