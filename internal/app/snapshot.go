package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/evanschultz/lanes/internal/board"
	"github.com/evanschultz/lanes/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "lanes.snapshot.v1"

// Snapshot is the portable JSON form of one board.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Board      SnapshotBoard    `json:"board"`
	Columns    []SnapshotColumn `json:"columns"`
	Tasks      []SnapshotTask   `json:"tasks"`
}

// SnapshotBoard identifies the exported board.
type SnapshotBoard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ColorTag string `json:"color_tag,omitempty"`
	MaxTasks int    `json:"max_tasks"`
	Position int    `json:"position"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID          string          `json:"id"`
	ColumnID    string          `json:"column_id"`
	Position    int             `json:"position"`
	Title       string          `json:"title"`
	Status      string          `json:"status"`
	Priority    domain.Priority `json:"priority,omitempty"`
	Tags        []string        `json:"tags"`
	Assignee    string          `json:"assignee,omitempty"`
	DueAt       *time.Time      `json:"due_at,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ExportSnapshot handles export snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	rec, err := s.store.LoadBoard(ctx, s.cfg.BoardID)
	if err != nil {
		return Snapshot{}, err
	}
	return SnapshotFromRecord(rec, s.clock().UTC()), nil
}

// ImportSnapshot replaces the stored board with snap. The snapshot's board
// id is ignored; it lands under this service's board id.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	rec := snap.toRecord()
	rec.ID = s.cfg.BoardID
	if strings.TrimSpace(rec.Name) == "" {
		rec.Name = s.cfg.BoardName
	}
	rec.UpdatedAt = s.clock().UTC()
	if err := s.store.SaveBoard(ctx, rec); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	s.logger.Info("snapshot imported", "board_id", rec.ID, "columns", len(rec.Columns), "tasks", len(rec.Tasks))
	return nil
}

// SnapshotFromRecord converts a stored board into its snapshot form.
func SnapshotFromRecord(rec BoardRecord, exportedAt time.Time) Snapshot {
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: exportedAt,
		Board:      SnapshotBoard{ID: rec.ID, Name: rec.Name},
		Columns:    make([]SnapshotColumn, 0, len(rec.Columns)),
		Tasks:      make([]SnapshotTask, 0, len(rec.Tasks)),
	}
	byID := make(map[string]domain.Task, len(rec.Tasks))
	for _, task := range rec.Tasks {
		byID[task.ID] = task
	}
	for position, column := range rec.Columns {
		snap.Columns = append(snap.Columns, SnapshotColumn{
			ID:       column.ID,
			Title:    column.Title,
			ColorTag: column.ColorTag,
			MaxTasks: column.MaxTasks,
			Position: position,
		})
		for taskPos, id := range column.TaskIDs {
			task, ok := byID[id]
			if !ok {
				continue
			}
			snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task, column.ID, taskPos))
		}
	}
	snap.sort()
	return snap
}

// WriteJSON encodes the snapshot as indented JSON.
func (s Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ReadSnapshot decodes and validates a JSON snapshot.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Validate validates the requested operation.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}
	if err := domain.ValidateColumnCount(len(s.Columns)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	columnIDs := map[string]struct{}{}
	for i, c := range s.Columns {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("%w: columns[%d].id is required", ErrInvalidSnapshot, i)
		}
		if strings.TrimSpace(c.Title) == "" {
			return fmt.Errorf("%w: columns[%d].title is required", ErrInvalidSnapshot, i)
		}
		if c.MaxTasks < 0 {
			return fmt.Errorf("%w: columns[%d].max_tasks must be >= 0", ErrInvalidSnapshot, i)
		}
		if _, exists := columnIDs[c.ID]; exists {
			return fmt.Errorf("%w: duplicate column id %q", ErrInvalidSnapshot, c.ID)
		}
		columnIDs[c.ID] = struct{}{}
	}

	taskIDs := map[string]struct{}{}
	for i, t := range s.Tasks {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("%w: tasks[%d].id is required", ErrInvalidSnapshot, i)
		}
		if _, exists := taskIDs[t.ID]; exists {
			return fmt.Errorf("%w: duplicate task id %q", ErrInvalidSnapshot, t.ID)
		}
		taskIDs[t.ID] = struct{}{}
		if _, ok := columnIDs[t.ColumnID]; !ok {
			return fmt.Errorf("%w: tasks[%d] references unknown column %q", ErrInvalidSnapshot, i, t.ColumnID)
		}
		if err := domain.ValidateDraft(domain.Task{Title: t.Title, Priority: t.Priority}); err != nil {
			return fmt.Errorf("%w: tasks[%d]: %w", ErrInvalidSnapshot, i, err)
		}
		if t.CreatedAt.IsZero() {
			return fmt.Errorf("%w: tasks[%d].created_at is required", ErrInvalidSnapshot, i)
		}
	}
	return nil
}

// State converts the snapshot into a board state.
func (s Snapshot) State() board.State {
	rec := s.toRecord()
	return board.NewState(rec.Columns, rec.Tasks)
}

func (s Snapshot) toRecord() BoardRecord {
	s.Columns = append([]SnapshotColumn(nil), s.Columns...)
	s.Tasks = append([]SnapshotTask(nil), s.Tasks...)
	s.sort()

	rec := BoardRecord{ID: s.Board.ID, Name: s.Board.Name}
	index := map[string]int{}
	for _, c := range s.Columns {
		index[c.ID] = len(rec.Columns)
		rec.Columns = append(rec.Columns, domain.Column{
			ID:       c.ID,
			Title:    strings.TrimSpace(c.Title),
			ColorTag: c.ColorTag,
			TaskIDs:  []string{},
			MaxTasks: c.MaxTasks,
		})
	}
	for _, t := range s.Tasks {
		idx, ok := index[t.ColumnID]
		if !ok {
			continue
		}
		rec.Columns[idx].TaskIDs = append(rec.Columns[idx].TaskIDs, t.ID)
		rec.Tasks = append(rec.Tasks, t.toDomain(rec.Columns[idx].Title))
	}
	return rec
}

func (s *Snapshot) sort() {
	sort.Slice(s.Columns, func(i, j int) bool {
		a := s.Columns[i]
		b := s.Columns[j]
		if a.Position == b.Position {
			return a.ID < b.ID
		}
		return a.Position < b.Position
	})
	sort.Slice(s.Tasks, func(i, j int) bool {
		a := s.Tasks[i]
		b := s.Tasks[j]
		if a.ColumnID == b.ColumnID {
			if a.Position == b.Position {
				return a.ID < b.ID
			}
			return a.Position < b.Position
		}
		return a.ColumnID < b.ColumnID
	})
}

func snapshotTaskFromDomain(t domain.Task, columnID string, position int) SnapshotTask {
	return SnapshotTask{
		ID:          t.ID,
		ColumnID:    columnID,
		Position:    position,
		Title:       t.Title,
		Status:      t.Status,
		Priority:    t.Priority,
		Tags:        append([]string{}, t.Tags...),
		Assignee:    t.Assignee,
		DueAt:       copyTimePtr(t.DueDate),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC(),
	}
}

// toDomain rebuilds a task; status always mirrors the owning column.
func (t SnapshotTask) toDomain(columnTitle string) domain.Task {
	return domain.Task{
		ID:          t.ID,
		Title:       strings.TrimSpace(t.Title),
		Status:      columnTitle,
		CreatedAt:   t.CreatedAt.UTC(),
		Priority:    t.Priority,
		Tags:        domain.NormalizeTags(t.Tags),
		Assignee:    strings.TrimSpace(t.Assignee),
		DueDate:     copyTimePtr(t.DueAt),
		Description: t.Description,
	}
}

func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	ts := in.UTC()
	return &ts
}
