package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/evanschultz/lanes/internal/board"
	"github.com/evanschultz/lanes/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	BoardID        string
	BoardName      string
	DefaultColumns []domain.Column
}

// Service loads boards from a Store and keeps the Store in step with every
// committed board operation.
type Service struct {
	store  Store
	clock  Clock
	logger Logger
	cfg    ServiceConfig
}

// Clock returns the current time.
type Clock func() time.Time

// NewService constructs a new value for this package.
func NewService(store Store, clock Clock, logger Logger, cfg ServiceConfig) *Service {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	cfg.BoardID = strings.TrimSpace(cfg.BoardID)
	if cfg.BoardID == "" {
		cfg.BoardID = "default"
	}
	cfg.BoardName = strings.TrimSpace(cfg.BoardName)
	if cfg.BoardName == "" {
		cfg.BoardName = "Board"
	}
	return &Service{store: store, clock: clock, logger: logger, cfg: cfg}
}

// BoardID returns the id of the board this service manages.
func (s *Service) BoardID() string {
	return s.cfg.BoardID
}

// OpenBoard loads the stored board, seeding it from the default columns on
// first run, and attaches persistence hooks. Extra options are applied after
// the service's own.
func (s *Service) OpenBoard(ctx context.Context, opts ...Option) (*Board, error) {
	rec, err := s.store.LoadBoard(ctx, s.cfg.BoardID)
	switch {
	case errors.Is(err, ErrNotFound):
		rec = BoardRecord{
			ID:      s.cfg.BoardID,
			Name:    s.cfg.BoardName,
			Columns: cloneColumns(s.cfg.DefaultColumns),
		}
		if err := domain.ValidateColumnCount(len(rec.Columns)); err != nil {
			return nil, err
		}
		rec.UpdatedAt = s.clock().UTC()
		if err := s.store.SaveBoard(ctx, rec); err != nil {
			return nil, fmt.Errorf("seed board %q: %w", rec.ID, err)
		}
		s.logger.Info("board seeded", "board_id", rec.ID, "columns", len(rec.Columns))
	case err != nil:
		return nil, fmt.Errorf("load board %q: %w", s.cfg.BoardID, err)
	}

	all := append([]Option{WithClock(board.Clock(s.clock)), WithLogger(s.logger)}, opts...)
	b, err := NewBoard(rec.Columns, rec.Tasks, all...)
	if err != nil {
		return nil, err
	}
	b.AddHooks(s.PersistenceHooks(ctx, b, rec.Name))
	return b, nil
}

// PersistenceHooks saves the board and appends a change event after every
// commit. Duplicates are saved whether or not the board reports them through
// OnTaskCreate. Store failures are logged; the in-memory commit stands.
func (s *Service) PersistenceHooks(ctx context.Context, b *Board, name string) Hooks {
	duplicated := map[string]struct{}{}
	persist := func(taskID string, op domain.ChangeOperation, metadata map[string]string) {
		if err := s.SaveState(ctx, name, b.State()); err != nil {
			s.logger.Error("persist board failed", "board_id", s.cfg.BoardID, "operation", op, "err", err)
			return
		}
		event := domain.ChangeEvent{
			BoardID:    s.cfg.BoardID,
			TaskID:     taskID,
			Operation:  op,
			Metadata:   metadata,
			OccurredAt: s.clock().UTC(),
		}
		if err := s.store.AppendChangeEvent(ctx, event); err != nil {
			s.logger.Error("append change event failed", "board_id", s.cfg.BoardID, "operation", op, "err", err)
		}
	}
	return Hooks{
		OnTaskMove: func(taskID, from, to string, newIndex int) {
			persist(taskID, domain.ChangeOperationMove, map[string]string{
				"from":  from,
				"to":    to,
				"index": strconv.Itoa(newIndex),
			})
		},
		OnTaskCreate: func(columnID string, task domain.Task) {
			if _, ok := duplicated[task.ID]; ok {
				delete(duplicated, task.ID)
				return
			}
			persist(task.ID, domain.ChangeOperationCreate, map[string]string{
				"column_id": columnID,
				"title":     task.Title,
			})
		},
		OnTaskDuplicate: func(columnID, sourceTaskID string, task domain.Task) {
			if b.notifyDuplicate {
				duplicated[task.ID] = struct{}{}
			}
			persist(task.ID, domain.ChangeOperationDuplicate, map[string]string{
				"column_id": columnID,
				"source_id": sourceTaskID,
				"title":     task.Title,
			})
		},
		OnTaskUpdate: func(taskID string, patch domain.TaskPatch) {
			persist(taskID, domain.ChangeOperationUpdate, patchMetadata(patch))
		},
		OnTaskDelete: func(taskID string) {
			persist(taskID, domain.ChangeOperationDelete, nil)
		},
		OnColumnUpdate: func(column domain.Column) {
			persist("", domain.ChangeOperationUpdate, map[string]string{
				"column_id": column.ID,
				"title":     column.Title,
				"max_tasks": strconv.Itoa(column.MaxTasks),
			})
		},
	}
}

// SaveState writes a committed state under this service's board id.
func (s *Service) SaveState(ctx context.Context, name string, state board.State) error {
	rec := BoardRecord{
		ID:        s.cfg.BoardID,
		Name:      name,
		Columns:   state.Columns,
		UpdatedAt: s.clock().UTC(),
	}
	for _, column := range state.Columns {
		for _, id := range column.TaskIDs {
			if task, ok := state.Tasks[id]; ok {
				rec.Tasks = append(rec.Tasks, task)
			}
		}
	}
	return s.store.SaveBoard(ctx, rec)
}

// ListChangeEvents returns the most recent change events, newest first.
func (s *Service) ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListChangeEvents(ctx, s.cfg.BoardID, limit)
}

// SeedDemo replaces the stored board with the default columns and a few
// sample tasks.
func (s *Service) SeedDemo(ctx context.Context) (BoardRecord, error) {
	columns := cloneColumns(s.cfg.DefaultColumns)
	if err := domain.ValidateColumnCount(len(columns)); err != nil {
		return BoardRecord{}, err
	}
	for idx := range columns {
		columns[idx].TaskIDs = []string{}
	}
	now := s.clock().UTC().Truncate(time.Second)
	due := now.AddDate(0, 0, 3)
	samples := [][]domain.Task{
		{
			{Title: "Sketch the column layout", Priority: domain.PriorityMedium, Tags: []string{"design"}, Assignee: "Ada Lovelace"},
			{Title: "Write the release notes", Priority: domain.PriorityLow, Tags: []string{"docs"}, DueDate: &due, Description: "Cover the **keyboard** and mouse flows."},
		},
		{
			{Title: "Wire the sqlite store", Priority: domain.PriorityHigh, Tags: []string{"backend"}, Assignee: "Grace Hopper"},
		},
		{
			{Title: "Pick a name", Priority: domain.PriorityUrgent, Tags: []string{"planning"}},
		},
	}

	rec := BoardRecord{ID: s.cfg.BoardID, Name: s.cfg.BoardName, UpdatedAt: now}
	for idx, batch := range samples {
		if idx >= len(columns) {
			break
		}
		for _, draft := range batch {
			task := draft.Normalized()
			task.ID = uuid.NewString()
			task.CreatedAt = now
			task.Status = columns[idx].Title
			columns[idx].TaskIDs = append(columns[idx].TaskIDs, task.ID)
			rec.Tasks = append(rec.Tasks, task)
		}
	}
	rec.Columns = columns
	if err := s.store.SaveBoard(ctx, rec); err != nil {
		return BoardRecord{}, fmt.Errorf("seed demo board: %w", err)
	}
	return rec, nil
}

func patchMetadata(patch domain.TaskPatch) map[string]string {
	fields := make([]string, 0, 8)
	if patch.Title != nil {
		fields = append(fields, "title")
	}
	if patch.Status != nil {
		fields = append(fields, "status")
	}
	if patch.Priority != nil {
		fields = append(fields, "priority")
	}
	if patch.Tags != nil {
		fields = append(fields, "tags")
	}
	if patch.Assignee != nil {
		fields = append(fields, "assignee")
	}
	if patch.DueDate != nil || patch.ClearDueDate {
		fields = append(fields, "due_date")
	}
	if patch.Description != nil {
		fields = append(fields, "description")
	}
	return map[string]string{"fields": strings.Join(fields, ",")}
}

func cloneColumns(in []domain.Column) []domain.Column {
	out := make([]domain.Column, 0, len(in))
	for _, column := range in {
		out = append(out, column.Clone())
	}
	return out
}
