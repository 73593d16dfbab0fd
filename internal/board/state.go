// Package board holds the pure ordered-collection logic behind a kanban
// board: every operation takes a State snapshot and returns the next one
// without mutating its input.
package board

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/evanschultz/lanes/internal/domain"
)

// Integrity errors reported by CheckIntegrity.
var (
	ErrDuplicateColumn  = errors.New("duplicate column id")
	ErrDuplicateTaskRef = errors.New("task referenced more than once")
	ErrDanglingTaskRef  = errors.New("column references unknown task")
	ErrOrphanTask       = errors.New("task not referenced by any column")
)

// IDGenerator returns unique identifiers for new tasks.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// State is one committed snapshot of the board: ordered columns plus the
// task lookup they reference.
type State struct {
	Columns []domain.Column
	Tasks   map[string]domain.Task
}

// NewState builds a State from columns and a task slice.
func NewState(columns []domain.Column, tasks []domain.Task) State {
	byID := make(map[string]domain.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}
	return State{Columns: columns, Tasks: byID}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := State{
		Columns: make([]domain.Column, len(s.Columns)),
		Tasks:   make(map[string]domain.Task, len(s.Tasks)),
	}
	for idx, column := range s.Columns {
		out.Columns[idx] = column.Clone()
	}
	for id, task := range s.Tasks {
		out.Tasks[id] = task.Clone()
	}
	return out
}

// ColumnIndex returns the board-order position of columnID, or -1.
func (s State) ColumnIndex(columnID string) int {
	return slices.IndexFunc(s.Columns, func(c domain.Column) bool {
		return c.ID == columnID
	})
}

// Column looks up a column by id.
func (s State) Column(columnID string) (domain.Column, bool) {
	idx := s.ColumnIndex(columnID)
	if idx < 0 {
		return domain.Column{}, false
	}
	return s.Columns[idx], true
}

// ColumnOf returns the id of the column holding taskID.
func (s State) ColumnOf(taskID string) (string, bool) {
	for _, column := range s.Columns {
		if column.IndexOf(taskID) >= 0 {
			return column.ID, true
		}
	}
	return "", false
}

// ColumnTasks resolves a column's ordered ids into task bodies, skipping
// ids with no body.
func (s State) ColumnTasks(columnID string) []domain.Task {
	column, ok := s.Column(columnID)
	if !ok {
		return nil
	}
	out := make([]domain.Task, 0, len(column.TaskIDs))
	for _, id := range column.TaskIDs {
		if task, ok := s.Tasks[id]; ok {
			out = append(out, task)
		}
	}
	return out
}

// TaskCount returns the number of referenced task ids across all columns.
func (s State) TaskCount() int {
	n := 0
	for _, column := range s.Columns {
		n += column.Len()
	}
	return n
}

// CheckIntegrity verifies uniqueness (each id in exactly one column) and
// closure (column ids and task keys are the same set).
func (s State) CheckIntegrity() error {
	var errs []error
	seenColumns := map[string]struct{}{}
	seenTasks := map[string]string{}
	for _, column := range s.Columns {
		if _, ok := seenColumns[column.ID]; ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateColumn, column.ID))
		}
		seenColumns[column.ID] = struct{}{}
		for _, id := range column.TaskIDs {
			if prev, ok := seenTasks[id]; ok {
				errs = append(errs, fmt.Errorf("%w: %s in %s and %s", ErrDuplicateTaskRef, id, prev, column.ID))
				continue
			}
			seenTasks[id] = column.ID
			if _, ok := s.Tasks[id]; !ok {
				errs = append(errs, fmt.Errorf("%w: %s in %s", ErrDanglingTaskRef, id, column.ID))
			}
		}
	}
	for _, id := range slices.Sorted(maps.Keys(s.Tasks)) {
		if _, ok := seenTasks[id]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrOrphanTask, id))
		}
	}
	return errors.Join(errs...)
}

// NormalizeReport lists what Normalize dropped.
type NormalizeReport struct {
	DuplicateRefs []string
	DanglingRefs  []string
	OrphanTasks   []string
}

// Empty reports whether Normalize changed nothing.
func (r NormalizeReport) Empty() bool {
	return len(r.DuplicateRefs) == 0 && len(r.DanglingRefs) == 0 && len(r.OrphanTasks) == 0
}

// Normalize repairs a seeded state so it satisfies CheckIntegrity: later
// duplicate references are dropped, references without a task body are
// dropped, and task bodies no column references are removed.
func Normalize(s State) (State, NormalizeReport) {
	out := s.Clone()
	var report NormalizeReport
	seen := map[string]struct{}{}
	for idx := range out.Columns {
		kept := make([]string, 0, len(out.Columns[idx].TaskIDs))
		for _, id := range out.Columns[idx].TaskIDs {
			if _, dup := seen[id]; dup {
				report.DuplicateRefs = append(report.DuplicateRefs, id)
				continue
			}
			if _, ok := out.Tasks[id]; !ok {
				report.DanglingRefs = append(report.DanglingRefs, id)
				continue
			}
			seen[id] = struct{}{}
			kept = append(kept, id)
		}
		out.Columns[idx].TaskIDs = kept
	}
	for _, id := range slices.Sorted(maps.Keys(out.Tasks)) {
		if _, ok := seen[id]; !ok {
			report.OrphanTasks = append(report.OrphanTasks, id)
			delete(out.Tasks, id)
		}
	}
	return out, report
}
