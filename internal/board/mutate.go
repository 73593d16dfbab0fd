package board

import (
	"maps"
	"slices"
	"strings"

	"github.com/evanschultz/lanes/internal/domain"
)

// CopySuffix is appended to the title of a duplicated task.
const CopySuffix = " (Copy)"

// ClampIndex bounds an insertion index to [0, length].
func ClampIndex(index, length int) int {
	if length < 0 {
		length = 0
	}
	if index < 0 {
		return 0
	}
	if index > length {
		return length
	}
	return index
}

// Move removes taskID from fromColumnID and inserts it at newIndex in
// toColumnID. When both ids name the same column the index applies to the
// list after removal. A cross-column move sets the task status to the
// destination title. Unknown columns, or a task the source column does not
// hold, leave the state unchanged.
func Move(s State, taskID, fromColumnID, toColumnID string, newIndex int) State {
	fromIdx := s.ColumnIndex(fromColumnID)
	toIdx := s.ColumnIndex(toColumnID)
	if fromIdx < 0 || toIdx < 0 {
		return s
	}
	pos := s.Columns[fromIdx].IndexOf(taskID)
	if pos < 0 {
		return s
	}

	out := State{Columns: slices.Clone(s.Columns), Tasks: s.Tasks}
	remaining := slices.Delete(slices.Clone(s.Columns[fromIdx].TaskIDs), pos, pos+1)
	if fromIdx == toIdx {
		at := ClampIndex(newIndex, len(remaining))
		out.Columns[fromIdx].TaskIDs = slices.Insert(remaining, at, taskID)
		return out
	}

	dest := slices.Clone(s.Columns[toIdx].TaskIDs)
	at := ClampIndex(newIndex, len(dest))
	out.Columns[fromIdx].TaskIDs = remaining
	out.Columns[toIdx].TaskIDs = slices.Insert(dest, at, taskID)

	if task, ok := s.Tasks[taskID]; ok {
		out.Tasks = maps.Clone(s.Tasks)
		task = task.Clone()
		task.Status = out.Columns[toIdx].Title
		out.Tasks[taskID] = task
	}
	return out
}

// Remove strips taskID from columnID and deletes its body. It is a no-op
// unless the column holds the task.
func Remove(s State, taskID, columnID string) State {
	colIdx := s.ColumnIndex(columnID)
	if colIdx < 0 {
		return s
	}
	pos := s.Columns[colIdx].IndexOf(taskID)
	if pos < 0 {
		return s
	}
	out := State{Columns: slices.Clone(s.Columns), Tasks: maps.Clone(s.Tasks)}
	out.Columns[colIdx].TaskIDs = slices.Delete(slices.Clone(s.Columns[colIdx].TaskIDs), pos, pos+1)
	delete(out.Tasks, taskID)
	return out
}

// InsertNew appends a task built from draft to columnID with a fresh id,
// creation time, and a status equal to the column title. It returns false
// and the unchanged state when the column is unknown or the generators
// produce an empty id, a colliding id, or a zero time.
func InsertNew(s State, draft domain.Task, columnID string, idGen IDGenerator, clock Clock) (State, domain.Task, bool) {
	colIdx := s.ColumnIndex(columnID)
	if colIdx < 0 || idGen == nil || clock == nil {
		return s, domain.Task{}, false
	}
	id := strings.TrimSpace(idGen())
	if id == "" {
		return s, domain.Task{}, false
	}
	if _, taken := s.Tasks[id]; taken {
		return s, domain.Task{}, false
	}
	createdAt := clock()
	if createdAt.IsZero() {
		return s, domain.Task{}, false
	}

	task := draft.Normalized()
	task.ID = id
	task.CreatedAt = createdAt.UTC()
	task.Status = s.Columns[colIdx].Title

	out := State{Columns: slices.Clone(s.Columns), Tasks: maps.Clone(s.Tasks)}
	if out.Tasks == nil {
		out.Tasks = map[string]domain.Task{}
	}
	out.Columns[colIdx].TaskIDs = append(slices.Clone(s.Columns[colIdx].TaskIDs), id)
	out.Tasks[id] = task
	return out, task.Clone(), true
}

// Duplicate inserts a copy of taskID into columnID. The copy gets a new id,
// a new creation time, and CopySuffix on its title; every other field is
// carried over.
func Duplicate(s State, taskID, columnID string, idGen IDGenerator, clock Clock) (State, domain.Task, bool) {
	source, ok := s.Tasks[taskID]
	if !ok {
		return s, domain.Task{}, false
	}
	draft := source.Clone()
	draft.Title = source.Title + CopySuffix
	return InsertNew(s, draft, columnID, idGen, clock)
}

// Update shallow-merges patch into taskID. Column membership is never
// touched, even when the patch sets Status.
func Update(s State, taskID string, patch domain.TaskPatch) State {
	task, ok := s.Tasks[taskID]
	if !ok {
		return s
	}
	out := State{Columns: s.Columns, Tasks: maps.Clone(s.Tasks)}
	out.Tasks[taskID] = task.Apply(patch)
	return out
}

// RenameColumn retitles a column and re-derives the status of every task it
// holds. Blank titles and unknown columns are no-ops.
func RenameColumn(s State, columnID, title string) (State, bool) {
	colIdx := s.ColumnIndex(columnID)
	if colIdx < 0 {
		return s, false
	}
	column := s.Columns[colIdx]
	if err := column.Rename(title); err != nil {
		return s, false
	}
	out := State{Columns: slices.Clone(s.Columns), Tasks: maps.Clone(s.Tasks)}
	out.Columns[colIdx] = column
	for _, id := range column.TaskIDs {
		task, ok := out.Tasks[id]
		if !ok {
			continue
		}
		task.Status = column.Title
		out.Tasks[id] = task
	}
	return out, true
}

// SetColumnLimit changes a column's WIP limit. Negative limits and unknown
// columns are no-ops.
func SetColumnLimit(s State, columnID string, limit int) (State, bool) {
	colIdx := s.ColumnIndex(columnID)
	if colIdx < 0 {
		return s, false
	}
	column := s.Columns[colIdx]
	if err := column.SetMaxTasks(limit); err != nil {
		return s, false
	}
	out := State{Columns: slices.Clone(s.Columns), Tasks: s.Tasks}
	out.Columns[colIdx] = column
	return out, true
}
