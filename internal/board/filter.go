package board

import (
	"slices"
	"strings"

	"github.com/evanschultz/lanes/internal/domain"
)

// Filter narrows which tasks are visible. Empty fields match everything.
type Filter struct {
	Assignee   string
	Tags       []string
	Priorities []domain.Priority
	Query      string
}

// IsZero reports whether the filter hides nothing.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Assignee) == "" && len(f.Tags) == 0 &&
		len(f.Priorities) == 0 && strings.TrimSpace(f.Query) == ""
}

// Matches reports whether task passes every set criterion. Tags match when
// the task carries any of them; Query is a case-insensitive substring of the
// title, description, assignee, or a tag.
func (f Filter) Matches(task domain.Task) bool {
	if assignee := strings.TrimSpace(f.Assignee); assignee != "" &&
		!strings.EqualFold(assignee, task.Assignee) {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, task.HasTag) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, task.Priority) {
		return false
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	fields := append([]string{task.Title, task.Description, task.Assignee}, task.Tags...)
	return slices.ContainsFunc(fields, func(field string) bool {
		return strings.Contains(strings.ToLower(field), query)
	})
}

// ApplyFilter returns a view of s where every column lists only matching
// tasks. Column order and identity are preserved; hidden task bodies are
// dropped from the lookup.
func ApplyFilter(s State, f Filter) State {
	if f.IsZero() {
		return s
	}
	out := State{
		Columns: make([]domain.Column, len(s.Columns)),
		Tasks:   make(map[string]domain.Task, len(s.Tasks)),
	}
	for idx, column := range s.Columns {
		visible := column.Clone()
		visible.TaskIDs = visible.TaskIDs[:0]
		for _, id := range column.TaskIDs {
			task, ok := s.Tasks[id]
			if !ok || !f.Matches(task) {
				continue
			}
			visible.TaskIDs = append(visible.TaskIDs, id)
			out.Tasks[id] = task
		}
		out.Columns[idx] = visible
	}
	return out
}

// VisibleToFullIndex maps an insertion index computed against the visible
// ids of a column onto its full id list. Both lists must already exclude the
// dragged task when the move stays in one column. Inserting before a visible
// task lands directly before it; inserting past the last visible task lands
// directly after it.
func VisibleToFullIndex(full, visible []string, index int) int {
	index = ClampIndex(index, len(visible))
	if index < len(visible) {
		if pos := slices.Index(full, visible[index]); pos >= 0 {
			return pos
		}
		return len(full)
	}
	if len(visible) == 0 {
		return len(full)
	}
	if pos := slices.Index(full, visible[len(visible)-1]); pos >= 0 {
		return pos + 1
	}
	return len(full)
}
