package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Boards render between MinColumns and MaxColumns lanes inclusive.
const (
	MinColumns = 3
	MaxColumns = 6
)

// Column is one ordered lane of the board.
type Column struct {
	ID       string
	Title    string
	ColorTag string
	TaskIDs  []string
	// MaxTasks is the WIP limit; zero means unlimited.
	MaxTasks int
}

// NewColumn constructs a column with an empty task list.
func NewColumn(id, title, colorTag string, maxTasks int) (Column, error) {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return Column{}, ErrInvalidID
	}
	if title == "" {
		return Column{}, ErrInvalidTitle
	}
	if maxTasks < 0 {
		return Column{}, ErrInvalidLimit
	}
	return Column{
		ID:       id,
		Title:    title,
		ColorTag: strings.TrimSpace(colorTag),
		TaskIDs:  []string{},
		MaxTasks: maxTasks,
	}, nil
}

// ValidateColumnCount reports a configuration error when a board would hold
// fewer than MinColumns or more than MaxColumns lanes.
func ValidateColumnCount(n int) error {
	if n < MinColumns || n > MaxColumns {
		return fmt.Errorf("%w: got %d, want between %d and %d", ErrInvalidColumnCount, n, MinColumns, MaxColumns)
	}
	return nil
}

// Clone returns a copy that shares no task id storage with c.
func (c Column) Clone() Column {
	c.TaskIDs = slices.Clone(c.TaskIDs)
	if c.TaskIDs == nil {
		c.TaskIDs = []string{}
	}
	return c
}

// IndexOf returns the position of taskID in the column, or -1.
func (c Column) IndexOf(taskID string) int {
	return slices.Index(c.TaskIDs, taskID)
}

// Len returns the number of tasks in the column.
func (c Column) Len() int {
	return len(c.TaskIDs)
}

// OverLimit reports whether the column holds more tasks than its WIP limit.
func (c Column) OverLimit() bool {
	return c.MaxTasks > 0 && len(c.TaskIDs) > c.MaxTasks
}

// Rename changes the column title.
func (c *Column) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	c.Title = title
	return nil
}

// SetMaxTasks changes the WIP limit. Zero clears it.
func (c *Column) SetMaxTasks(n int) error {
	if n < 0 {
		return ErrInvalidLimit
	}
	c.MaxTasks = n
	return nil
}
