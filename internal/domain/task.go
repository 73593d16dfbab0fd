package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists the settable priorities from least to most pressing.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority accepts any casing and surrounding space; blank means no priority.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if p == PriorityNone || slices.Contains(Priorities, p) {
		return p, nil
	}
	return PriorityNone, ErrInvalidPriority
}

// Valid reports whether p is blank or one of Priorities.
func (p Priority) Valid() bool {
	return p == PriorityNone || slices.Contains(Priorities, p)
}

// Rank orders priorities; unset sorts lowest.
func (p Priority) Rank() int {
	return slices.Index(Priorities, p) + 1
}

type Task struct {
	ID          string
	Title       string
	Status      string
	CreatedAt   time.Time
	Priority    Priority
	Tags        []string
	Assignee    string
	DueDate     *time.Time
	Description string
}

// TaskPatch carries the fields an edit changes. Nil fields are left alone.
type TaskPatch struct {
	Title        *string
	Status       *string
	Priority     *Priority
	Tags         *[]string
	Assignee     *string
	DueDate      *time.Time
	ClearDueDate bool
	Description  *string
}

// IsZero reports whether the patch changes nothing.
func (p TaskPatch) IsZero() bool {
	return p.Title == nil && p.Status == nil && p.Priority == nil && p.Tags == nil &&
		p.Assignee == nil && p.DueDate == nil && !p.ClearDueDate && p.Description == nil
}

// ValidateDraft checks the fields a host form supplies for a new or edited task.
func ValidateDraft(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrInvalidTitle
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// Validate checks p against the same rules as ValidateDraft.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrInvalidTitle
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// Clone returns a copy that shares no slice or pointer storage with t.
func (t Task) Clone() Task {
	if t.Tags != nil {
		t.Tags = slices.Clone(t.Tags)
	}
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

// Apply shallow-merges p into a copy of t.
func (t Task) Apply(p TaskPatch) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Tags != nil {
		out.Tags = NormalizeTags(*p.Tags)
	}
	if p.Assignee != nil {
		out.Assignee = strings.TrimSpace(*p.Assignee)
	}
	if p.ClearDueDate {
		out.DueDate = nil
	} else if p.DueDate != nil {
		out.DueDate = normalizeDueDate(p.DueDate)
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	return out
}

// Normalized trims text fields and canonicalizes tags and due date.
func (t Task) Normalized() Task {
	out := t.Clone()
	out.Title = strings.TrimSpace(out.Title)
	out.Assignee = strings.TrimSpace(out.Assignee)
	out.Description = strings.TrimSpace(out.Description)
	out.Tags = NormalizeTags(out.Tags)
	out.DueDate = normalizeDueDate(out.DueDate)
	return out
}

// HasTag reports whether the task carries tag, ignoring case.
func (t Task) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	return slices.Contains(t.Tags, tag)
}

// IsOverdue reports whether the due date is strictly before now.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now)
}

// NormalizeTags lowercases, trims, dedupes, and sorts tags.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	ts := due.UTC().Truncate(time.Second)
	return &ts
}
