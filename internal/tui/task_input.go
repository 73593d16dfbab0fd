package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/evanschultz/lanes/internal/board"
	"github.com/evanschultz/lanes/internal/domain"
)

// Single-line task syntax used by the new/edit prompts:
//
//	Fix login !high #auth #bug @ada_lovelace due:2026-03-01 -- optional description
//
// Underscores in an assignee stand for spaces.
const descriptionSeparator = " -- "

// parseTaskInput reads a task draft from the single-line syntax.
func parseTaskInput(raw string, now time.Time) (domain.Task, error) {
	var task domain.Task
	head, desc, _ := strings.Cut(raw, descriptionSeparator)
	task.Description = strings.TrimSpace(desc)

	title := make([]string, 0, 4)
	for _, tok := range strings.Fields(head) {
		switch {
		case len(tok) > 1 && tok[0] == '!':
			p, err := domain.ParsePriority(tok[1:])
			if err != nil {
				return domain.Task{}, fmt.Errorf("%w: %q", err, tok[1:])
			}
			task.Priority = p
		case len(tok) > 1 && tok[0] == '#':
			task.Tags = append(task.Tags, tok[1:])
		case len(tok) > 1 && tok[0] == '@':
			task.Assignee = strings.ReplaceAll(tok[1:], "_", " ")
		case strings.HasPrefix(tok, "due:"):
			due, err := parseDue(strings.TrimPrefix(tok, "due:"), now)
			if err != nil {
				return domain.Task{}, err
			}
			task.DueDate = due
		default:
			title = append(title, tok)
		}
	}
	task.Title = strings.Join(title, " ")
	task.Tags = domain.NormalizeTags(task.Tags)
	if err := domain.ValidateDraft(task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// parseDue accepts YYYY-MM-DD, today, tomorrow, or +Nd. Blank clears.
func parseDue(raw string, now time.Time) (*time.Time, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	day := func(t time.Time) *time.Time {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	switch {
	case raw == "":
		return nil, nil
	case raw == "today":
		return day(now), nil
	case raw == "tomorrow":
		return day(now.AddDate(0, 0, 1)), nil
	case strings.HasPrefix(raw, "+") && strings.HasSuffix(raw, "d"):
		n, err := strconv.Atoi(raw[1 : len(raw)-1])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid due offset %q", raw)
		}
		return day(now.AddDate(0, 0, n)), nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: use YYYY-MM-DD", raw)
	}
	return &parsed, nil
}

// formatTaskInput renders task in the syntax parseTaskInput reads.
func formatTaskInput(task domain.Task) string {
	parts := []string{task.Title}
	if task.Priority != domain.PriorityNone {
		parts = append(parts, "!"+string(task.Priority))
	}
	for _, tag := range task.Tags {
		parts = append(parts, "#"+tag)
	}
	if task.Assignee != "" {
		parts = append(parts, "@"+strings.ReplaceAll(task.Assignee, " ", "_"))
	}
	if task.DueDate != nil {
		parts = append(parts, "due:"+task.DueDate.Format("2006-01-02"))
	}
	out := strings.Join(parts, " ")
	if desc := flattenLine(task.Description); desc != "" {
		out += descriptionSeparator + desc
	}
	return out
}

// editPatch diffs an edited draft against the stored task. Descriptions
// that only differ by the newline flattening of the prompt are kept.
func editPatch(current, edited domain.Task) domain.TaskPatch {
	var patch domain.TaskPatch
	if edited.Title != current.Title {
		patch.Title = &edited.Title
	}
	if edited.Priority != current.Priority {
		patch.Priority = &edited.Priority
	}
	if !slices.Equal(edited.Tags, domain.NormalizeTags(current.Tags)) {
		tags := edited.Tags
		patch.Tags = &tags
	}
	if edited.Assignee != current.Assignee {
		patch.Assignee = &edited.Assignee
	}
	switch {
	case edited.DueDate == nil && current.DueDate != nil:
		patch.ClearDueDate = true
	case edited.DueDate != nil && (current.DueDate == nil || !sameDay(*edited.DueDate, *current.DueDate)):
		patch.DueDate = edited.DueDate
	}
	if edited.Description != flattenLine(current.Description) {
		patch.Description = &edited.Description
	}
	return patch
}

// parseFilterInput reads "#tag @assignee !priority words" into a filter.
// Unknown priorities are kept as query text.
func parseFilterInput(raw string) board.Filter {
	var f board.Filter
	query := make([]string, 0, 2)
	for _, tok := range strings.Fields(raw) {
		switch {
		case len(tok) > 1 && tok[0] == '#':
			f.Tags = append(f.Tags, strings.ToLower(tok[1:]))
		case len(tok) > 1 && tok[0] == '@':
			f.Assignee = strings.ReplaceAll(tok[1:], "_", " ")
		case len(tok) > 1 && tok[0] == '!':
			p, err := domain.ParsePriority(tok[1:])
			if err != nil || p == domain.PriorityNone {
				query = append(query, tok)
				continue
			}
			f.Priorities = append(f.Priorities, p)
		default:
			query = append(query, tok)
		}
	}
	f.Query = strings.Join(query, " ")
	return f
}

// formatFilterInput renders f in the syntax parseFilterInput reads.
func formatFilterInput(f board.Filter) string {
	parts := make([]string, 0, 4)
	if f.Query != "" {
		parts = append(parts, f.Query)
	}
	for _, tag := range f.Tags {
		parts = append(parts, "#"+tag)
	}
	if f.Assignee != "" {
		parts = append(parts, "@"+strings.ReplaceAll(f.Assignee, " ", "_"))
	}
	for _, p := range f.Priorities {
		parts = append(parts, "!"+string(p))
	}
	return strings.Join(parts, " ")
}

func flattenLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
