package tui

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/evanschultz/lanes/internal/board"
	"github.com/evanschultz/lanes/internal/domain"
)

func TestParseTaskInput(t *testing.T) {
	now := time.Date(2026, 2, 22, 18, 30, 0, 0, time.UTC)
	task, err := parseTaskInput("Fix login !HIGH #Auth #bug #auth @ada_lovelace due:+3d --  retry   on 401", now)
	if err != nil {
		t.Fatalf("parseTaskInput() error = %v", err)
	}
	if task.Title != "Fix login" || task.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected title/priority %#v", task)
	}
	if !slices.Equal(task.Tags, []string{"auth", "bug"}) {
		t.Fatalf("unexpected tags %v", task.Tags)
	}
	if task.Assignee != "ada lovelace" {
		t.Fatalf("unexpected assignee %q", task.Assignee)
	}
	if task.DueDate == nil || task.DueDate.Format("2006-01-02") != "2026-02-25" {
		t.Fatalf("unexpected due date %v", task.DueDate)
	}
	if task.Description != "retry   on 401" {
		t.Fatalf("unexpected description %q", task.Description)
	}
}

func TestParseTaskInputErrors(t *testing.T) {
	now := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "missing title", input: "#tag !low", want: domain.ErrInvalidTitle},
		{name: "bad priority", input: "Ship !someday", want: domain.ErrInvalidPriority},
		{name: "bad date", input: "Ship due:03/01/2026"},
		{name: "bad offset", input: "Ship due:+xd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTaskInput(tt.input, now)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseDue(t *testing.T) {
	now := time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"today":      "2026-12-31",
		"Tomorrow":   "2027-01-01",
		"+0d":        "2026-12-31",
		"2027-03-04": "2027-03-04",
	}
	for raw, want := range tests {
		got, err := parseDue(raw, now)
		if err != nil {
			t.Fatalf("parseDue(%q) error = %v", raw, err)
		}
		if got.Format("2006-01-02") != want {
			t.Fatalf("parseDue(%q) = %s, want %s", raw, got.Format("2006-01-02"), want)
		}
	}
	if got, err := parseDue("  ", now); err != nil || got != nil {
		t.Fatalf("expected blank to clear, got %v, %v", got, err)
	}
}

func TestFormatTaskInputRoundTrip(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task := domain.Task{
		Title:       "Fix login",
		Priority:    domain.PriorityUrgent,
		Tags:        []string{"auth", "bug"},
		Assignee:    "Ada Lovelace",
		DueDate:     &due,
		Description: "line one\nline two",
	}
	raw := formatTaskInput(task)
	want := "Fix login !urgent #auth #bug @Ada_Lovelace due:2026-03-01 -- line one line two"
	if raw != want {
		t.Fatalf("formatTaskInput() = %q, want %q", raw, want)
	}

	parsed, err := parseTaskInput(raw, due)
	if err != nil {
		t.Fatalf("parseTaskInput() error = %v", err)
	}
	if patch := editPatch(task, parsed); !patch.IsZero() {
		t.Fatalf("expected unchanged round trip to produce empty patch, got %#v", patch)
	}
}

func TestEditPatch(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	current := domain.Task{Title: "Old", Priority: domain.PriorityLow, Tags: []string{"a"}, DueDate: &due}
	edited := domain.Task{Title: "New", Priority: domain.PriorityLow, Tags: []string{"a"}}

	patch := editPatch(current, edited)
	if patch.Title == nil || *patch.Title != "New" {
		t.Fatalf("expected title change, got %#v", patch.Title)
	}
	if patch.Priority != nil || patch.Tags != nil || patch.Assignee != nil {
		t.Fatalf("expected untouched fields left nil, got %#v", patch)
	}
	if !patch.ClearDueDate || patch.DueDate != nil {
		t.Fatalf("expected due date cleared, got %#v", patch)
	}
}

func TestParseFilterInput(t *testing.T) {
	f := parseFilterInput("login #Bug @ada_lovelace !high !soon")
	want := board.Filter{
		Query:      "login !soon",
		Tags:       []string{"bug"},
		Assignee:   "ada lovelace",
		Priorities: []domain.Priority{domain.PriorityHigh},
	}
	if f.Query != want.Query || f.Assignee != want.Assignee ||
		!slices.Equal(f.Tags, want.Tags) || !slices.Equal(f.Priorities, want.Priorities) {
		t.Fatalf("parseFilterInput() = %#v, want %#v", f, want)
	}
	if got := formatFilterInput(f); got != "login !soon #bug @ada_lovelace !high" {
		t.Fatalf("formatFilterInput() = %q", got)
	}
	if !parseFilterInput("   ").IsZero() {
		t.Fatal("expected blank filter to be zero")
	}
}
