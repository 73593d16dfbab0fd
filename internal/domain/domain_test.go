package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewColumnValidation(t *testing.T) {
	if _, err := NewColumn("", "To Do", "", 0); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewColumn("c1", "   ", "", 0); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := NewColumn("c1", "To Do", "", -1); err != ErrInvalidLimit {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	c, err := NewColumn(" c1 ", " To Do ", " blue ", 3)
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	if c.ID != "c1" || c.Title != "To Do" || c.ColorTag != "blue" || c.MaxTasks != 3 {
		t.Fatalf("unexpected column %#v", c)
	}
	if c.TaskIDs == nil || c.Len() != 0 {
		t.Fatalf("expected empty non-nil task ids, got %#v", c.TaskIDs)
	}
}

func TestValidateColumnCount(t *testing.T) {
	cases := []struct {
		n  int
		ok bool
	}{
		{n: 0, ok: false},
		{n: 2, ok: false},
		{n: 3, ok: true},
		{n: 4, ok: true},
		{n: 6, ok: true},
		{n: 7, ok: false},
	}
	for _, tc := range cases {
		err := ValidateColumnCount(tc.n)
		if tc.ok && err != nil {
			t.Fatalf("ValidateColumnCount(%d) error = %v", tc.n, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidColumnCount) {
			t.Fatalf("ValidateColumnCount(%d) expected ErrInvalidColumnCount, got %v", tc.n, err)
		}
	}
}

func TestColumnCloneIsIndependent(t *testing.T) {
	c := Column{ID: "a", Title: "A", TaskIDs: []string{"t1", "t2"}}
	clone := c.Clone()
	clone.TaskIDs[0] = "x"
	if c.TaskIDs[0] != "t1" {
		t.Fatalf("clone mutated source: %#v", c.TaskIDs)
	}
	if c.IndexOf("t2") != 1 || c.IndexOf("missing") != -1 {
		t.Fatal("unexpected IndexOf results")
	}
}

func TestColumnRenameAndLimit(t *testing.T) {
	c := Column{ID: "a", Title: "A", TaskIDs: []string{"t1", "t2", "t3"}}
	if err := c.Rename("  "); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if err := c.Rename(" Doing "); err != nil || c.Title != "Doing" {
		t.Fatalf("Rename() error = %v title %q", err, c.Title)
	}
	if err := c.SetMaxTasks(-2); err != ErrInvalidLimit {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	if err := c.SetMaxTasks(2); err != nil {
		t.Fatalf("SetMaxTasks() error = %v", err)
	}
	if !c.OverLimit() {
		t.Fatal("expected column over limit")
	}
	_ = c.SetMaxTasks(0)
	if c.OverLimit() {
		t.Fatal("expected zero limit to disable the check")
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" URGENT ")
	if err != nil || p != PriorityUrgent {
		t.Fatalf("ParsePriority() = %q, %v", p, err)
	}
	if p, err := ParsePriority(""); err != nil || p != PriorityNone {
		t.Fatalf("expected blank priority, got %q %v", p, err)
	}
	if _, err := ParsePriority("critical"); err != ErrInvalidPriority {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	if PriorityUrgent.Rank() <= PriorityHigh.Rank() || PriorityNone.Rank() != 0 {
		t.Fatal("unexpected priority ranks")
	}
}

func TestTaskApplyPatch(t *testing.T) {
	due := time.Date(2026, 3, 1, 9, 30, 15, 500, time.UTC)
	task := Task{
		ID:       "t1",
		Title:    "Write docs",
		Status:   "To Do",
		Priority: PriorityLow,
		Tags:     []string{"docs"},
		DueDate:  &due,
	}
	title := "  Write more docs "
	prio := PriorityHigh
	tags := []string{"B", "a", "b", " "}
	status := "Done"
	got := task.Apply(TaskPatch{Title: &title, Priority: &prio, Tags: &tags, Status: &status})

	if got.Title != "Write more docs" || got.Priority != PriorityHigh || got.Status != "Done" {
		t.Fatalf("unexpected patched task %#v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "a" || got.Tags[1] != "b" {
		t.Fatalf("unexpected tags %#v", got.Tags)
	}
	if task.Title != "Write docs" || task.Tags[0] != "docs" {
		t.Fatalf("Apply mutated the source task %#v", task)
	}
	if got.DueDate == task.DueDate {
		t.Fatal("expected due date pointer to be copied")
	}

	cleared := got.Apply(TaskPatch{ClearDueDate: true})
	if cleared.DueDate != nil {
		t.Fatal("expected due date cleared")
	}
	if !(TaskPatch{}).IsZero() || (TaskPatch{ClearDueDate: true}).IsZero() {
		t.Fatal("unexpected IsZero result")
	}
}

func TestValidateDraftAndPatch(t *testing.T) {
	if err := ValidateDraft(Task{Title: " "}); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if err := ValidateDraft(Task{Title: "x", Priority: "p0"}); err != ErrInvalidPriority {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
	blank := ""
	if err := (TaskPatch{Title: &blank}).Validate(); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}

func TestTaskOverdueAndTags(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	if !(Task{DueDate: &past}).IsOverdue(now) {
		t.Fatal("expected past due date to be overdue")
	}
	if (Task{DueDate: &future}).IsOverdue(now) || (Task{}).IsOverdue(now) {
		t.Fatal("expected future and missing due dates to not be overdue")
	}
	task := Task{Tags: NormalizeTags([]string{"Bug", "bug", "ui"})}
	if !task.HasTag(" BUG ") || task.HasTag("docs") {
		t.Fatalf("unexpected HasTag results for %#v", task.Tags)
	}
}

func TestInitialsAndFormatDue(t *testing.T) {
	cases := map[string]string{
		"shubham narnolia":  "SN",
		"ada":               "AD",
		"a":                 "A",
		"  grace  b hopper": "GH",
		"":                  "",
	}
	for in, want := range cases {
		if got := Initials(in); got != want {
			t.Fatalf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
	due := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	if got := FormatDue(&due); got != "Mar 4, 2026" {
		t.Fatalf("FormatDue() = %q", got)
	}
	if FormatDue(nil) != "" {
		t.Fatal("expected empty string for nil due date")
	}
}
