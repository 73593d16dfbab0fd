package interaction

import (
	"testing"

	"github.com/evanschultz/lanes/internal/domain"
)

func testColumns() []domain.Column {
	return []domain.Column{
		{ID: "todo", Title: "To Do", TaskIDs: []string{"t1", "t2", "t3"}},
		{ID: "doing", Title: "In Progress", TaskIDs: []string{"t4"}},
		{ID: "done", Title: "Done", TaskIDs: []string{}},
	}
}

func TestPointerDragLifecycle(t *testing.T) {
	c := NewController()
	if c.Mode() != ModeNone {
		t.Fatalf("expected idle, got %s", c.Mode())
	}
	if c.UpdateTarget("doing", At(0)) {
		t.Fatal("expected UpdateTarget to be ignored while idle")
	}
	if !c.StartDrag("t1", "todo") {
		t.Fatal("expected StartDrag to succeed")
	}
	drag, ok := c.Active()
	if !ok || drag.TaskID != "t1" || drag.SourceColumnID != "todo" || drag.TargetColumnID != "" || drag.TargetIndex.Valid {
		t.Fatalf("unexpected drag %#v", drag)
	}
	if !c.UpdateTarget("doing", At(1)) {
		t.Fatal("expected UpdateTarget to apply")
	}
	drag, _ = c.Active()
	if drag.TaskID != "t1" || drag.SourceColumnID != "todo" || drag.TargetColumnID != "doing" || drag.TargetIndex != At(1) {
		t.Fatalf("unexpected drag after target update %#v", drag)
	}
	if c.StartDrag("t2", "todo") {
		t.Fatal("expected second StartDrag to be ignored")
	}
	c.EndDrag()
	if _, ok := c.Active(); ok || c.Mode() != ModeNone {
		t.Fatal("expected EndDrag to clear the interaction")
	}
}

func TestZeroControllerIsIdle(t *testing.T) {
	var c Controller
	if c.Mode() != ModeNone {
		t.Fatalf("expected zero controller idle, got %s", c.Mode())
	}
	if _, ok := c.Current().(Idle); !ok {
		t.Fatalf("expected Idle, got %T", c.Current())
	}
}

func TestCrossModeStartsAreIgnored(t *testing.T) {
	c := NewController()
	c.PickUp("t1", "todo")
	if c.StartDrag("t2", "todo") {
		t.Fatal("expected pointer start during keyboard move to be ignored")
	}
	c.EndDrag()
	if c.Mode() != ModeKeyboard {
		t.Fatal("expected EndDrag to leave a keyboard move alone")
	}
	c.Drop()

	c.StartDrag("t1", "todo")
	if c.PickUp("t2", "todo") {
		t.Fatal("expected pick-up during pointer drag to be ignored")
	}
	if c.MoveKeyboard(KeyDown, testColumns()) {
		t.Fatal("expected MoveKeyboard to be ignored during pointer drag")
	}
	c.Drop()
	if c.Mode() != ModePointer {
		t.Fatal("expected Drop to leave a pointer drag alone")
	}
	c.Reset()
	if c.Mode() != ModeNone {
		t.Fatal("expected Reset to idle")
	}
}

func TestKeyboardPickUpSeedsTarget(t *testing.T) {
	c := NewController()
	if !c.PickUp("t2", "todo") {
		t.Fatal("expected PickUp to succeed")
	}
	drag, _ := c.Active()
	if drag.SourceColumnID != "todo" || drag.TargetColumnID != "todo" || drag.TargetIndex.Valid {
		t.Fatalf("unexpected drag %#v", drag)
	}
	if c.Mode() != ModeKeyboard {
		t.Fatalf("expected keyboard mode, got %s", c.Mode())
	}
}

func TestMoveKeyboard(t *testing.T) {
	columns := testColumns()
	cases := []struct {
		name       string
		task       string
		column     string
		keys       []KeyDirection
		wantColumn string
		wantIndex  int
	}{
		{name: "down from seeded index", task: "t2", column: "todo", keys: []KeyDirection{KeyDown}, wantColumn: "todo", wantIndex: 2},
		{name: "up from seeded index", task: "t2", column: "todo", keys: []KeyDirection{KeyUp}, wantColumn: "todo", wantIndex: 0},
		{name: "up stops at zero", task: "t1", column: "todo", keys: []KeyDirection{KeyUp, KeyUp}, wantColumn: "todo", wantIndex: 0},
		{name: "down stops at length", task: "t3", column: "todo", keys: []KeyDirection{KeyDown, KeyDown, KeyDown}, wantColumn: "todo", wantIndex: 3},
		{name: "left at first column unchanged", task: "t2", column: "todo", keys: []KeyDirection{KeyLeft}, wantColumn: "todo", wantIndex: 1},
		{name: "right clamps index to column", task: "t3", column: "todo", keys: []KeyDirection{KeyRight}, wantColumn: "doing", wantIndex: 1},
		{name: "right stops at last column", task: "t4", column: "doing", keys: []KeyDirection{KeyRight, KeyRight}, wantColumn: "done", wantIndex: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewController()
			c.PickUp(tc.task, tc.column)
			for _, key := range tc.keys {
				if !c.MoveKeyboard(key, columns) {
					t.Fatalf("MoveKeyboard(%d) returned false", key)
				}
			}
			drag, _ := c.Active()
			if drag.TargetColumnID != tc.wantColumn || drag.TargetIndex != At(tc.wantIndex) {
				t.Fatalf("expected %s@%d, got %s@%#v", tc.wantColumn, tc.wantIndex, drag.TargetColumnID, drag.TargetIndex)
			}
			if drag.TaskID != tc.task || drag.SourceColumnID != tc.column {
				t.Fatalf("expected dragged task and source untouched, got %#v", drag)
			}
		})
	}
}

func TestDropPerformsNoMutation(t *testing.T) {
	columns := testColumns()
	c := NewController()
	c.PickUp("t1", "todo")
	c.MoveKeyboard(KeyRight, columns)
	c.Drop()
	if c.Mode() != ModeNone {
		t.Fatal("expected Drop to idle")
	}
	if columns[0].Len() != 3 || columns[1].Len() != 1 {
		t.Fatal("expected columns untouched")
	}
}

func TestDragDirection(t *testing.T) {
	columns := testColumns()
	cases := []struct {
		name string
		drag Drag
		want VerticalDirection
	}{
		{name: "unset index", drag: Drag{TaskID: "t2", TargetColumnID: "todo"}, want: DirectionNone},
		{name: "below", drag: Drag{TaskID: "t1", TargetColumnID: "todo", TargetIndex: At(2)}, want: DirectionDown},
		{name: "above", drag: Drag{TaskID: "t3", TargetColumnID: "todo", TargetIndex: At(0)}, want: DirectionUp},
		{name: "same slot", drag: Drag{TaskID: "t2", TargetColumnID: "todo", TargetIndex: At(1)}, want: DirectionNone},
		{name: "other column", drag: Drag{TaskID: "t1", TargetColumnID: "doing", TargetIndex: At(0)}, want: DirectionNone},
	}
	for _, tc := range cases {
		if got := tc.drag.Direction(columns); got != tc.want {
			t.Fatalf("%s: Direction() = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestNullIndexOr(t *testing.T) {
	if (NullIndex{}).Or(7) != 7 {
		t.Fatal("expected fallback for unset index")
	}
	if At(0).Or(7) != 0 {
		t.Fatal("expected set index")
	}
}
