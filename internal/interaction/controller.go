package interaction

import "github.com/evanschultz/lanes/internal/domain"

// Controller holds exactly one Interaction. The zero value is idle.
type Controller struct {
	current Interaction
}

// NewController constructs an idle controller.
func NewController() *Controller {
	return &Controller{current: Idle{}}
}

// Current returns the active interaction.
func (c *Controller) Current() Interaction {
	if c.current == nil {
		return Idle{}
	}
	return c.current
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	return c.Current().Mode()
}

// Active returns the drag in progress, if any.
func (c *Controller) Active() (Drag, bool) {
	switch cur := c.Current().(type) {
	case PointerDragging:
		return cur.Drag, true
	case KeyboardDragging:
		return cur.Drag, true
	default:
		return Drag{}, false
	}
}

// StartDrag begins a pointer drag. It is ignored unless the controller is idle.
func (c *Controller) StartDrag(taskID, sourceColumnID string) bool {
	if c.Mode() != ModeNone || taskID == "" || sourceColumnID == "" {
		return false
	}
	c.current = PointerDragging{Drag: Drag{TaskID: taskID, SourceColumnID: sourceColumnID}}
	return true
}

// UpdateTarget records the column and slot under the pointer. Only the
// target fields change and only while a pointer drag is active.
func (c *Controller) UpdateTarget(columnID string, index NullIndex) bool {
	cur, ok := c.Current().(PointerDragging)
	if !ok {
		return false
	}
	cur.TargetColumnID = columnID
	cur.TargetIndex = index
	c.current = cur
	return true
}

// EndDrag clears a pointer drag. Drop and cancel both end here; a caller
// that drops performs its move first.
func (c *Controller) EndDrag() {
	if c.Mode() == ModePointer {
		c.current = Idle{}
	}
}

// PickUp begins a keyboard move with the target set to the task's own
// column and no slot chosen. It is ignored unless the controller is idle.
func (c *Controller) PickUp(taskID, columnID string) bool {
	if c.Mode() != ModeNone || taskID == "" || columnID == "" {
		return false
	}
	c.current = KeyboardDragging{Drag: Drag{
		TaskID:         taskID,
		SourceColumnID: columnID,
		TargetColumnID: columnID,
	}}
	return true
}

// MoveKeyboard shifts the keyboard target one step. Up and down move within
// the target column; left and right move to the neighbouring column in board
// order, stopping at the edges. An unset slot starts from the task's index in
// its source column. It reports whether a keyboard move is active.
func (c *Controller) MoveKeyboard(dir KeyDirection, columns []domain.Column) bool {
	cur, ok := c.Current().(KeyboardDragging)
	if !ok {
		return false
	}
	colIdx := columnIndex(columns, cur.TargetColumnID)
	if colIdx < 0 {
		colIdx = columnIndex(columns, cur.SourceColumnID)
	}
	if colIdx < 0 {
		return true
	}

	index := cur.TargetIndex.Index
	if !cur.TargetIndex.Valid {
		index = 0
		if src := columnIndex(columns, cur.SourceColumnID); src >= 0 {
			index = max(0, columns[src].IndexOf(cur.TaskID))
		}
	}

	switch dir {
	case KeyUp:
		index = max(0, index-1)
	case KeyDown:
		index = min(columns[colIdx].Len(), index+1)
	case KeyLeft:
		colIdx = max(0, colIdx-1)
	case KeyRight:
		colIdx = min(len(columns)-1, colIdx+1)
	}
	index = clamp(index, 0, columns[colIdx].Len())

	cur.TargetColumnID = columns[colIdx].ID
	cur.TargetIndex = At(index)
	c.current = cur
	return true
}

// Drop clears a keyboard move without touching board data.
func (c *Controller) Drop() {
	if c.Mode() == ModeKeyboard {
		c.current = Idle{}
	}
}

// Reset returns to idle from any mode.
func (c *Controller) Reset() {
	c.current = Idle{}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
