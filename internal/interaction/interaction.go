// Package interaction tracks an in-progress move of a task, started by a
// pointer press or a keyboard pick-up, and translates pointer geometry into
// insertion indexes. It never touches board data.
package interaction

import (
	"slices"

	"github.com/evanschultz/lanes/internal/domain"
)

// Mode identifies which input started the active interaction.
type Mode int

const (
	ModeNone Mode = iota
	ModePointer
	ModeKeyboard
)

// String returns a log-friendly mode name.
func (m Mode) String() string {
	switch m {
	case ModePointer:
		return "pointer"
	case ModeKeyboard:
		return "keyboard"
	default:
		return "none"
	}
}

// VerticalDirection is the way a candidate slot sits relative to the
// dragged task's current slot.
type VerticalDirection int

const (
	DirectionNone VerticalDirection = iota
	DirectionUp
	DirectionDown
)

// KeyDirection is one arrow key.
type KeyDirection int

const (
	KeyUp KeyDirection = iota
	KeyDown
	KeyLeft
	KeyRight
)

// NullIndex is an insertion index that may be unset.
type NullIndex struct {
	Index int
	Valid bool
}

// At returns a set index.
func At(index int) NullIndex {
	return NullIndex{Index: index, Valid: true}
}

// Or returns the index, or fallback when unset.
func (n NullIndex) Or(fallback int) int {
	if !n.Valid {
		return fallback
	}
	return n.Index
}

// Drag is the bookkeeping shared by both drag modes.
type Drag struct {
	TaskID         string
	SourceColumnID string
	// TargetColumnID is empty while the pointer is over no column.
	TargetColumnID string
	TargetIndex    NullIndex
}

// Direction reports where the target slot sits relative to the dragged
// task's position in the target column. Moves into another column have no
// direction.
func (d Drag) Direction(columns []domain.Column) VerticalDirection {
	if !d.TargetIndex.Valid {
		return DirectionNone
	}
	original := -1
	if idx := columnIndex(columns, d.TargetColumnID); idx >= 0 {
		original = columns[idx].IndexOf(d.TaskID)
	}
	return ResolveDirection(d.TargetIndex.Index, original)
}

// Interaction is the active input state: Idle, PointerDragging, or
// KeyboardDragging.
type Interaction interface {
	Mode() Mode
	isInteraction()
}

type Idle struct{}

type PointerDragging struct {
	Drag
}

type KeyboardDragging struct {
	Drag
}

func (Idle) Mode() Mode             { return ModeNone }
func (PointerDragging) Mode() Mode  { return ModePointer }
func (KeyboardDragging) Mode() Mode { return ModeKeyboard }

func (Idle) isInteraction()             {}
func (PointerDragging) isInteraction()  {}
func (KeyboardDragging) isInteraction() {}

func columnIndex(columns []domain.Column, columnID string) int {
	if columnID == "" {
		return -1
	}
	return slices.IndexFunc(columns, func(c domain.Column) bool {
		return c.ID == columnID
	})
}
