package interaction

// Rect is a region in terminal cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// ResolveIndexFromPointer maps a pointer row inside a column's task list to
// an insertion index, assuming every item is itemHeight rows tall. The result
// is clamped to [0, itemCount]; a non-positive itemHeight appends.
func ResolveIndexFromPointer(bounds Rect, pointerY, itemHeight, itemCount int) int {
	if itemCount < 0 {
		itemCount = 0
	}
	if itemHeight <= 0 {
		return itemCount
	}
	offset := pointerY - bounds.Y
	if offset < 0 {
		return 0
	}
	return clamp(offset/itemHeight, 0, itemCount)
}

// ResolveDirection compares a candidate slot with the dragged item's current
// slot. An unknown original (negative) has no direction.
func ResolveDirection(candidateIndex, originalIndex int) VerticalDirection {
	switch {
	case originalIndex < 0 || candidateIndex == originalIndex:
		return DirectionNone
	case candidateIndex > originalIndex:
		return DirectionDown
	default:
		return DirectionUp
	}
}

// ResolveColumnAt returns the index of the first rect containing (x, y), or -1.
func ResolveColumnAt(rects []Rect, x, y int) int {
	for idx, r := range rects {
		if r.Contains(x, y) {
			return idx
		}
	}
	return -1
}
