package core

// Position represents a specific location in the text buffer
type Position struct {
	Row int // Zero-indexed row (line number)
	Col int // Zero-indexed column (rune position in the line)
}

// Compare returns -1, 0 or 1 if p is before, equal to or after other.
func (p Position) Compare(other Position) int {
	if p.Row != other.Row {
		if p.Row < other.Row {
			return -1
		}
		return 1
	}
	if p.Col != other.Col {
		if p.Col < other.Col {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether p is strictly before other in document order.
func (p Position) Before(other Position) bool {
	return p.Compare(other) < 0
}

// BeforeOrEqual reports whether p is at or before other in document order.
func (p Position) BeforeOrEqual(other Position) bool {
	return p.Compare(other) <= 0
}

// After reports whether p is strictly after other in document order.
func (p Position) After(other Position) bool {
	return p.Compare(other) > 0
}

// Equal reports whether p and other are the same position.
func (p Position) Equal(other Position) bool {
	return p == other
}

// Range is an immutable half-open span [Start, End) over document
// positions. A range may be zero-width (Start == End).
type Range struct {
	Start Position
	End   Position
}

// NewRange builds a range from row/column pairs.
func NewRange(startRow, startCol, endRow, endCol int) Range {
	return Range{
		Start: Position{Row: startRow, Col: startCol},
		End:   Position{Row: endRow, Col: endCol},
	}
}

// IsEmpty reports whether the range is zero-width.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// ContainsPosition reports whether pos lies inside the half-open span.
func (r Range) ContainsPosition(pos Position) bool {
	return r.Start.BeforeOrEqual(pos) && pos.Before(r.End)
}

// ContainsRange reports whether other lies entirely within r.
func (r Range) ContainsRange(other Range) bool {
	return r.Start.BeforeOrEqual(other.Start) && other.End.BeforeOrEqual(r.End)
}

// Equal reports whether r and other span the same positions.
func (r Range) Equal(other Range) bool {
	return r == other
}

// Overlaps reports whether r and other share at least one position.
// Touching ranges ([a,b) and [b,c)) do not overlap.
func (r Range) Overlaps(other Range) bool {
	if r.IsEmpty() && other.IsEmpty() {
		return false
	}
	if r.IsEmpty() {
		return other.ContainsPosition(r.Start)
	}
	if other.IsEmpty() {
		return r.ContainsPosition(other.Start)
	}
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}
