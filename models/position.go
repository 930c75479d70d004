package models

import "fmt"

// Position is a cell coordinate in a grid world, where X is the column and Y is the row.
// Positions are plain values; every operation returns a new Position, so a Position shared
// between a frame's marker and its trace can never be changed from under either.
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Translate returns the component-wise sum of the two positions. No bounds are checked.
func (p Position) Translate(other Position) Position {
	return Position{X: p.X + other.X, Y: p.Y + other.Y}
}

// IsInside reports whether the position lies in the height x width rectangle anchored at (0,0).
func (p Position) IsInside(height, width int) bool {
	return 0 <= p.X && p.X < width && 0 <= p.Y && p.Y < height
}

// Crop clamps each coordinate into the height x width rectangle. It saturates rather
// than wraps, and never fails; for an empty rectangle the result is the origin.
func (p Position) Crop(height, width int) Position {
	return Position{
		X: clamp(p.X, 0, width-1),
		Y: clamp(p.Y, 0, height-1),
	}
}

// RowCol returns the row-major pair (row, col) used to index heat-map and policy grids.
// Note the reversed axis order: row is Y and col is X.
func (p Position) RowCol() (row, col int) {
	return p.Y, p.X
}

// FromRowCol is the inverse of RowCol.
func FromRowCol(row, col int) Position {
	return Position{X: col, Y: row}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
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
