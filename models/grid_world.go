package models

import (
	"fmt"
	"io"
	"math"
)

// ArrowMap maps a policy (action) index to the direction the overlay arrow should point,
// in grid coordinates: +dx is rightward (columns), +dy is downward (rows).
// It must be total over every index that appears in the policy grids it is used with.
type ArrowMap func(index int) (dx, dy float64)

// ArrowTable is the finite form of an ArrowMap: entry i is the direction of action i.
type ArrowTable [][2]float64

// CardinalArrows is the usual four-action grid world: up, down, left, right.
var CardinalArrows ArrowTable = ArrowTable{
	{0, -1},
	{0, 1},
	{-1, 0},
	{1, 0},
}

// Map returns the table as an ArrowMap. Indices outside the table map to no movement,
// though episodes are validated so that this does not occur.
func (tbl ArrowTable) Map() ArrowMap {
	return func(index int) (dx, dy float64) {
		if index < 0 || index >= len(tbl) {
			return 0, 0
		}
		return tbl[index][0], tbl[index][1]
	}
}

// ArrowGlyph returns a printable rune for the dominant direction of (dx, dy).
// This is hyper simplified for console based display; diagonals resolve to the larger component.
func ArrowGlyph(dx, dy float64) rune {
	switch {
	case dx == 0 && dy == 0:
		return '·'
	case math.Abs(dx) >= math.Abs(dy) && dx > 0:
		return '>'
	case math.Abs(dx) >= math.Abs(dy):
		return '<'
	case dy > 0:
		return 'v'
	}
	return '^'
}

// Show the policy of a frame in two dimensions, one glyph per cell, for visual reference.
// The goal cell is printed as 'G' since it carries no arrow.
func ShowPolicy(w io.Writer, frame *Frame, arrows ArrowMap, goal Position) {
	VisitCells(frame.Policy, func(pos Position, action int) {
		if pos.X == 0 && pos.Y > 0 {
			fmt.Fprintln(w)
		}
		if pos == goal {
			fmt.Fprint(w, "G ")
			return
		}
		fmt.Fprintf(w, "%c ", ArrowGlyph(arrows(action)))
	})
	fmt.Fprintln(w)
}

// Prints the heat map values of a frame, row by row, with the marker cell bracketed.
func ShowHeatmap(w io.Writer, frame *Frame) {
	VisitCells(frame.Heatmap, func(pos Position, val float64) {
		if pos.X == 0 && pos.Y > 0 {
			fmt.Fprintln(w)
		}
		if pos == frame.Marker {
			fmt.Fprintf(w, "[%.2f]", val)
		} else {
			fmt.Fprintf(w, " %.2f ", val)
		}
	})
	fmt.Fprintln(w)
}

// VisitCells visits every cell of a row-major grid in row order, passing the cell's position.
func VisitCells[T any](grid [][]T, fn func(pos Position, val T)) {
	for row := range grid {
		for col := range grid[row] {
			fn(FromRowCol(row, col), grid[row][col])
		}
	}
}

// Extent returns the minimum and maximum of a heat map; (0, 0) for an empty grid.
func Extent(grid [][]float64) (min, max float64) {
	min, max = math.MaxFloat64, -math.MaxFloat64
	VisitCells(grid, func(_ Position, val float64) {
		min = math.Min(min, val)
		max = math.Max(max, val)
	})
	if min > max {
		return 0, 0
	}
	return
}
