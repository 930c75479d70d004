package models

import (
	"errors"
	"fmt"
)

// Frame is a single snapshot of the grid world: the heat map (e.g. state values), the agent
// marker, the per-cell policy as action indices, and the trace of positions visited so far.
// Grids are row-major: Heatmap[row][col], i.e. Heatmap[pos.Y][pos.X].
// A Frame is produced once by its source and is read-only afterward.
type Frame struct {
	Heatmap [][]float64 `yaml:"heatmap"`
	Marker  Position    `yaml:"marker"`
	Policy  [][]int     `yaml:"policy"`
	Trace   []Position  `yaml:"trace"`
}

// Dims returns the height and width of the frame's heat map.
func (f *Frame) Dims() (height, width int) {
	height = len(f.Heatmap)
	if height > 0 {
		width = len(f.Heatmap[0])
	}
	return
}

// Episode is everything needed to replay a recorded run: the frames, the start and goal
// cells, whether the run reached the goal, and the table mapping policy indices to arrows.
type Episode struct {
	Frames  []Frame    `yaml:"frames"`
	Start   Position   `yaml:"start"`
	Goal    Position   `yaml:"goal"`
	Success bool       `yaml:"success"`
	Arrows  ArrowTable `yaml:"arrows"`
}

var (
	// ErrNoFrames is returned when a frame sequence is empty.
	ErrNoFrames error = errors.New("no frames: at least one frame is required")
	// ErrRaggedGrid is returned when the rows of a heat map or policy grid differ in length.
	ErrRaggedGrid error = errors.New("ragged grid")
	// ErrShapeMismatch is returned when grids within or across frames differ in shape.
	ErrShapeMismatch error = errors.New("grid shape mismatch")
	// ErrOutOfBounds is returned when a marker, trace point, start or goal lies outside the grid.
	ErrOutOfBounds error = errors.New("position out of bounds")
)

// ValidateFrames checks that frames form a well-formed sequence: non-empty, rectangular
// heat-map and policy grids of one common shape, and every position inside that shape.
// Returns the common grid dimensions, or an error identifying the first offending frame.
func ValidateFrames(frames []Frame, start, goal Position) (height, width int, err error) {
	if len(frames) == 0 {
		return 0, 0, ErrNoFrames
	}

	height, width = frames[0].Dims()
	if height == 0 || width == 0 {
		return 0, 0, fmt.Errorf("frame 0: empty heat map: %w", ErrShapeMismatch)
	}

	for i := range frames {
		if err = validateFrame(&frames[i], height, width); err != nil {
			return 0, 0, fmt.Errorf("frame %d: %w", i, err)
		}
	}

	if !start.IsInside(height, width) {
		return 0, 0, fmt.Errorf("start %v outside %dx%d grid: %w", start, height, width, ErrOutOfBounds)
	}
	if !goal.IsInside(height, width) {
		return 0, 0, fmt.Errorf("goal %v outside %dx%d grid: %w", goal, height, width, ErrOutOfBounds)
	}
	return
}

func validateFrame(frame *Frame, height, width int) error {
	if err := checkShape("heat map", len(frame.Heatmap), rowLens(frame.Heatmap), height, width); err != nil {
		return err
	}
	if err := checkShape("policy", len(frame.Policy), rowLens(frame.Policy), height, width); err != nil {
		return err
	}
	if !frame.Marker.IsInside(height, width) {
		return fmt.Errorf("marker %v outside %dx%d grid: %w", frame.Marker, height, width, ErrOutOfBounds)
	}
	for i, p := range frame.Trace {
		if !p.IsInside(height, width) {
			return fmt.Errorf("trace point %d %v outside %dx%d grid: %w", i, p, height, width, ErrOutOfBounds)
		}
	}
	return nil
}

// checkShape distinguishes ragged grids (rows of unequal length) from grids that are
// rectangular but of the wrong size.
func checkShape(name string, rows int, lens []int, height, width int) error {
	for i := 1; i < len(lens); i++ {
		if lens[i] != lens[0] {
			return fmt.Errorf("%s row %d has %d cells, row 0 has %d: %w", name, i, lens[i], lens[0], ErrRaggedGrid)
		}
	}
	if rows != height || (rows > 0 && lens[0] != width) {
		cols := 0
		if rows > 0 {
			cols = lens[0]
		}
		return fmt.Errorf("%s is %dx%d, expected %dx%d: %w", name, rows, cols, height, width, ErrShapeMismatch)
	}
	return nil
}

func rowLens[T any](grid [][]T) []int {
	lens := make([]int, len(grid))
	for i, row := range grid {
		lens[i] = len(row)
	}
	return lens
}
