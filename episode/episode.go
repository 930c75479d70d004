// episode provides frame sequences for the player: recorded episodes loaded from yaml,
// and a random episode for trying the hosts out without any recorded data.
package episode

import (
	"fmt"
	"math/rand"
	"os"

	"gridplayer/models"

	"gopkg.in/yaml.v3"
)

// FromYaml loads an episode file. A missing arrow table defaults to the cardinal actions.
// Frames are validated, and every policy index must have an entry in the arrow table.
func FromYaml(path string) (*models.Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ep := &models.Episode{}
	if err = yaml.Unmarshal(data, ep); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(ep.Arrows) == 0 {
		ep.Arrows = models.CardinalArrows
	}

	if err = Validate(ep); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ep, nil
}

// ErrUnknownAction is returned when a policy grid holds an index with no arrow.
var ErrUnknownAction error = fmt.Errorf("policy index has no arrow")

// Validate checks the frames and that the arrow table is total over the policy indices.
func Validate(ep *models.Episode) (err error) {
	if _, _, err = models.ValidateFrames(ep.Frames, ep.Start, ep.Goal); err != nil {
		return
	}
	for i := range ep.Frames {
		models.VisitCells(ep.Frames[i].Policy, func(pos models.Position, action int) {
			if err == nil && (action < 0 || action >= len(ep.Arrows)) {
				err = fmt.Errorf("frame %d cell %v: index %d of %d arrows: %w",
					i, pos, action, len(ep.Arrows), ErrUnknownAction)
			}
		})
		if err != nil {
			return
		}
	}
	return
}

// ToYaml writes an episode in the format FromYaml reads.
func ToYaml(ep *models.Episode, path string) error {
	data, err := yaml.Marshal(ep)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Random returns an episode of uniformly random heat maps and policies. The marker walks
// the diagonal, wrapping per axis, and the trace accumulates the marker positions. The
// first four frames each light up one corner so orientation is easy to check by eye.
func Random(rng *rand.Rand, frames, height, width int) *models.Episode {
	ep := &models.Episode{
		Start:   models.Position{X: 0, Y: height / 2},
		Goal:    models.Position{X: width - 1 - width/4, Y: height / 2},
		Success: true,
		Arrows:  models.CardinalArrows,
	}

	var trace []models.Position
	for i := 0; i < frames; i++ {
		heatmap := make([][]float64, height)
		policy := make([][]int, height)
		for r := range heatmap {
			heatmap[r] = make([]float64, width)
			policy[r] = make([]int, width)
			for c := range heatmap[r] {
				heatmap[r][c] = rng.Float64()
				policy[r][c] = rng.Intn(len(ep.Arrows))
			}
		}

		corners := []models.Position{
			{X: 0, Y: 0},
			{X: width - 1, Y: 0},
			{X: width - 1, Y: height - 1},
			{X: 0, Y: height - 1},
		}
		if i < len(corners) {
			row, col := corners[i].RowCol()
			heatmap[row][col] = 1.5
		}

		marker := models.Position{X: i % width, Y: i % height}
		trace = append(trace, marker)
		ep.Frames = append(ep.Frames, models.Frame{
			Heatmap: heatmap,
			Policy:  policy,
			Marker:  marker,
			Trace:   append([]models.Position(nil), trace...),
		})
	}
	return ep
}
