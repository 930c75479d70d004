// export writes a whole episode out as still images or as an MJPEG video. Both walk the
// episode with a player stepping forward over a plot_view surface, so exported frames are
// drawn exactly as the interactive hosts draw them.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	"gridplayer/models"
	"gridplayer/player"
	"gridplayer/plot_view"
	"gridplayer/render"

	"github.com/icza/mjpeg"
	"gonum.org/v1/plot/vg"
)

// Options sizes the exported images.
type Options struct {
	Title    string
	WidthIn  float64
	HeightIn float64
	// Fps is the video frame rate.
	Fps int
	// Quality is the JPEG quality of video frames.
	Quality int
}

// DefaultOptions is a 6.4x4.8in figure.
var DefaultOptions = Options{
	Title:    "gridworld",
	WidthIn:  6.4,
	HeightIn: 4.8,
	Fps:      5,
	Quality:  90,
}

func (opts Options) surface() *plot_view.Surface {
	return plot_view.NewSurface(
		opts.Title,
		vg.Length(opts.WidthIn)*vg.Inch,
		vg.Length(opts.HeightIn)*vg.Inch)
}

// walk presents every frame of the episode, in order, to onFrame.
func walk(ep *models.Episode, surface *plot_view.Surface, onFrame func(index int, s *plot_view.Surface) error) error {
	index := 0
	var frameErr error
	surface.OnPresent = func(s *plot_view.Surface) {
		if frameErr != nil {
			return
		}
		frameErr = onFrame(index, s)
		index++
	}

	// Construction presents frame 0.
	p, err := player.FromEpisode(ep, surface)
	if err != nil {
		return err
	}
	for i := 1; i < p.Len() && frameErr == nil; i++ {
		p.StepForward()
	}
	return frameErr
}

// ErrNoSuchFrame is returned for a frame index outside the episode.
var ErrNoSuchFrame error = errors.New("no such frame")

// FramePNG draws the frame at index exactly as a player presenting it would, without
// walking the episode. The episode must already be valid.
func FramePNG(ep *models.Episode, index int, w io.Writer, opts Options) error {
	if index < 0 || index >= len(ep.Frames) {
		return fmt.Errorf("frame %d of %d: %w", index, len(ep.Frames), ErrNoSuchFrame)
	}
	arrows := ep.Arrows
	if len(arrows) == 0 {
		arrows = models.CardinalArrows
	}

	s := opts.surface()
	frame := &ep.Frames[index]
	s.SetSliderRange(0, len(ep.Frames)-1)
	render.Render(s, frame, ep.Start, ep.Goal, arrows.Map(), ep.Success)
	s.SetMarkerCenter(float64(frame.Marker.X), float64(frame.Marker.Y))
	s.SetSliderValue(index)
	return s.WritePNG(w)
}

// PNGs writes one frame_NNNN.png per frame into dir, creating it if needed.
// Returns the paths written.
func PNGs(ep *models.Episode, dir string, opts Options) (paths []string, err error) {
	if err = os.MkdirAll(dir, 0755); err != nil {
		return
	}

	err = walk(ep, opts.surface(), func(index int, s *plot_view.Surface) error {
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", index))
		f, createErr := os.Create(path)
		if createErr != nil {
			return createErr
		}
		defer f.Close()

		if writeErr := s.WritePNG(f); writeErr != nil {
			return fmt.Errorf("frame %d: %w", index, writeErr)
		}
		paths = append(paths, path)
		return f.Close()
	})
	return
}

// Video encodes every frame as JPEG into an MJPEG AVI at path. The video takes its
// dimensions from the first drawn frame.
func Video(ep *models.Episode, path string, opts Options) (err error) {
	var aw mjpeg.AviWriter
	defer func() {
		if aw == nil {
			return
		}
		if closeErr := aw.Close(); err == nil {
			err = closeErr
		}
	}()

	var buf bytes.Buffer
	jpegOpts := &jpeg.Options{Quality: opts.Quality}
	err = walk(ep, opts.surface(), func(index int, s *plot_view.Surface) error {
		img, frameErr := s.Image()
		if frameErr != nil {
			return fmt.Errorf("frame %d: %w", index, frameErr)
		}
		if aw == nil {
			bounds := img.Bounds()
			if aw, frameErr = mjpeg.New(path, int32(bounds.Dx()), int32(bounds.Dy()), int32(opts.Fps)); frameErr != nil {
				return frameErr
			}
		}
		buf.Reset()
		if frameErr = jpeg.Encode(&buf, img, jpegOpts); frameErr != nil {
			return fmt.Errorf("frame %d: %w", index, frameErr)
		}
		return aw.AddFrame(buf.Bytes())
	})
	return
}
