package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gridplayer/config"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseFlags(t *testing.T) {
	Convey("When flags are parsed", t, func() {
		Convey("The defaults serve the random demo in the browser", func() {
			opts, err := parseFlags(nil)
			So(err, ShouldBeNil)
			So(opts.ui, ShouldEqual, uiWeb)
			So(opts.episodePath, ShouldBeEmpty)
			So(opts.configPath, ShouldEqual, "config.yaml")
		})

		Convey("Every flag is read", func() {
			opts, err := parseFlags([]string{"-ui", "tui", "-episode", "ep.yaml", "-seed", "7", "-debug"})
			So(err, ShouldBeNil)
			So(*opts, ShouldResemble, options{
				configPath:  "config.yaml",
				episodePath: "ep.yaml",
				ui:          uiTerminal,
				seed:        7,
				debug:       true,
			})
		})

		Convey("Unknown hosts are rejected", func() {
			_, err := parseFlags([]string{"-ui", "gtk"})
			So(errors.Is(err, ErrUnknownUI), ShouldBeTrue)
		})
	})
}

func TestLoadEpisode(t *testing.T) {
	Convey("The demo episode is seeded and sized", t, func() {
		cfg := config.Default()
		first, err := loadEpisode(&options{seed: 11}, cfg)
		So(err, ShouldBeNil)
		second, err := loadEpisode(&options{seed: 11}, cfg)
		So(err, ShouldBeNil)
		So(first, ShouldResemble, second)
		So(len(first.Frames), ShouldEqual, demoFrames)
		height, width := first.Frames[0].Dims()
		So(height, ShouldEqual, demoHeight)
		So(width, ShouldEqual, demoWidth)
		So(first.Success, ShouldBeTrue)

		Convey("The config may override the outcome", func() {
			failed := false
			cfg.Success = &failed
			ep, err := loadEpisode(&options{seed: 11}, cfg)
			So(err, ShouldBeNil)
			So(ep.Success, ShouldBeFalse)
		})
	})

	Convey("A missing episode file is an error", t, func() {
		_, err := loadEpisode(&options{episodePath: filepath.Join(t.TempDir(), "none.yaml")}, config.Default())
		So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
	})
}

func TestRunExport(t *testing.T) {
	Convey("When the demo is exported as PNGs", t, func() {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.yaml")
		framesDir := filepath.Join(dir, "out")
		So(os.WriteFile(configPath, []byte(`
kind: gridplayer
def:
  export:
    dir: `+framesDir+`
    width_in: 2
    height_in: 1.5
`), 0o644), ShouldBeNil)

		err := run(context.Background(), &options{configPath: configPath, ui: uiPNG, seed: 3})
		So(err, ShouldBeNil)

		Convey("A frame is written per demo frame", func() {
			matches, err := filepath.Glob(filepath.Join(framesDir, "frame_*.png"))
			So(err, ShouldBeNil)
			So(len(matches), ShouldEqual, demoFrames)
		})
	})
}
