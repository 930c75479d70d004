package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromYaml(t *testing.T) {
	Convey("When the config file does not exist", t, func() {
		cfg, err := FromYaml(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldBeNil)
		So(cfg, ShouldResemble, Default())
		So(cfg.Interval(), ShouldEqual, 200*time.Millisecond)
	})

	Convey("When a config overrides some fields", t, func() {
		cfg, err := FromYaml(writeConfig(t, `
kind: gridplayer
def:
  interval_ms: 50
  success: false
  panel:
    x: 10
    y: 30
  export:
    fps: 12
`))
		So(err, ShouldBeNil)

		Convey("The given fields are read", func() {
			So(cfg.Interval(), ShouldEqual, 50*time.Millisecond)
			So(cfg.Panel, ShouldResemble, Panel{X: 10, Y: 30})
			So(cfg.Export.Fps, ShouldEqual, 12)
			So(cfg.Success, ShouldNotBeNil)
			So(*cfg.Success, ShouldBeFalse)
		})

		Convey("The rest keep their defaults", func() {
			So(cfg.Addr, ShouldEqual, Default().Addr)
			So(cfg.Export.Dir, ShouldEqual, Default().Export.Dir)
			So(cfg.Export.WidthIn, ShouldEqual, Default().Export.WidthIn)
		})
	})

	Convey("When the config is of another kind", t, func() {
		_, err := FromYaml(writeConfig(t, `
kind: training
def:
  interval_ms: 50
`))
		So(errors.Is(err, ErrWrongKind), ShouldBeTrue)
	})

	Convey("When the interval is not positive", t, func() {
		_, err := FromYaml(writeConfig(t, `
kind: gridplayer
def:
  interval_ms: 0
`))
		So(errors.Is(err, ErrInvalid), ShouldBeTrue)
	})
}
