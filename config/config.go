// config loads the player's application config. Config files share an envelope with a kind
// selector and a def body, so one directory can hold configs for several tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Kind is the envelope kind of player configs.
const Kind = "gridplayer"

var (
	ErrWrongKind error = errors.New("config kind mismatch")
	ErrInvalid   error = errors.New("invalid config")
)

type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// PlayerConfig holds the knobs of the player and its hosts.
type PlayerConfig struct {
	// IntervalMs is the auto-advance interval while playing.
	IntervalMs int `yaml:"interval_ms"`
	// Addr is the listen address of the browser host.
	Addr string `yaml:"addr"`
	// Success overrides the episode's outcome, coloring the trace green or red.
	Success *bool `yaml:"success"`
	// Panel is the initial position of the control bar: pixels in the browser, cells in the terminal.
	Panel  Panel        `yaml:"panel"`
	Export ExportConfig `yaml:"export"`
}

type Panel struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type ExportConfig struct {
	Dir      string  `yaml:"dir"`
	Video    string  `yaml:"video"`
	Fps      int     `yaml:"fps"`
	WidthIn  float64 `yaml:"width_in"`
	HeightIn float64 `yaml:"height_in"`
}

// Default returns the config used when no config file exists.
func Default() *PlayerConfig {
	return &PlayerConfig{
		IntervalMs: 200,
		Addr:       ":8080",
		Export: ExportConfig{
			Dir:      "frames",
			Video:    "episode.avi",
			Fps:      5,
			WidthIn:  6.4,
			HeightIn: 4.8,
		},
	}
}

// Interval returns the auto-advance interval.
func (cfg *PlayerConfig) Interval() time.Duration {
	return time.Duration(cfg.IntervalMs) * time.Millisecond
}

// Validate rejects values no host can work with.
func (cfg *PlayerConfig) Validate() error {
	if cfg.IntervalMs <= 0 {
		return fmt.Errorf("interval_ms %d must be positive: %w", cfg.IntervalMs, ErrInvalid)
	}
	if cfg.Export.Fps <= 0 {
		return fmt.Errorf("export fps %d must be positive: %w", cfg.Export.Fps, ErrInvalid)
	}
	if cfg.Export.WidthIn <= 0 || cfg.Export.HeightIn <= 0 {
		return fmt.Errorf("export size %vx%v must be positive: %w", cfg.Export.WidthIn, cfg.Export.HeightIn, ErrInvalid)
	}
	return nil
}

// FromYaml reads the config at path. A missing file yields the defaults; fields absent
// from the def body keep their default values. Keys are snake_case, since viper lowercases them.
func FromYaml(path string) (*PlayerConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != Kind {
		return nil, fmt.Errorf("%s: kind %q, expected %q: %w", path, outerConfig.Kind, Kind, ErrWrongKind)
	}

	var def []byte
	if def, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := Default()
	if err = yaml.Unmarshal(def, innerConfig); err != nil {
		return nil, err
	}
	if err = innerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return innerConfig, nil
}
