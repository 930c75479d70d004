/*
gridplayer replays a recorded grid-world episode frame by frame: the heat map of the state
values, the policy arrows, the agent's marker and the trace of the path taken. The episode
is either loaded from yaml or generated as a random demo, and is shown in a browser, in the
terminal, or exported as PNG frames or an MJPEG video.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"gridplayer/config"
	"gridplayer/episode"
	"gridplayer/export"
	"gridplayer/models"
	"gridplayer/player"
	"gridplayer/server"
	"gridplayer/server/cell_views"
	"gridplayer/term_view"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"
)

// Dimensions of the random demo episode.
const (
	demoFrames = 10
	demoHeight = 7
	demoWidth  = 10
)

// Hosts selectable with -ui.
const (
	uiWeb      = "web"
	uiTerminal = "tui"
	uiPNG      = "png"
	uiVideo    = "video"
)

var ErrUnknownUI error = errors.New("unknown ui")

type options struct {
	configPath  string
	episodePath string
	ui          string
	seed        int64
	debug       bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("gridplayer", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "config.yaml", "path to the player config; defaults apply if missing")
	fs.StringVar(&opts.episodePath, "episode", "", "path to an episode yaml; empty plays a random demo")
	fs.StringVar(&opts.ui, "ui", uiWeb, "host: web, tui, png or video")
	fs.Int64Var(&opts.seed, "seed", 0, "seed of the random demo; 0 seeds from the clock")
	fs.BoolVar(&opts.debug, "debug", false, "print the first frame's policy and heat map")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch opts.ui {
	case uiWeb, uiTerminal, uiPNG, uiVideo:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownUI, opts.ui)
	}
	return opts, nil
}

// loadEpisode reads the episode, or generates the demo, and applies the config's outcome override.
func loadEpisode(opts *options, cfg *config.PlayerConfig) (ep *models.Episode, err error) {
	if opts.episodePath != "" {
		if ep, err = episode.FromYaml(opts.episodePath); err != nil {
			return nil, err
		}
	} else {
		seed := opts.seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		log.Printf("random demo episode, seed %d", seed)
		ep = episode.Random(rand.New(rand.NewSource(seed)), demoFrames, demoHeight, demoWidth)
	}

	if cfg.Success != nil {
		ep.Success = *cfg.Success
	}
	return ep, nil
}

func exportOptions(opts *options, cfg *config.PlayerConfig) export.Options {
	title := "random demo"
	if opts.episodePath != "" {
		title = strings.TrimSuffix(filepath.Base(opts.episodePath), filepath.Ext(opts.episodePath))
	}
	return export.Options{
		Title:    title,
		WidthIn:  cfg.Export.WidthIn,
		HeightIn: cfg.Export.HeightIn,
		Fps:      cfg.Export.Fps,
		Quality:  export.DefaultOptions.Quality,
	}
}

func run(ctx context.Context, opts *options) error {
	cfg, err := config.FromYaml(opts.configPath)
	if err != nil {
		return err
	}
	ep, err := loadEpisode(opts, cfg)
	if err != nil {
		return err
	}

	if opts.debug {
		arrows := ep.Arrows
		if len(arrows) == 0 {
			arrows = models.CardinalArrows
		}
		models.ShowPolicy(os.Stdout, &ep.Frames[0], arrows.Map(), ep.Goal)
		models.ShowHeatmap(os.Stdout, &ep.Frames[0])
	}

	panel := image.Point{X: cfg.Panel.X, Y: cfg.Panel.Y}
	switch opts.ui {
	case uiTerminal:
		return runTerminal(ctx, cfg, ep, panel)
	case uiPNG:
		paths, err := export.PNGs(ep, cfg.Export.Dir, exportOptions(opts, cfg))
		if err == nil {
			log.Printf("wrote %d frames to %s", len(paths), cfg.Export.Dir)
		}
		return err
	case uiVideo:
		err := export.Video(ep, cfg.Export.Video, exportOptions(opts, cfg))
		if err == nil {
			log.Printf("wrote %s", cfg.Export.Video)
		}
		return err
	}
	return runWeb(ctx, cfg, ep, panel)
}

// runWeb serves the player until ctx is cancelled.
func runWeb(ctx context.Context, cfg *config.PlayerConfig, ep *models.Episode, panel image.Point) error {
	surface := cell_views.NewWebSurface()
	p, err := player.FromEpisode(ep, surface, player.WithInterval(cfg.Interval()))
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	srv, err := server.NewServer(groupCtx, cfg.Addr, ep, surface, panel)
	if err != nil {
		return err
	}
	group.Go(func() error {
		return p.Run(groupCtx, srv.Events())
	})
	group.Go(func() error {
		return srv.Serve(groupCtx)
	})
	return group.Wait()
}

// runTerminal plays in the terminal until the user quits or ctx is cancelled.
func runTerminal(ctx context.Context, cfg *config.PlayerConfig, ep *models.Episode, panel image.Point) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err = screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	// Log lines would tear through the screen.
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	surface := term_view.NewSurface(screen, panel)
	p, err := player.FromEpisode(ep, surface,
		player.WithInterval(cfg.Interval()),
		player.WithStateHook(surface.ShowState))
	if err != nil {
		return err
	}

	host := term_view.NewHost(screen, surface)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return host.Run(groupCtx)
	})
	group.Go(func() error {
		// Returns once the host closes its events.
		return p.Run(groupCtx, host.Events())
	})
	return group.Wait()
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err = run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}
