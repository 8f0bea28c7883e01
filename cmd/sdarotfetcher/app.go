package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sdarotfetcher/sdarotfetcher/internal/config"
	"github.com/sdarotfetcher/sdarotfetcher/internal/download"
	"github.com/sdarotfetcher/sdarotfetcher/internal/downloader"
	"github.com/sdarotfetcher/sdarotfetcher/internal/scraper"
	"github.com/sdarotfetcher/sdarotfetcher/internal/util"
	"github.com/sdarotfetcher/sdarotfetcher/internal/version"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "sdarotfetcher",
		Usage:   "download whole seasons or series from sdarot",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "path of the JSON config file",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output directory (overrides output_dir)",
			},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "perf", Usage: "print a timing report on exit"},
			&cli.BoolFlag{Name: "progress", Usage: "show a progress bar while downloading"},
			&cli.BoolFlag{Name: "pick", Usage: "choose among search results instead of taking the first"},
		},
		ArgsUsage: "[NAME]",
		Action:    seriesAction,
		Commands: []*cli.Command{
			{
				Name:      "series",
				Usage:     "download every season of a series",
				ArgsUsage: "[NAME]",
				Action:    seriesAction,
			},
			{
				Name:      "season",
				Usage:     "download a single season",
				ArgsUsage: "NAME SEASON",
				Action:    seasonAction,
			},
			{
				Name:  "version",
				Usage: "print the version",
				Action: func(c *cli.Context) error {
					version.ShowVersion(c.App.Writer)
					return nil
				},
			},
		},
	}
}

func seriesAction(c *cli.Context) error {
	return run(c, func(ctx context.Context, cfg *config.Config, o *download.Orchestrator) error {
		name, err := util.ResolveSeriesName(c.Args().Slice(), cfg.SeriesName)
		if err != nil {
			return err
		}
		return o.DownloadSeries(ctx, cfg.OutputDir, name)
	})
}

func seasonAction(c *cli.Context) error {
	name, season, err := parseSeasonArgs(c.Args().Slice())
	if err != nil {
		return err
	}
	return run(c, func(ctx context.Context, cfg *config.Config, o *download.Orchestrator) error {
		return o.DownloadSeason(ctx, cfg.OutputDir, name, season)
	})
}

// parseSeasonArgs splits "NAME... SEASON"; the name may span several args
func parseSeasonArgs(args []string) (string, int, error) {
	if len(args) < 2 {
		return "", 0, errors.New("usage: season NAME SEASON")
	}
	season, err := strconv.Atoi(args[len(args)-1])
	if err != nil || season < 1 {
		return "", 0, errors.Errorf("invalid season %q", args[len(args)-1])
	}
	name := strings.TrimSpace(strings.Join(args[:len(args)-1], " "))
	if name == "" {
		return "", 0, errors.New("series name is empty")
	}
	return name, season, nil
}

type batchFunc func(ctx context.Context, cfg *config.Config, o *download.Orchestrator) error

// run loads the config, wires the pipeline and executes one batch
func run(c *cli.Context, batch batchFunc) error {
	util.SetDebugMode(c.Bool("debug"))
	util.InitLogger()
	util.PerfEnabled = c.Bool("perf")
	if util.PerfEnabled {
		defer util.GetPerfTracker().PrintReport(os.Stderr)
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if out := c.String("output"); out != "" {
		cfg.OutputDir = out
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	o, dl := buildPipeline(cfg)

	if c.Bool("pick") {
		if !interactive {
			return errors.New("--pick needs a terminal")
		}
		o.Pick = download.FuzzyPicker(download.TerminalFinder)
	}

	// The progress bar owns the terminal, so it cannot share it with the
	// spinner or the picker.
	if c.Bool("progress") && interactive && !c.Bool("pick") {
		batchCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		ui := downloader.NewProgressUI(cancel)
		dl.Progress = ui
		uiDone := make(chan error, 1)
		go func() { uiDone <- ui.Run() }()

		err = batch(batchCtx, cfg, o)
		ui.Quit()
		if uiErr := <-uiDone; uiErr != nil {
			util.Warnf("%v", uiErr)
		}
		return err
	}

	if interactive {
		o.Series = spinnerLookup{next: o.Series}
	}
	return batch(ctx, cfg, o)
}

// buildPipeline turns the config into resolvers, a downloader and the orchestrator
func buildPipeline(cfg *config.Config) (*download.Orchestrator, *downloader.Downloader) {
	site := scraper.NewSite(cfg.SdarotURL)
	site.Timeout = cfg.RequestTimeout
	if cfg.UserAgent != "" {
		site.UserAgent = cfg.UserAgent
	}

	series := scraper.NewSeriesResolver(site)
	series.StrictParse = cfg.StrictParse

	resolver := scraper.NewEpisodeResolver(site)
	resolver.CoolDown = cfg.CoolDown
	resolver.Quality = cfg.Quality
	resolver.LegacyQualityToken = cfg.LegacyQualityToken
	resolver.CDNScheme = cfg.CDNScheme

	dl := downloader.New(cfg.OutputDir)
	dl.UserAgent = site.UserAgent

	o := download.NewOrchestrator(series, &download.SiteFetcher{Resolver: resolver, Downloader: dl})
	o.Concurrency = cfg.Concurrency
	return o, dl
}
