// Package download runs whole-season and whole-series batches
package download

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sdarotfetcher/sdarotfetcher/internal/downloader"
	"github.com/sdarotfetcher/sdarotfetcher/internal/models"
	"github.com/sdarotfetcher/sdarotfetcher/internal/scraper"
	"github.com/sdarotfetcher/sdarotfetcher/internal/util"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is how many episodes may be in flight at once. It is
// also the ceiling: larger values are lowered to it.
const DefaultConcurrency = 3

// SeriesLookup finds a series and its dimensions
type SeriesLookup interface {
	Search(ctx context.Context, name string) ([]models.SeriesMatch, error)
	SeasonCount(ctx context.Context, seriesID string) (int, error)
	EpisodeCount(ctx context.Context, seriesID string, season int) (int, error)
}

// EpisodeFetcher resolves one episode and writes it to task.Path
type EpisodeFetcher interface {
	FetchEpisode(ctx context.Context, task models.DownloadTask) error
}

// SiteFetcher is the EpisodeFetcher backed by the real site
type SiteFetcher struct {
	Resolver   *scraper.EpisodeResolver
	Downloader *downloader.Downloader
}

// FetchEpisode implements EpisodeFetcher
func (f *SiteFetcher) FetchEpisode(ctx context.Context, task models.DownloadTask) error {
	resolved, err := f.Resolver.Resolve(ctx, task.SeriesID, task.Season, task.Episode)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", task)
	}
	if _, err := f.Downloader.Download(ctx, resolved, task.Path); err != nil {
		return errors.Wrapf(err, "failed to download %s", task)
	}
	return nil
}

// Orchestrator schedules episode downloads behind an admission gate
type Orchestrator struct {
	Series  SeriesLookup
	Fetcher EpisodeFetcher

	// Concurrency caps the episodes running at the same time, up to
	// DefaultConcurrency.
	Concurrency int
	// Pick chooses among search matches. Nil takes the first one.
	Pick MatchPicker
}

// NewOrchestrator wires an orchestrator with the default gate size
func NewOrchestrator(series SeriesLookup, fetcher EpisodeFetcher) *Orchestrator {
	return &Orchestrator{
		Series:      series,
		Fetcher:     fetcher,
		Concurrency: DefaultConcurrency,
	}
}

// DownloadSeason downloads every episode of one season into outputDir.
// The first failing episode cancels the rest and its error is returned.
func (o *Orchestrator) DownloadSeason(ctx context.Context, outputDir, seriesName string, season int) error {
	match, err := o.findSeries(ctx, seriesName)
	if err != nil {
		return err
	}
	return o.downloadSeason(ctx, uuid.NewString(), outputDir, seriesName, match, season)
}

// DownloadSeries downloads every season of a series, one season at a time
func (o *Orchestrator) DownloadSeries(ctx context.Context, outputDir, seriesName string) error {
	match, err := o.findSeries(ctx, seriesName)
	if err != nil {
		return err
	}

	timer := util.StartTimer("season count")
	seasons, err := o.Series.SeasonCount(ctx, match.ID.String())
	timer.Stop()
	if err != nil {
		return errors.Wrap(err, "failed to count seasons")
	}
	if seasons == 0 {
		return &scraper.NotFoundError{What: "seasons", Name: seriesName}
	}
	batch := uuid.NewString()
	util.Info("Series found", "batch", batch, "name", match.Name, "id", match.ID.String(), "seasons", seasons)

	for season := 1; season <= seasons; season++ {
		if err := o.downloadSeason(ctx, batch, outputDir, seriesName, match, season); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) findSeries(ctx context.Context, seriesName string) (models.SeriesMatch, error) {
	matches, err := util.TimeFuncWithError("search", func() ([]models.SeriesMatch, error) {
		return o.Series.Search(ctx, seriesName)
	})
	if err != nil {
		return models.SeriesMatch{}, errors.Wrapf(err, "failed to search for %q", seriesName)
	}
	if len(matches) == 0 {
		return models.SeriesMatch{}, &scraper.NotFoundError{What: "series", Name: seriesName}
	}

	pick := o.Pick
	if pick == nil {
		pick = FirstMatch
	}
	return pick(matches)
}

func (o *Orchestrator) downloadSeason(ctx context.Context, batch, outputDir, seriesName string, match models.SeriesMatch, season int) error {
	log := util.With("batch", batch, "series", seriesName, "season", season)

	timer := util.StartTimer("episode count")
	episodes, err := o.Series.EpisodeCount(ctx, match.ID.String(), season)
	timer.Stop()
	if err != nil {
		return errors.Wrapf(err, "failed to count episodes of season %d", season)
	}
	if episodes == 0 {
		log.Warn("Season has no episodes")
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	name := match.Name
	if name == "" {
		name = seriesName
	}

	capacity := o.Concurrency
	if capacity <= 0 {
		capacity = DefaultConcurrency
	}
	if capacity > DefaultConcurrency {
		log.Warn("Concurrency capped", "requested", capacity, "max", DefaultConcurrency)
		capacity = DefaultConcurrency
	}
	gate := semaphore.NewWeighted(int64(capacity))
	g, gctx := errgroup.WithContext(ctx)

	log.Info("Downloading season", "episodes", episodes, "concurrency", capacity)

	var admitErr error
	for episode := 1; episode <= episodes; episode++ {
		if err := gate.Acquire(gctx, 1); err != nil {
			admitErr = err
			break
		}
		task := models.DownloadTask{
			SeriesID:   match.ID.String(),
			SeriesName: name,
			Season:     season,
			Episode:    episode,
			Path:       filepath.Join(outputDir, util.EpisodeFilename(name, season, episode)),
		}
		g.Go(func() error {
			defer gate.Release(1)
			log.Debug("Episode admitted", "episode", task.Episode)
			return o.Fetcher.FetchEpisode(gctx, task)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Season failed", "error", err)
		return err
	}
	if admitErr != nil {
		return errors.Wrap(admitErr, "batch cancelled")
	}

	log.Info("Season complete", "episodes", episodes)
	return nil
}
