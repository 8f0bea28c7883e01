package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh/spinner"
	"github.com/sdarotfetcher/sdarotfetcher/internal/download"
	"github.com/sdarotfetcher/sdarotfetcher/internal/models"
)

// spinnerLookup shows a spinner while the site is being queried
type spinnerLookup struct {
	next download.SeriesLookup
}

func withSpinner[T any](title string, fn func() (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	spinErr := spinner.New().
		Title(title).
		Type(spinner.Dots).
		Action(func() {
			result, err = fn()
		}).
		Run()
	if spinErr != nil && err == nil {
		err = spinErr
	}
	return result, err
}

func (s spinnerLookup) Search(ctx context.Context, name string) ([]models.SeriesMatch, error) {
	return withSpinner(fmt.Sprintf("Searching for %s...", name), func() ([]models.SeriesMatch, error) {
		return s.next.Search(ctx, name)
	})
}

func (s spinnerLookup) SeasonCount(ctx context.Context, seriesID string) (int, error) {
	return withSpinner("Counting seasons...", func() (int, error) {
		return s.next.SeasonCount(ctx, seriesID)
	})
}

func (s spinnerLookup) EpisodeCount(ctx context.Context, seriesID string, season int) (int, error) {
	return withSpinner(fmt.Sprintf("Listing season %d...", season), func() (int, error) {
		return s.next.EpisodeCount(ctx, seriesID, season)
	})
}
