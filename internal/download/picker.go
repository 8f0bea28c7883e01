package download

import (
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/pkg/errors"
	"github.com/sdarotfetcher/sdarotfetcher/internal/models"
)

// MatchPicker chooses one series among the search results
type MatchPicker func(matches []models.SeriesMatch) (models.SeriesMatch, error)

// FirstMatch takes the site's top result
func FirstMatch(matches []models.SeriesMatch) (models.SeriesMatch, error) {
	if len(matches) == 0 {
		return models.SeriesMatch{}, errors.New("no series provided")
	}
	return matches[0], nil
}

// FuzzyFinder abstracts the fuzzyfinder interaction
type FuzzyFinder interface {
	Find(slice interface{}, itemFunc func(i int) string) (int, error)
}

type terminalFinder struct{}

func (terminalFinder) Find(slice interface{}, itemFunc func(i int) string) (int, error) {
	return fuzzyfinder.Find(slice, itemFunc, fuzzyfinder.WithPromptString("Series > "))
}

// TerminalFinder is the interactive go-fuzzyfinder prompt
var TerminalFinder FuzzyFinder = terminalFinder{}

// FuzzyPicker lets the user choose among several matches. A single match
// is returned without prompting.
func FuzzyPicker(finder FuzzyFinder) MatchPicker {
	return func(matches []models.SeriesMatch) (models.SeriesMatch, error) {
		if len(matches) == 0 {
			return models.SeriesMatch{}, errors.New("no series provided")
		}
		if len(matches) == 1 {
			return matches[0], nil
		}

		labels := make([]string, len(matches))
		for i, m := range matches {
			labels[i] = fmt.Sprintf("%s (#%s)", m.Name, m.ID.String())
		}

		idx, err := finder.Find(labels, func(i int) string {
			return labels[i]
		})
		if err != nil {
			return models.SeriesMatch{}, errors.Wrap(err, "failed to select series with go-fuzzyfinder")
		}
		if idx < 0 || idx >= len(matches) {
			return models.SeriesMatch{}, errors.New("invalid index returned by fuzzyfinder")
		}
		return matches[idx], nil
	}
}
