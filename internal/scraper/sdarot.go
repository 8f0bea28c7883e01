// Package scraper talks to the sdarot site: series search, season and
// episode enumeration, and the two-step episode resolution.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sdarotfetcher/sdarotfetcher/internal/models"
	"github.com/sdarotfetcher/sdarotfetcher/internal/util"
)

const (
	searchPath    = "/ajax/index"
	watchPagePath = "/watch/"
	ajaxWatchPath = "/ajax/watch"

	// DefaultRequestTimeout bounds every API call. Video streams have none.
	DefaultRequestTimeout = 5 * time.Minute
)

// Site is the remote root plus the session settings shared by the resolvers
type Site struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// NewSite builds a Site from the configured domain. A bare domain such as
// "sdarot.tw" is served over https.
func NewSite(root string) Site {
	return Site{
		BaseURL:   NormalizeRoot(root),
		UserAgent: util.DefaultUserAgent,
		Timeout:   DefaultRequestTimeout,
	}
}

// NormalizeRoot adds a scheme when missing and strips trailing slashes
func NormalizeRoot(root string) string {
	root = strings.TrimRight(strings.TrimSpace(root), "/")
	if root != "" && !strings.Contains(root, "://") {
		root = "https://" + root
	}
	return root
}

func (s Site) url(path string) string {
	return s.BaseURL + path
}

// newSession opens a fresh HTTP session for API calls
func (s Site) newSession() *resty.Client {
	return util.NewSession(util.SessionConfig{
		Timeout:   s.Timeout,
		UserAgent: s.UserAgent,
		Headers: map[string]string{
			"Referer": s.url("/watch"),
		},
	})
}

// SeriesResolver finds a series and counts its seasons and episodes
type SeriesResolver struct {
	site Site

	// StrictParse turns a missing season container into a DecodeError.
	// Off by default: the page is treated as having no seasons.
	StrictParse bool
}

// NewSeriesResolver creates a resolver bound to site
func NewSeriesResolver(site Site) *SeriesResolver {
	return &SeriesResolver{site: site}
}

// Search queries the site index. An empty result is not an error here;
// callers decide what "not found" means.
func (r *SeriesResolver) Search(ctx context.Context, name string) ([]models.SeriesMatch, error) {
	endpoint := r.site.url(searchPath)

	resp, err := r.site.newSession().R().
		SetContext(ctx).
		SetQueryParam("search", name).
		Get(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search for %q", name)
	}
	if !resp.IsSuccess() {
		return nil, &TransportError{Method: http.MethodGet, URL: endpoint, Status: resp.StatusCode()}
	}

	var matches []models.SeriesMatch
	if err := json.Unmarshal(resp.Body(), &matches); err != nil {
		return nil, &DecodeError{What: "search results", Err: err}
	}

	util.Debug("search finished", "query", name, "matches", len(matches))
	return matches, nil
}

// SeasonCount counts the season links on the series page
func (r *SeriesResolver) SeasonCount(ctx context.Context, seriesID string) (int, error) {
	doc, err := r.fetchDocument(ctx, r.site.url(watchPagePath+url.PathEscape(seriesID)), nil)
	if err != nil {
		return 0, err
	}

	container := doc.Find("#season").First()
	if container.Length() == 0 {
		if r.StrictParse {
			return 0, &DecodeError{What: "series page", Err: errors.New("season list not found")}
		}
		util.Warn("season list not found on series page", "series", seriesID)
		return 0, nil
	}

	return container.Find("a").Length(), nil
}

// EpisodeCount counts the episode links of one season
func (r *SeriesResolver) EpisodeCount(ctx context.Context, seriesID string, season int) (int, error) {
	doc, err := r.fetchDocument(ctx, r.site.url(ajaxWatchPath), map[string]string{
		"episodeList": seriesID,
		"season":      strconv.Itoa(season),
	})
	if err != nil {
		return 0, err
	}
	return doc.Find("a").Length(), nil
}

func (r *SeriesResolver) fetchDocument(ctx context.Context, endpoint string, query map[string]string) (*goquery.Document, error) {
	req := r.site.newSession().R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", endpoint)
	}
	if !resp.IsSuccess() {
		return nil, &TransportError{Method: http.MethodGet, URL: endpoint, Status: resp.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, &DecodeError{What: "HTML from " + endpoint, Err: err}
	}
	return doc, nil
}
