package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sdarotfetcher/sdarotfetcher/internal/models"
	"github.com/sdarotfetcher/sdarotfetcher/internal/util"
)

const (
	// DefaultCoolDown is the pause the site enforces between the pre-watch
	// token and the metadata request. Shorter waits are rejected.
	DefaultCoolDown = 31 * time.Second

	// LegacyTokenQuality is the quality whose token older clients
	// always sent with the video request.
	LegacyTokenQuality = "480"
)

// ResolvedEpisode carries everything the video request needs
type ResolvedEpisode struct {
	SourceURL string
	Quality   string
	// Form is sent as the body of the video GET.
	Form     map[string]string
	Cookies  []*http.Cookie
	Metadata *models.EpisodeMetadata
}

// EpisodeResolver runs the pre-watch -> cool-down -> metadata handshake
type EpisodeResolver struct {
	site Site

	CoolDown time.Duration
	// Quality picks a label from the watch map. Empty means the first one sent.
	Quality string
	// LegacyQualityToken sends the 480 token with the video request whatever
	// quality the URL was built with.
	LegacyQualityToken bool
	// CDNScheme is the scheme of the built video URL.
	CDNScheme string

	wait func(ctx context.Context, d time.Duration) error
}

// NewEpisodeResolver creates a resolver with the site's default cool-down
func NewEpisodeResolver(site Site) *EpisodeResolver {
	return &EpisodeResolver{
		site:      site,
		CoolDown:  DefaultCoolDown,
		CDNScheme: "https",
		wait:      sleepContext,
	}
}

// sleepContext waits d, returning early only when ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Resolve performs the whole handshake for one episode in a single session
func (r *EpisodeResolver) Resolve(ctx context.Context, seriesID string, season, episode int) (*ResolvedEpisode, error) {
	timer := util.StartTimer("resolve episode")
	defer timer.Stop()

	session := r.site.newSession()
	log := util.With("series", seriesID, "season", season, "episode", episode)

	token, cookies, err := r.PreWatchToken(ctx, session, seriesID, season, episode)
	if err != nil {
		return nil, err
	}
	log.Debug("pre-watch token issued", "cookies", len(cookies), "cooldown", r.CoolDown)

	if err := r.wait(ctx, r.CoolDown); err != nil {
		return nil, errors.Wrap(err, "cool-down interrupted")
	}

	meta, err := r.Metadata(ctx, session, token, cookies, seriesID, season, episode)
	if err != nil {
		return nil, err
	}

	sourceURL, chosen, err := r.SourceURL(meta)
	if err != nil {
		return nil, err
	}
	form, err := r.DownloadForm(meta, chosen)
	if err != nil {
		return nil, err
	}
	log.Debug("episode resolved", "quality", chosen.Quality, "offered", meta.Watch.Qualities())

	return &ResolvedEpisode{
		SourceURL: sourceURL,
		Quality:   chosen.Quality,
		Form:      form,
		Cookies:   cookies,
		Metadata:  meta,
	}, nil
}

// PreWatchToken asks for a token bound to the session cookies it returns
func (r *EpisodeResolver) PreWatchToken(ctx context.Context, session *resty.Client, seriesID string, season, episode int) (string, []*http.Cookie, error) {
	endpoint := r.site.url(ajaxWatchPath)

	resp, err := session.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"preWatch": "true",
			"SID":      seriesID,
			"season":   strconv.Itoa(season),
			"ep":       strconv.Itoa(episode),
		}).
		Post(endpoint)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to request pre-watch token")
	}
	if !resp.IsSuccess() {
		return "", nil, &TransportError{Method: http.MethodPost, URL: endpoint, Status: resp.StatusCode()}
	}

	token := strings.TrimSpace(resp.String())
	if token == "" {
		return "", nil, &DecodeError{What: "pre-watch token", Err: errors.New("empty response")}
	}
	return token, resp.Cookies(), nil
}

// Metadata exchanges the pre-watch token for the episode's video metadata
func (r *EpisodeResolver) Metadata(ctx context.Context, session *resty.Client, token string, cookies []*http.Cookie, seriesID string, season, episode int) (*models.EpisodeMetadata, error) {
	endpoint := r.site.url(ajaxWatchPath)

	resp, err := session.R().
		SetContext(ctx).
		SetCookies(cookies).
		SetFormData(map[string]string{
			"watch":   "false",
			"token":   token,
			"serie":   seriesID,
			"season":  strconv.Itoa(season),
			"episode": strconv.Itoa(episode),
			"type":    "episode",
		}).
		Post(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch episode metadata")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &TransportError{Method: http.MethodPost, URL: endpoint, Status: resp.StatusCode()}
	}

	var meta models.EpisodeMetadata
	if err := json.Unmarshal(resp.Body(), &meta); err != nil {
		return nil, &DecodeError{What: "episode metadata", Err: err}
	}
	return &meta, nil
}

// SelectQuality returns the configured quality, or the first one offered
func (r *EpisodeResolver) SelectQuality(meta *models.EpisodeMetadata) (models.QualityToken, error) {
	if r.Quality == "" {
		qt, ok := meta.Watch.First()
		if !ok {
			return models.QualityToken{}, &DecodeError{What: "episode metadata", Err: errors.New("no qualities offered")}
		}
		return qt, nil
	}

	qt, ok := meta.Watch.Lookup(r.Quality)
	if !ok {
		return models.QualityToken{}, &DecodeError{
			What: "episode metadata",
			Err:  errors.Errorf("quality %s not offered (have %v)", r.Quality, meta.Watch.Qualities()),
		}
	}
	return qt, nil
}

// SourceURL builds the direct CDN URL of the video
func (r *EpisodeResolver) SourceURL(meta *models.EpisodeMetadata) (string, models.QualityToken, error) {
	qt, err := r.SelectQuality(meta)
	if err != nil {
		return "", models.QualityToken{}, err
	}

	scheme := r.CDNScheme
	if scheme == "" {
		scheme = "https"
	}
	return FormatSourceURL(scheme, meta, qt), qt, nil
}

// FormatSourceURL renders {scheme}://{cdn}/w/episode/{quality}/{vid}.mp4?token=..&time=..&uid=..
func FormatSourceURL(scheme string, meta *models.EpisodeMetadata, qt models.QualityToken) string {
	return fmt.Sprintf("%s://%s/w/episode/%s/%s.mp4?token=%s&time=%s&uid=%s",
		scheme, meta.URL, qt.Quality, meta.VID, qt.Token, meta.Time, meta.UID)
}

// DownloadForm builds the body of the video request
func (r *EpisodeResolver) DownloadForm(meta *models.EpisodeMetadata, chosen models.QualityToken) (map[string]string, error) {
	token := chosen.Token
	if r.LegacyQualityToken {
		qt, ok := meta.Watch.Lookup(LegacyTokenQuality)
		if !ok {
			return nil, &DecodeError{
				What: "episode metadata",
				Err:  errors.Errorf("quality %s not offered (have %v)", LegacyTokenQuality, meta.Watch.Qualities()),
			}
		}
		token = qt.Token
	}

	return map[string]string{
		"time":  meta.Time.String(),
		"token": token,
		"uid":   meta.UID.String(),
	}, nil
}
