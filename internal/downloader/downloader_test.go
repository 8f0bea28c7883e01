package downloader

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/sdarotfetcher/sdarotfetcher/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink keeps every progress callback
type recordingSink struct {
	mu       sync.Mutex
	started  map[string]int64
	chunks   []int64
	finished map[string]error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{started: map[string]int64{}, finished: map[string]error{}}
}

func (s *recordingSink) Started(name string, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[name] = total
}

func (s *recordingSink) Advanced(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, n)
}

func (s *recordingSink) Finished(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished[name] = err
}

func videoPayload() []byte {
	// deliberately not a multiple of the chunk size
	return bytes.Repeat([]byte("0123456789abcdef"), 1300)
}

func newVideoServer(t *testing.T, payload []byte, gotForm *url.Values, gotCookie *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/w/episode/480/555.mp4" {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(raw))
		if gotForm != nil {
			*gotForm = form
		}
		if c, err := r.Cookie("Sdarot"); err == nil && gotCookie != nil {
			*gotCookie = c.Value
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
}

func resolvedFor(serverURL string) *scraper.ResolvedEpisode {
	return &scraper.ResolvedEpisode{
		SourceURL: serverURL + "/w/episode/480/555.mp4?token=tok&time=1700&uid=u1",
		Quality:   "480",
		Form:      map[string]string{"time": "1700", "token": "tok", "uid": "u1"},
		Cookies:   []*http.Cookie{{Name: "Sdarot", Value: "session-abc"}},
	}
}

func TestDownloadStreamsWholeBodyInChunks(t *testing.T) {
	t.Parallel()

	payload := videoPayload()
	var form url.Values
	var cookie string
	server := newVideoServer(t, payload, &form, &cookie)
	defer server.Close()

	dir := t.TempDir()
	sink := newRecordingSink()
	d := New(dir)
	d.Progress = sink

	dest := filepath.Join(dir, "Show_1_1.mp4")
	written, err := d.Download(context.Background(), resolvedFor(server.URL), dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), written)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	assert.Equal(t, "1700", form.Get("time"))
	assert.Equal(t, "tok", form.Get("token"))
	assert.Equal(t, "u1", form.Get("uid"))
	assert.Equal(t, "session-abc", cookie)

	var sum int64
	for _, n := range sink.chunks {
		assert.LessOrEqual(t, n, int64(ChunkSize))
		sum += n
	}
	assert.Equal(t, int64(len(payload)), sum)
	assert.Equal(t, int64(len(payload)), sink.started["Show_1_1.mp4"])
	assert.Contains(t, sink.finished, "Show_1_1.mp4")
	assert.NoError(t, sink.finished["Show_1_1.mp4"])
}

func TestDownloadOverwritesExistingFile(t *testing.T) {
	t.Parallel()

	payload := []byte("fresh video bytes")
	server := newVideoServer(t, payload, nil, nil)
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "Show_1_2.mp4")
	require.NoError(t, os.WriteFile(dest, bytes.Repeat([]byte("x"), 10*ChunkSize), 0o600))

	_, err := New(dir).Download(context.Background(), resolvedFor(server.URL), dest)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadFailsOnBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dir := t.TempDir()
	sink := newRecordingSink()
	d := New(dir)
	d.Progress = sink

	dest := filepath.Join(dir, "Show_1_3.mp4")
	_, err := d.Download(context.Background(), resolvedFor(server.URL), dest)
	require.Error(t, err)
	assert.True(t, scraper.IsTransport(err))

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
	assert.Error(t, sink.finished["Show_1_3.mp4"])
}

func TestDownloadRejectsPathOutsideOutputDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := New(dir).Download(context.Background(), resolvedFor("http://127.0.0.1:1"), filepath.Join(dir, "..", "escape.mp4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes output directory")
}

func TestCopyChunksHonoursChunkSize(t *testing.T) {
	t.Parallel()

	sink := newRecordingSink()
	d := &Downloader{ChunkSize: 7, Progress: sink}

	var out bytes.Buffer
	n, err := d.copyChunks(&out, bytes.NewReader([]byte("exactly twenty bytes")))
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)
	assert.Equal(t, "exactly twenty bytes", out.String())
	for _, c := range sink.chunks {
		assert.LessOrEqual(t, c, int64(7))
	}
}
