// Package downloader streams resolved episodes to disk
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sdarotfetcher/sdarotfetcher/internal/scraper"
	"github.com/sdarotfetcher/sdarotfetcher/internal/util"
)

// ChunkSize is the size of every read from the video stream
const ChunkSize = 4 * 1024

// ProgressSink receives transfer updates from concurrent downloads
type ProgressSink interface {
	Started(name string, total int64)
	Advanced(n int64)
	Finished(name string, err error)
}

// Downloader writes resolved episodes into OutputDir
type Downloader struct {
	OutputDir string
	UserAgent string
	ChunkSize int
	Progress  ProgressSink
}

// New creates a downloader for outputDir
func New(outputDir string) *Downloader {
	return &Downloader{
		OutputDir: outputDir,
		UserAgent: util.DefaultUserAgent,
		ChunkSize: ChunkSize,
	}
}

// Download fetches the episode video and writes it to destPath, replacing
// any existing file. It returns the number of bytes written. A failed
// transfer leaves whatever was already written in place.
func (d *Downloader) Download(ctx context.Context, ep *scraper.ResolvedEpisode, destPath string) (written int64, err error) {
	safeDest, err := d.sanitizeDestPath(destPath)
	if err != nil {
		return 0, errors.Wrap(err, "invalid destination path")
	}
	name := filepath.Base(safeDest)

	if d.Progress != nil {
		defer func() { d.Progress.Finished(name, err) }()
	}

	// The video GET carries a form body, and it must not time out.
	session := util.NewSession(util.SessionConfig{Timeout: 0, UserAgent: d.UserAgent}).
		SetAllowGetMethodPayload(true)

	resp, err := session.R().
		SetContext(ctx).
		SetCookies(ep.Cookies).
		SetFormData(ep.Form).
		SetDoNotParseResponse(true).
		Get(ep.SourceURL)
	if err != nil {
		return 0, errors.Wrap(err, "failed to start download")
	}
	body := resp.RawBody()
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			util.Debugf("Failed to close response body: %v", closeErr)
		}
	}()

	if resp.StatusCode() != http.StatusOK {
		return 0, &scraper.TransportError{Method: http.MethodGet, URL: ep.SourceURL, Status: resp.StatusCode()}
	}

	// #nosec G304: dest path validated by sanitizeDestPath to remain within OutputDir
	out, err := os.Create(safeDest)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "failed to close output file")
		}
	}()

	if d.Progress != nil {
		d.Progress.Started(name, resp.RawResponse.ContentLength)
	}

	written, err = d.copyChunks(out, body)
	if err != nil {
		return written, err
	}

	util.PerfBytes("downloaded", written)
	util.Info("Episode saved", "file", name, "size", humanize.Bytes(uint64(written)))
	return written, nil
}

// copyChunks moves the body to out one bounded chunk at a time
func (d *Downloader) copyChunks(out io.Writer, body io.Reader) (int64, error) {
	size := d.ChunkSize
	if size <= 0 {
		size = ChunkSize
	}
	buffer := make([]byte, size)

	var written int64
	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			if _, writeErr := out.Write(buffer[:n]); writeErr != nil {
				return written, errors.Wrap(writeErr, "failed to write to file")
			}
			written += int64(n)
			if d.Progress != nil {
				d.Progress.Advanced(int64(n))
			}
		}

		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, errors.Wrap(readErr, "failed to read from response")
		}
	}
}

// sanitizeDestPath ensures the destination path stays within OutputDir
func (d *Downloader) sanitizeDestPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty destination path")
	}
	cleaned := filepath.Clean(p)
	if d.OutputDir == "" {
		return cleaned, nil
	}

	absDir, err := filepath.Abs(filepath.Clean(d.OutputDir))
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(cleaned)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absDir, absFile)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("destination escapes output directory: %s", cleaned)
	}
	return absFile, nil
}
