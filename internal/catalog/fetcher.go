package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxBodyBytes caps a single source response. Celestrak per-satellite GP
// responses are a few hundred bytes; anything near this limit is a broken
// or hostile upstream.
const maxBodyBytes = 50 * 1024 * 1024

// Fetcher retrieves raw TLE text for the configured satellite set. Each
// satellite is fetched from its own URL; failures on individual sources
// are logged and skipped so a single stale upstream cannot blank the
// whole catalog.
type Fetcher struct {
	urls       []string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher over an explicit URL list.
func NewFetcher(logger *slog.Logger, urls ...string) *Fetcher {
	return &Fetcher{
		urls:   urls,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewSatelliteFetcher creates a Fetcher for a satellite set, one
// Celestrak GP query per satellite.
func NewSatelliteFetcher(logger *slog.Logger, sats []Satellite) *Fetcher {
	urls := make([]string, len(sats))
	for i, s := range sats {
		urls[i] = SourceURL(s.NoradID)
	}
	return NewFetcher(logger, urls...)
}

// URLs returns the configured source URLs.
func (f *Fetcher) URLs() []string {
	return f.urls
}

// Fetch retrieves all sources and concatenates their bodies. The first
// source is mandatory; failures on the rest are tolerated with a warning.
// An error is returned only when nothing at all could be fetched.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	if len(f.urls) == 0 {
		return nil, fmt.Errorf("no source URLs configured")
	}

	var buf bytes.Buffer
	var fetched int
	for i, url := range f.urls {
		body, err := f.fetchOne(ctx, url)
		if err != nil {
			if i == 0 {
				return nil, err
			}
			f.logger.Warn("skipping unavailable TLE source", "url", url, "error", err)
			continue
		}
		buf.Write(body)
		if len(body) > 0 && body[len(body)-1] != '\n' {
			buf.WriteByte('\n')
		}
		fetched++
	}

	if fetched == 0 {
		return nil, fmt.Errorf("all %d TLE sources failed", len(f.urls))
	}
	return buf.Bytes(), nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response from %s exceeds %d byte limit", url, maxBodyBytes)
	}

	return body, nil
}
