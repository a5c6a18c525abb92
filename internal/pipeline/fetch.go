package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/woozymasta/civmap/internal/metrics"

	"github.com/rs/zerolog/log"
)

var (
	// ErrFetch wraps transport level failures.
	ErrFetch = errors.New("fetch failed")
	// ErrStatus is returned for non-success HTTP responses.
	ErrStatus = errors.New("unexpected status")
	// ErrDecode wraps malformed or wrongly shaped JSON.
	ErrDecode = errors.New("decode failed")
)

// Fetch issues one GET to url and decodes the JSON object response.
func Fetch(ctx context.Context, client *http.Client, url, envelope string) (*Payload, error) {
	start := time.Now()
	defer func() { metrics.FetchDuration.Observe(time.Since(start).Seconds()) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	log.Debug().Str("url", url).Msg("Fetching datasets")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrStatus, resp.StatusCode)
	}

	return DecodePayload(resp.Body, envelope)
}
