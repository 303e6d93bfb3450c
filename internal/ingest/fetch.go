package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const maxPDFBytes = 50 << 20

// ErrUnfetchable marks fetch failures that another attempt cannot fix: a
// malformed url, a 3xx or 4xx response, or an oversized document.
var ErrUnfetchable = errors.New("document cannot be fetched")

// Fetcher downloads documents, retrying network errors and 5xx responses.
type Fetcher struct {
	client   *http.Client
	attempts uint
	delay    time.Duration
}

func NewFetcher(client *http.Client, attempts uint, delay time.Duration) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if attempts == 0 {
		attempts = 3
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &Fetcher{client: client, attempts: attempts, delay: delay}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	var permanent error
	err := retry.Do(
		func() error {
			b, err := f.fetchOnce(ctx, url)
			if errors.Is(err, ErrUnfetchable) {
				permanent = err
				return retry.Unrecoverable(err)
			}
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Attempts(f.attempts),
		retry.Delay(f.delay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if permanent != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, permanent)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnfetchable, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnfetchable, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxPDFBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrUnfetchable, maxPDFBytes)
	}
	return b, nil
}
