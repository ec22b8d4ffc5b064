package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Options tunes [Get].
type Options struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
	// MaxBytes caps the body size. Zero means 64 MiB.
	MaxBytes int64
}

const defaultMaxBytes = 64 << 20

// Get fetches url and returns the body. Transient failures are retried
// according to opts; zero fields take their value from [DefaultBackoff].
func Get(ctx context.Context, client *http.Client, url string, opts Options) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	b := Backoff{Attempts: opts.Attempts, Delay: opts.Delay, MaxDelay: opts.MaxDelay}
	if b.Attempts == 0 {
		b.Attempts = DefaultBackoff.Attempts
	}
	if b.Delay == 0 {
		b.Delay = DefaultBackoff.Delay
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = defaultMaxBytes
	}

	var body []byte
	err := b.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return Retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &StatusError{URL: url, StatusCode: resp.StatusCode}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return RetryAfter(serr, retryAfter(resp.Header.Get("Retry-After")))
			}
			return serr
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes))
		if err != nil {
			return Retryable(fmt.Errorf("read body: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// retryAfter parses a Retry-After header given in seconds. HTTP dates and
// garbage yield zero.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
