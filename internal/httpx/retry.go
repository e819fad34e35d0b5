// Package httpx holds the HTTP plumbing shared by every external API client:
// bounded clients and retry on transient upstream failures.
package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// DefaultTimeout bounds every outbound call that does not set its own.
const DefaultTimeout = 10 * time.Second

const maxDelay = 30 * time.Second

// NewClient returns an http.Client with the given timeout, or DefaultTimeout
// when timeout <= 0.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// DoWithRetry executes a body-less request, retrying on network errors,
// 429 Too Many Requests and 503 Service Unavailable.
//
// Backoff starts at base (500 ms when zero), doubles on each attempt and is
// capped at 30 s. A Retry-After header in seconds replaces the current delay.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, base time.Duration) (*http.Response, error) {
	delay := base
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if attempt == maxRetries {
				return nil, err
			}
			if werr := wait(ctx, delay); werr != nil {
				return nil, werr
			}
			delay = capDelay(delay * 2)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			resp.Body.Close()
			if attempt == maxRetries {
				return nil, fmt.Errorf("HTTP %d after %d retries: %s", resp.StatusCode, maxRetries, req.URL.Redacted())
			}
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
					delay = time.Duration(secs) * time.Second
				}
			}
			if werr := wait(ctx, delay); werr != nil {
				return nil, werr
			}
			delay = capDelay(delay * 2)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %s", req.URL.Redacted())
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func capDelay(d time.Duration) time.Duration {
	if d > maxDelay {
		return maxDelay
	}
	return d
}
