package city

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// RetryPolicy bounds how often a remote dataset is requested again.
// Delays double per attempt starting at BaseDelay, capped by MaxDelay.
type RetryPolicy struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << attempt
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		return p.MaxDelay
	}
	return d
}

var (
	errRateLimited    = errors.New("rate limited")
	errServerError    = errors.New("server error")
	errUnexpected     = errors.New("unexpected status code")
	errCircuitOpen    = errors.New("dataset circuit open")
	errBadRetryPolicy = errors.New("invalid retry policy")
)

// remote downloads datasets over HTTP behind a circuit breaker.
type remote struct {
	client  *http.Client
	retry   RetryPolicy
	breaker *gobreaker.CircuitBreaker
}

func newRemote(client *http.Client) *remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &remote{
		client: client,
		retry: RetryPolicy{
			Retries:   3,
			BaseDelay: 500 * time.Millisecond,
			MaxDelay:  5 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "city-dataset",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
	}
}

// get requests url until it answers 2xx, a non-retryable error occurs, the
// retry policy runs out or ctx ends. The caller closes the returned body.
func (r *remote) get(ctx context.Context, url string) (io.ReadCloser, error) {
	if r.retry.Retries < 0 || r.retry.BaseDelay <= 0 {
		return nil, errBadRetryPolicy
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	for attempt := 0; ; attempt++ {
		body, err := r.try(req)
		switch {
		case err == nil:
			return body, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		case errors.Is(err, errUnexpected), attempt >= r.retry.Retries:
			return nil, err
		}

		timer := time.NewTimer(r.retry.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *remote) try(req *http.Request) (io.ReadCloser, error) {
	body, err := r.breaker.Execute(func() (interface{}, error) {
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		if err := statusError(resp.StatusCode); err != nil {
			resp.Body.Close()
			return nil, err
		}
		return resp.Body, nil
	})
	if err != nil {
		return nil, err
	}
	return body.(io.ReadCloser), nil
}

func statusError(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return errRateLimited
	case code >= 500:
		return fmt.Errorf("%w: %d", errServerError, code)
	case code < 200 || code >= 300:
		return fmt.Errorf("%w: %d", errUnexpected, code)
	}
	return nil
}
