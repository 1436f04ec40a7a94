package moderation

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultMaxRetries     = 2
	DefaultRetryDelay     = 200 * time.Millisecond
	DefaultRequestTimeout = 5 * time.Second
)

// retrier bounds a provider call by a timeout and retries transient failures.
type retrier struct {
	maxRetries int
	delay      time.Duration
	timeout    time.Duration
}

func newRetrier(cfg OpenAIConfig) retrier {
	r := retrier{maxRetries: cfg.MaxRetries, delay: cfg.RetryDelay, timeout: cfg.Timeout}
	if r.maxRetries < 0 {
		r.maxRetries = 0
	}
	if r.delay <= 0 {
		r.delay = DefaultRetryDelay
	}
	if r.timeout <= 0 {
		r.timeout = DefaultRequestTimeout
	}
	return r
}

func (r retrier) do(ctx context.Context, call func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return NewProviderError("classify", "moderation request timed out during retry", lastErr)
			case <-time.After(r.delay):
			}
		}

		err := call(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return NewProviderError("classify", "moderation request timed out", err)
		}
		if !retryable(err) {
			break
		}
	}
	return NewProviderError("classify", "moderation request failed", lastErr)
}

// retryable reports whether err is worth another attempt: rate limits,
// server errors and transport failures are; other API errors are not.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
