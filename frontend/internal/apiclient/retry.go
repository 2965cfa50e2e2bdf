package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy is applied by every gateway call: at most MaxAttempts
// attempts, the n-th retry waiting n*Step. Only idempotent methods are
// retried, and only on transport errors or 502/503/504.
type RetryPolicy struct {
	MaxAttempts int
	Step        time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: p.Step}, uint64(retries)), ctx)
}

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}

func retryableMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
