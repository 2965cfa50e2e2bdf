package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
	"github.com/itchan-dev/foro/shared/logger"
)

// APIClient struct handles all communication with the forum gateway.
type APIClient struct {
	BaseURL    string
	HttpClient *http.Client
	Retry      RetryPolicy
}

// New creates a client for the gateway at baseURL.
func New(baseURL string, timeout time.Duration, retry RetryPolicy) *APIClient {
	return &APIClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HttpClient: &http.Client{Timeout: timeout},
		Retry:      retry,
	}
}

// do is the single helper for gateway requests. body, when not nil, is sent
// as JSON. Idempotent requests are retried according to c.Retry; the last
// response is returned whatever its status, and the caller closes it.
func (c *APIClient) do(ctx context.Context, method, path string, body any, cookies ...*http.Cookie) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode API request: %w", err)
		}
	}

	var last *http.Response
	attempt := 0
	operation := func() error {
		attempt++
		if last != nil {
			drain(last)
			last = nil
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create API request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for _, cookie := range cookies {
			req.AddCookie(cookie)
		}

		resp, err := c.HttpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		last = resp
		if retryableStatus(resp.StatusCode) {
			return &statusError{code: resp.StatusCode}
		}
		return nil
	}

	var err error
	if retryableMethod(method) {
		err = backoff.RetryNotify(operation, c.Retry.backOff(ctx), func(err error, wait time.Duration) {
			logger.Log.Warn("gateway request failed, retrying",
				"method", method, "path", path, "attempt", attempt, "wait", wait, "error", err)
		})
	} else {
		err = operation()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
	}

	var se *statusError
	if errors.As(err, &se) && last != nil {
		// out of attempts: let the caller map the status
		return last, nil
	}
	if err != nil {
		if last != nil {
			drain(last)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &internal_errors.ErrorWithStatusCode{
			Message:    "backend unavailable",
			StatusCode: http.StatusBadGateway,
			Err:        err,
		}
	}
	return last, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway returned status %d", e.code)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}

// responseError converts a non-2xx response into an ErrorWithStatusCode.
// The gateway's body text is kept in the wrapped error for logs.
func responseError(resp *http.Response, message string, sentinel error) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	detail := strings.TrimSpace(string(bodyBytes))
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	var err error
	if sentinel != nil {
		err = fmt.Errorf("%w: gateway returned %d: %s", sentinel, resp.StatusCode, detail)
	} else {
		err = fmt.Errorf("gateway returned %d: %s", resp.StatusCode, detail)
	}
	return &internal_errors.ErrorWithStatusCode{Message: message, StatusCode: resp.StatusCode, Err: err}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
