package resilience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// maxRetryAfter caps how long a Retry-After header can hold a retry back.
const maxRetryAfter = 2 * time.Second

// StatusError is a retryable upstream response (5xx or 429) that used up the attempts.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "resilience: upstream responded " + e.Status
}

// HTTPClient sends requests to one upstream with per-attempt timeouts,
// exponential backoff and a circuit breaker. It is safe to copy.
type HTTPClient struct {
	Client *http.Client
	// Breaker is shared by all calls to Target; nil disables it.
	Breaker     *Breaker
	Target      string
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
	// Timeout bounds each attempt, including reading the body.
	Timeout time.Duration
}

// Do sends req up to MaxAttempts times. Network errors, 5xx and 429 are
// retried and count as breaker failures; any other response is returned to
// the caller. The body is buffered so it can be replayed.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	body, err := bufferBody(req)
	if err != nil {
		return nil, fmt.Errorf("resilience: read request body: %w", err)
	}
	attempts := max(cl.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
			cl.count("rejected")
			if lastErr != nil {
				return nil, fmt.Errorf("%w (last error: %v)", ErrOpenCircuit, lastErr)
			}
			return nil, ErrOpenCircuit
		}

		resp, err := cl.send(ctx, req, body)
		if err == nil && !retryable(resp.StatusCode) {
			cl.report(ctx, true)
			cl.count("ok")
			return resp, nil
		}

		wait := Backoff(cl.BaseBackoff, attempt, cl.Jitter)
		if err != nil {
			lastErr = err
		} else {
			lastErr = &StatusError{Code: resp.StatusCode, Status: resp.Status}
			if d, ok := retryAfter(resp); ok && d > wait {
				wait = d
			}
			discard(resp)
		}
		cl.report(ctx, false)
		cl.count("error")

		if attempt == attempts {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (cl HTTPClient) send(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if cl.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, cl.Timeout)
	}
	out := req.Clone(attemptCtx)
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(body)), nil }
	}
	resp, err := cl.Client.Do(out)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (cl HTTPClient) report(ctx context.Context, ok bool) {
	if cl.Breaker != nil {
		cl.Breaker.Report(ctx, ok)
	}
}

func (cl HTTPClient) count(result string) {
	if UpstreamAttempts == nil {
		return
	}
	target := cl.Target
	if target == "" {
		target = "default"
	}
	UpstreamAttempts.WithLabelValues(target, result).Inc()
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// retryAfter reads a Retry-After header given in seconds, capped at maxRetryAfter.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}
	return min(time.Duration(secs)*time.Second, maxRetryAfter), true
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	src := req.Body
	if req.GetBody != nil {
		fresh, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
		src = fresh
	}
	defer src.Close()
	return io.ReadAll(src)
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// cancelOnClose keeps the attempt context alive until the body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
