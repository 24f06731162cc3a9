package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient wraps an http.Client with per-attempt timeouts, retries on
// transport errors and 5xx responses, and a circuit breaker.
type HTTPClient struct {
	Client      *http.Client
	Breaker     *Breaker
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
	Timeout     time.Duration
}

// Do sends req, retrying up to MaxAttempts. Requests with a body must set
// GetBody so the body can be replayed.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	attempts := cl.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil && attempts > 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
			return nil, ErrOpenCircuit
		}
		attemptReq, err := cloneForAttempt(ctx, req, attempt)
		if err != nil {
			return nil, err
		}
		resp, err := cl.doOnce(attemptReq)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			cl.report(ctx, true)
			return resp, nil
		}
		cl.report(ctx, false)
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("upstream status %s", resp.Status)
			_ = resp.Body.Close()
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(Backoff(cl.BaseBackoff, attempt, cl.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (cl HTTPClient) report(ctx context.Context, success bool) {
	if cl.Breaker != nil {
		cl.Breaker.Report(ctx, success)
	}
}

func (cl HTTPClient) doOnce(req *http.Request) (*http.Response, error) {
	if cl.Timeout <= 0 {
		return cl.Client.Do(req)
	}
	ctx, cancel := context.WithTimeout(req.Context(), cl.Timeout)
	resp, err := cl.Client.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func cloneForAttempt(ctx context.Context, req *http.Request, attempt int) (*http.Request, error) {
	clone := req.Clone(ctx)
	if attempt > 1 && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}
