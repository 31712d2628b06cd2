package xclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound means the requested account or tweet does not exist (or is no longer visible).
	ErrNotFound = errors.New("x api: not found")
	// ErrUnauthorized means the credentials were rejected.
	ErrUnauthorized = errors.New("x api: unauthorized")
)

// RateLimitError is returned on HTTP 429. RetryAfter is zero when the platform gave no hint.
type RateLimitError struct {
	Endpoint   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("x api %s: rate limited, retry after %s", e.Endpoint, e.RetryAfter)
	}
	return fmt.Sprintf("x api %s: rate limited", e.Endpoint)
}

// StatusError is any other upstream failure.
type StatusError struct {
	Endpoint string
	Code     int
	Detail   string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("x api %s: status %d: %s", e.Endpoint, e.Code, e.Detail)
	}
	return fmt.Sprintf("x api %s: status %d", e.Endpoint, e.Code)
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// AsRateLimit unwraps a *RateLimitError from err.
func AsRateLimit(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

// retryAfter reads x-rate-limit-reset (epoch seconds) and falls back to Retry-After.
func retryAfter(h http.Header, now time.Time) time.Duration {
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Unix(secs, 0).Sub(now); d > 0 {
				return d.Round(time.Second)
			}
		}
	}
	if ra := h.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		} else if t, err := http.ParseTime(ra); err == nil {
			if d := t.Sub(now); d > 0 {
				return d
			}
		}
	}
	return 0
}

func classifyStatus(endpoint string, resp *http.Response, body []byte, now time.Time) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Endpoint: endpoint, RetryAfter: retryAfter(resp.Header, now)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", endpoint, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	case resp.StatusCode >= 400:
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Detail: snippet(body)}
	}
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

func (p problem) notFound() bool {
	return strings.HasSuffix(p.Type, "/resource-not-found") || p.Title == "Not Found Error"
}

// problemsError maps an errors array returned without data.
func problemsError(endpoint string, ps []problem) error {
	if len(ps) == 0 {
		return fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	}
	for _, p := range ps {
		if p.notFound() {
			return fmt.Errorf("%s: %s: %w", endpoint, p.Detail, ErrNotFound)
		}
	}
	return &StatusError{Endpoint: endpoint, Code: http.StatusOK, Detail: ps[0].Detail}
}
