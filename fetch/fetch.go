package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	pageTimeout  = 20 * time.Second
	imageTimeout = 30 * time.Second

	// MaxImageBytes caps image downloads so a misbehaving source cannot fill
	// the asset store.
	MaxImageBytes = 15 << 20
)

var client = &http.Client{
	Timeout: pageTimeout,
	Transport: &http.Transport{
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Error is a fetch failure. Status is zero for transport-level errors.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth another attempt: timeouts,
// transport errors, 5xx, and 429.
func (e *Error) Retryable() bool {
	if e.Status == 0 {
		return true
	}
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Page GETs a URL following redirects and returns the body. Any non-200 is a
// fetch failure.
func Page(ctx context.Context, url string) ([]byte, error) {
	return get(ctx, url, "")
}

// JSON GETs a URL and decodes the body into out.
func JSON(ctx context.Context, url string, out any) error {
	body, err := get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{URL: url, Err: fmt.Errorf("decode json: %w", err)}
	}
	return nil
}

// Image downloads image bytes with a bounded timeout and size limit.
func Image(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	if len(body) > MaxImageBytes {
		return nil, &Error{URL: url, Err: fmt.Errorf("image exceeds %d bytes", MaxImageBytes)}
	}
	return body, nil
}

func get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", "micmap/1.0")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: url, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	return body, nil
}
