// Package transport sends embedding API requests with retries.
//
// Requests that fail with a network error, 429 or a 5xx status are retried
// with exponential backoff. Other statuses fail immediately.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/custodia-labs/docqa/internal/logger"
)

// Default retry settings.
const (
	DefaultMaxTries        = 3
	DefaultInitialInterval = 250 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
)

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Service, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client posts JSON requests for one embedding service.
type Client struct {
	// Service names the remote API in errors and logs ("openai", "ollama").
	Service string

	HTTP *http.Client

	// Header is applied to every request.
	Header http.Header

	// MaxTries is the total number of attempts. Values below 1 mean one attempt.
	MaxTries uint

	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
}

// New creates a client with default retry settings.
func New(service string, timeout time.Duration) *Client {
	return &Client{
		Service:         service,
		HTTP:            &http.Client{Timeout: timeout},
		Header:          make(http.Header),
		MaxTries:        DefaultMaxTries,
		InitialInterval: DefaultInitialInterval,
	}
}

// PostJSON marshals body, posts it to url and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Service, err)
	}
	return nil
}

// Get issues a GET request and discards a successful body.
func (c *Client) Get(ctx context.Context, url string) error {
	_, err := c.do(ctx, http.MethodGet, url, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = DefaultMaxInterval

	tries := c.MaxTries
	if tries < 1 {
		tries = 1
	}

	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		data, err := c.once(ctx, method, url, payload)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return nil, backoff.Permanent(err)
		}
		if attempt < int(tries) {
			logger.Debug("%s request failed (attempt %d/%d): %v", c.Service, attempt, tries, err)
		}
		return nil, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(tries),
	)
}

func (c *Client) once(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%s: create request: %w", c.Service, err))
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: send request: %w", c.Service, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.Service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(data)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{Service: c.Service, StatusCode: resp.StatusCode, Body: msg}
	}
	return data, nil
}
