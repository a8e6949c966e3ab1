// Package inference is the HTTP client for the external text-generation
// endpoint. It speaks the hosted-inference JSON protocol ({"inputs": ...}
// in, generated_text out), retries transient failures with jittered
// exponential backoff, and surfaces HTTP statuses through a typed error so
// callers can classify upstream health.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// StatusError is returned when the endpoint answers with a non-success
// status after retries are exhausted.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference endpoint returned %d: %s", e.Code, e.Body)
}

// HTTPStatus exposes the status code for upstream-health classification.
func (e *StatusError) HTTPStatus() int { return e.Code }

// Client calls the generation endpoint.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option tweaks client construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithMaxRetries sets how many attempts a request gets (minimum 1).
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 1 {
			c.maxRetries = n
		}
	}
}

// WithBaseDelay sets the first backoff delay; later attempts double it.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// New creates a Client for the given endpoint and bearer token.
func New(endpoint, token string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		maxRetries: 5,
		baseDelay:  3 * time.Second,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// request is the endpoint's JSON body. Inputs is a string for single calls
// and a []string for batch calls.
type request struct {
	Inputs     any            `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// GenerateBatch sends all prompts in one call. The response should carry one
// string per prompt but may be shorter when the endpoint truncates; callers
// must treat an undercount as partial failure.
func (c *Client) GenerateBatch(ctx context.Context, prompts []string, params map[string]any) ([]string, error) {
	data, err := c.post(ctx, request{Inputs: prompts, Parameters: params})
	if err != nil {
		return nil, err
	}
	return decodeOutputs(data)
}

// GenerateSingle sends one prompt and returns its generated text.
func (c *Client) GenerateSingle(ctx context.Context, prompt string, params map[string]any) (string, error) {
	data, err := c.post(ctx, request{Inputs: prompt, Parameters: params})
	if err != nil {
		return "", err
	}
	outputs, err := decodeOutputs(data)
	if err != nil {
		return "", err
	}
	if len(outputs) == 0 {
		return "", nil
	}
	return outputs[0], nil
}

// post sends the request, retrying 502/503 and transport errors with
// jittered exponential backoff. Other non-2xx statuses fail immediately
// with a StatusError.
func (c *Client) post(ctx context.Context, reqBody request) (json.RawMessage, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * (1 << (attempt - 1))
			delay += time.Duration(rand.Int63n(int64(time.Second)))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		data, retryable, err := c.attempt(ctx, payload)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("inference request failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) attempt(ctx context.Context, payload []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable:
		// The hosted endpoint answers 502/503 while the model loads.
		return nil, true, &StatusError{Code: resp.StatusCode, Body: truncateBody(body)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, false, &StatusError{Code: resp.StatusCode, Body: truncateBody(body)}
	}
	return json.RawMessage(body), false, nil
}

func truncateBody(b []byte) string {
	const limit = 256
	if len(b) > limit {
		b = b[:limit]
	}
	return string(b)
}

// decodeOutputs extracts generated strings from the endpoint's JSON, which
// may be a list of {"generated_text": ...} objects, a nested list of them,
// a single such object, or bare strings.
func decodeOutputs(data json.RawMessage) ([]string, error) {
	var asList []json.RawMessage
	if err := json.Unmarshal(data, &asList); err == nil {
		outputs := make([]string, 0, len(asList))
		for _, raw := range asList {
			outputs = append(outputs, decodeOne(raw))
		}
		return outputs, nil
	}
	return []string{decodeOne(data)}, nil
}

func decodeOne(raw json.RawMessage) string {
	var obj struct {
		GeneratedText *string `json:"generated_text"`
		Docstring     *string `json:"docstring"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Docstring != nil {
			return *obj.Docstring
		}
		if obj.GeneratedText != nil {
			return *obj.GeneratedText
		}
	}

	// Nested list form: [{"generated_text": ...}, ...] per input.
	var nested []json.RawMessage
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return decodeOne(nested[0])
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
