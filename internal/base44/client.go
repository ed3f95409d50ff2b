package base44

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://app.base44.com/api/apps"
	defaultUserAgent = "mona-concierge/0.1"
)

// ErrNotConfigured indicates the Base44 credentials were not provided at
// startup. Callers treat it as "feature unavailable", never as fatal.
var ErrNotConfigured = errors.New("base44: credentials not configured")

// Config controls how the Base44 entity client behaves.
type Config struct {
	BaseURL    string
	AppID      string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
}

// Client wraps the Base44 entity REST endpoints used by the concierge:
// listing entities with best-effort filters and patching single records.
type Client struct {
	appID      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	userAgent  string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AppID) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		appID:      cfg.AppID,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// List fetches entity records matching the given filter params. Filter
// semantics are best-effort on the Base44 side; callers must tolerate empty
// or partial results and filter client-side when exactness matters.
func List[T any](ctx context.Context, c *Client, entity string, params map[string]string) ([]T, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(entity) == "" {
		return nil, errors.New("base44: entity name required")
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	data, err := c.invoke(ctx, http.MethodGet, "/"+entity, q, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](data)
}

// FindFirst returns the first record matching the targeted params, falling
// back to an unfiltered listing filtered by match. The fallback exists
// because the remote filter is not guaranteed to normalize formatting the
// same way we do. Returns nil when nothing matches.
func FindFirst[T any](ctx context.Context, c *Client, entity string, params map[string]string, match func(T) bool) (*T, error) {
	targeted, err := List[T](ctx, c, entity, params)
	if err != nil {
		return nil, err
	}
	if len(targeted) > 0 {
		return &targeted[0], nil
	}

	all, err := List[T](ctx, c, entity, nil)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if match(all[i]) {
			return &all[i], nil
		}
	}
	return nil, nil
}

// Update patches a single entity record.
func (c *Client) Update(ctx context.Context, entity, id string, patch map[string]any) error {
	if c == nil {
		return ErrNotConfigured
	}
	if strings.TrimSpace(entity) == "" || strings.TrimSpace(id) == "" {
		return errors.New("base44: entity name and id required")
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("base44: marshal patch: %w", err)
	}
	_, err = c.invoke(ctx, http.MethodPut, fmt.Sprintf("/%s/%s", entity, id), nil, body)
	return err
}

func (c *Client) invoke(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	fullURL := c.buildURL(path, query)
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("base44: build request: %w", err)
		}
		req.Header.Set("api_key", c.apiKey)
		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !shouldRetry(0, err) || attempt == c.maxRetries {
				return nil, fmt.Errorf("base44: http error: %w", err)
			}
			lastErr = err
			c.logRetry(path, attempt, 0, err)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("base44: read response: %w", readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return data, nil
		}
		apiErr := decodeAPIError(resp.StatusCode, data)
		if attempt < c.maxRetries && shouldRetry(resp.StatusCode, nil) {
			lastErr = apiErr
			c.logRetry(path, attempt, resp.StatusCode, apiErr)
			if sleepErr := c.sleep(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}
		return nil, apiErr
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("base44: request failed without response")
}

func (c *Client) buildURL(path string, query url.Values) string {
	full := fmt.Sprintf("%s/%s/entities%s", c.baseURL, c.appID, "/"+strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		full = full + "?" + query.Encode()
	}
	return full
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff * time.Duration(1<<attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logRetry(path string, attempt int, status int, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("base44 retry",
		"path", path,
		"attempt", attempt+1,
		"status", status,
		"error", err,
	)
}

func shouldRetry(status int, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		return !errors.Is(err, context.Canceled)
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	if status >= 500 && status <= 599 {
		return true
	}
	return false
}

type apiError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("base44: %s (status=%d)", e.Message, e.StatusCode)
	}
	if e.Detail != "" {
		return fmt.Sprintf("base44: %s (status=%d)", e.Detail, e.StatusCode)
	}
	return fmt.Sprintf("base44: http status %d", e.StatusCode)
}

func decodeAPIError(status int, body []byte) error {
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &apiError{StatusCode: status, Detail: string(body)}
	}
	parsed.StatusCode = status
	return &parsed
}

// decodeList accepts both response shapes Base44 is known to return: a bare
// JSON array or an object wrapping the array under "data".
func decodeList[T any](body []byte) ([]T, error) {
	var direct []T
	if err := json.Unmarshal(body, &direct); err == nil {
		return direct, nil
	}
	var wrapper struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("base44: decode list response: %w", err)
	}
	return wrapper.Data, nil
}
