// Package immersionkit is a client for the ImmersionKit example-sentence
// catalog. Search results are turned into remote note candidates; their
// media is fetched separately with Download.
package immersionkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultSearchURL = "https://apiv2.immersionkit.com/search"

	defaultTimeout     = 10 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2

	maxMediaSize = 64 << 20
	maxErrorBody = 512
)

// Client interfaces with the catalog search API
type Client struct {
	httpClient *http.Client
	searchURL  string
	retryDelay time.Duration
	validate   *validator.Validate
}

// NewClient creates a catalog client. Every request, including media
// downloads, is bounded by timeout.
func NewClient(searchURL string, timeout time.Duration) *Client {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		searchURL:  searchURL,
		retryDelay: initialRetryDelay,
		validate:   validator.New(),
	}
}

// SearchArgs are the catalog query parameters. Zero values are omitted.
type SearchArgs struct {
	Query      string `json:"q"`
	Category   string `json:"category,omitempty" validate:"omitempty,oneof=anime drama games literature"`
	Sort       string `json:"sort,omitempty" validate:"omitempty,oneof=shortness longness"`
	JLPT       int    `json:"jlpt,omitempty" validate:"omitempty,min=1,max=5"`
	WaniKani   int    `json:"wanikani,omitempty" validate:"omitempty,min=1,max=60"`
	Limit      int    `json:"limit,omitempty" validate:"min=0"`
	Offset     int    `json:"offset,omitempty" validate:"min=0"`
	ExactMatch bool   `json:"exact_match,omitempty"`
}

func (a SearchArgs) values() url.Values {
	q := url.Values{}
	q.Set("q", a.Query)
	if a.Category != "" {
		q.Set("category", a.Category)
	}
	if a.Sort != "" {
		q.Set("sort", a.Sort)
	}
	if a.JLPT > 0 {
		q.Set("jlpt", strconv.Itoa(a.JLPT))
	}
	if a.WaniKani > 0 {
		q.Set("wk", strconv.Itoa(a.WaniKani))
	}
	if a.Limit > 0 {
		q.Set("limit", strconv.Itoa(a.Limit))
	}
	if a.Offset > 0 {
		q.Set("offset", strconv.Itoa(a.Offset))
	}
	if a.ExactMatch {
		q.Set("exactMatch", "true")
	}
	return q
}

// SearchResponse is the body returned by the search endpoint
type SearchResponse struct {
	Examples []Example `json:"examples"`
}

// Validate checks args against the values the catalog accepts.
func (c *Client) Validate(args SearchArgs) error {
	if err := c.validate.Struct(args); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return nil
}

// Search queries the catalog.
func (c *Client) Search(ctx context.Context, args SearchArgs) ([]Example, error) {
	if err := c.Validate(args); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	u.RawQuery = args.values().Encode()

	body, err := c.getWithRetry(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.Examples, nil
}

// Download fetches a media file. Only https links are followed.
func (c *Client) Download(ctx context.Context, mediaURL string) ([]byte, error) {
	if !strings.HasPrefix(mediaURL, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrInsecureURL, mediaURL)
	}
	return c.getWithRetry(ctx, mediaURL)
}

func (c *Client) getWithRetry(ctx context.Context, target string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateRetryDelay(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var body []byte
		body, lastErr = c.doRequest(ctx, target)
		if lastErr == nil {
			return body, nil
		}

		// Only retry on rate limits, server errors and transport failures
		if ctx.Err() != nil || !isRetryableError(lastErr) {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func (c *Client) calculateRetryDelay(attempt int) time.Duration {
	delay := c.retryDelay
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryableError(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
