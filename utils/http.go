package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"woo-exporter/internal/types"
)

// HTTPClient provides HTTP functionality with rate limiting and retries.
// Transient network failures and 5xx responses are retried with
// exponential backoff; 4xx client errors are returned immediately.
type HTTPClient struct {
	client  *http.Client
	config  *types.Config
	logger  types.Logger
	limiter *time.Ticker
}

// NewHTTPClient creates a new HTTP client with the given configuration.
func NewHTTPClient(config *types.Config, logger types.Logger) *HTTPClient {
	client := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &HTTPClient{
		client:  client,
		config:  config,
		logger:  logger,
		limiter: time.NewTicker(config.RequestDelay),
	}
}

// ValidateURL checks that rawURL is a well-formed absolute HTTP(S) URL.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("malformed URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL %q must be absolute http(s)", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL %q has no host", rawURL)
	}
	return u, nil
}

// Get performs a GET request with rate limiting and retries.
func (h *HTTPClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if _, err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	var lastErr *types.FetchError

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		// Exponential backoff before each retry attempt
		if attempt > 0 {
			backoff := h.config.RetryBackoff << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		// Wait for rate limiter
		select {
		case <-h.limiter.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", h.config.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")
		req.Header.Set("Connection", "keep-alive")

		h.logger.Debugf("Making request to %s (attempt %d/%d)", rawURL, attempt+1, h.config.MaxRetries+1)

		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = classifyNetworkError(rawURL, err)
			h.logger.Warnf("Request failed (attempt %d): %v", attempt+1, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				lastErr = &types.FetchError{URL: rawURL, Reason: types.FetchNetwork, Err: readErr}
				h.logger.Warnf("Failed to read response body (attempt %d): %v", attempt+1, readErr)
				continue
			}
			h.logger.Debugf("Successfully retrieved %d bytes from %s", len(body), rawURL)
			return body, nil
		}

		lastErr = &types.FetchError{URL: rawURL, Reason: types.FetchHTTPStatus, StatusCode: resp.StatusCode}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors do not get retried
			h.logger.Warnf("Client error %d for %s, not retrying", resp.StatusCode, rawURL)
			return nil, lastErr
		}
		h.logger.Warnf("Server error %d (attempt %d)", resp.StatusCode, attempt+1)
	}

	return nil, lastErr
}

// classifyNetworkError maps a transport error onto the fetch error
// taxonomy.
func classifyNetworkError(rawURL string, err error) *types.FetchError {
	reason := types.FetchNetwork

	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.As(err, &dnsErr):
		reason = types.FetchDNS
	case errors.As(err, &netErr) && netErr.Timeout():
		reason = types.FetchTimeout
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout"):
		reason = types.FetchTimeout
	}

	return &types.FetchError{URL: rawURL, Reason: reason, Err: err}
}

// Close cleans up resources.
func (h *HTTPClient) Close() {
	if h.limiter != nil {
		h.limiter.Stop()
	}
}
