package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"mercator-hq/courier/pkg/telemetry/tracing"
)

// HTTPClient is the shared HTTP transport for external services. It pools
// connections, retries transient failures and tracks recent health.
type HTTPClient struct {
	config Config
	client *http.Client
	logger *slog.Logger

	health   Health
	healthMu sync.RWMutex
}

// NewHTTPClient creates a client with connection pooling.
func NewHTTPClient(config Config) *HTTPClient {
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}
	if config.MaxIdleConns <= 0 {
		config.MaxIdleConns = 10
	}
	if config.IdleConnTimeout <= 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConns,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPClient{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "providers.http", "provider", config.Name),
		health: Health{
			IsHealthy:             true,
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
	}
}

// Name returns the configured provider name.
func (c *HTTPClient) Name() string {
	return c.config.Name
}

// BaseURL returns the configured base URL.
func (c *HTTPClient) BaseURL() string {
	return c.config.BaseURL
}

// IsHealthy returns the current health status.
func (c *HTTPClient) IsHealthy() bool {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health.IsHealthy
}

// GetHealth returns detailed health information.
func (c *HTTPClient) GetHealth() Health {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

func (c *HTTPClient) updateHealth(success bool, err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.LastCheck = time.Now()
	if success {
		c.health.IsHealthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = nil
		c.health.LastSuccessfulRequest = time.Now()
		return
	}

	c.health.ConsecutiveFailures++
	c.health.LastError = err
	// 3 consecutive failures mark the client unhealthy
	if c.health.ConsecutiveFailures >= 3 && c.health.IsHealthy {
		c.health.IsHealthy = false
		c.logger.Warn("provider marked unhealthy",
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

func (c *HTTPClient) recordRequest(success bool) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.TotalRequests++
	if !success {
		c.health.FailedRequests++
	}
}

// DoRequest performs an HTTP request with retry logic and timeout handling.
// The caller must close the response body on success.
func (c *HTTPClient) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.config.RetryBackoff
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, &TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout, Cause: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		if req.Header.Get("Content-Type") == "" && body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		tracing.Inject(ctx, req.Header)

		c.logger.Debug("sending request to provider", "method", method, "url", url)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = &ProviderError{Provider: c.config.Name, Message: "request failed", Cause: err}
			c.recordRequest(false)

			if ctx.Err() != nil {
				return nil, &TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout, Cause: ctx.Err()}
			}

			c.logger.Warn("request failed, will retry", "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.recordRequest(true)
			c.updateHealth(true, nil)
			return resp, nil
		}

		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		message := Truncate(string(errorBody), 512)

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			c.recordRequest(false)
			c.updateHealth(false, fmt.Errorf("authentication failed"))
			return nil, &AuthError{Provider: c.config.Name, Message: message}

		case http.StatusTooManyRequests:
			c.recordRequest(false)
			return nil, &RateLimitError{
				Provider:   c.config.Name,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    message,
			}

		case http.StatusBadRequest:
			c.recordRequest(false)
			return nil, &ProviderError{Provider: c.config.Name, StatusCode: resp.StatusCode, Message: message}

		default:
			lastErr = &ProviderError{Provider: c.config.Name, StatusCode: resp.StatusCode, Message: message}
			c.recordRequest(false)
			c.logger.Warn("request returned error status, will retry",
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	c.updateHealth(false, lastErr)
	return nil, lastErr
}

// DoJSONRequest performs a JSON request and decodes the response into respBody.
func (c *HTTPClient) DoJSONRequest(ctx context.Context, method, url string, reqBody, respBody any, headers map[string]string) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{Provider: c.config.Name, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    c.config.Name,
				RawResponse: Truncate(string(responseBytes), 512),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}
	return nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}
