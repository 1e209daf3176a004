package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"igharvest/pkg/config"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/ratelimit"
	"igharvest/pkg/retry"
)

// DefaultUserAgent is sent when the configuration does not override it
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Client represents an Instagram web API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
	limiter    *ratelimit.Controller
	retry      *retry.Config

	mu       sync.RWMutex
	username string
	userID   string
}

// NewClient creates a client with default rate limits and retries
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	cfg := config.DefaultConfig()
	cfg.Instagram.RequestTimeout = timeout
	return NewClientWithConfig(cfg, log)
}

// NewClientWithConfig creates a client from the application configuration
func NewClientWithConfig(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	userAgent := cfg.Instagram.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	// cookiejar.New only fails on a bad PublicSuffixList, and nil is valid
	jar, _ := cookiejar.New(nil)

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Instagram.RequestTimeout,
			Jar:     jar,
		},
		headers: map[string]string{
			"User-Agent":       userAgent,
			"Accept":           "*/*",
			"Accept-Language":  "en-US,en;q=0.9",
			"Cache-Control":    "no-cache",
			"Pragma":           "no-cache",
			"Sec-Fetch-Dest":   "empty",
			"Sec-Fetch-Mode":   "cors",
			"Sec-Fetch-Site":   "same-origin",
			"X-IG-App-ID":      WebAppID,
			"X-Requested-With": "XMLHttpRequest",
		},
		baseURL: BaseURL,
		logger:  log.WithField("component", "instagram"),
		limiter: ratelimit.NewController(cfg.RateLimit),
		retry:   retry.FromSettings(cfg.Retry, log),
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, value := range headers {
		c.headers[key] = value
	}
}

// doRequest performs an HTTP request, filling in configured headers the request does not set
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	c.mu.RLock()
	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}
	c.mu.RUnlock()

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, 0, "network error")
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// get sends one throttled GET request and checks its status
func (c *Client) get(ctx context.Context, kind ratelimit.Kind, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx, kind); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeUnknown, 0, "failed to create request")
	}
	if kind == ratelimit.KindMedia {
		// CDN hosts reject the API headers' Sec-Fetch-Site value
		req.Header.Set("Sec-Fetch-Site", "cross-site")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// GetJSON performs a throttled, retried GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, kind ratelimit.Kind, rawURL string, target interface{}) error {
	return retry.Do(ctx, c.retry, func(ctx context.Context) error {
		resp, err := c.get(ctx, kind, rawURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return errs.Wrap(err, errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body")
		}
		return c.decode(rawURL, resp.StatusCode, body, target)
	})
}

func (c *Client) decode(rawURL string, status int, body []byte, target interface{}) error {
	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          rawURL,
			"status":       status,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.Wrap(err, errs.ErrorTypeParsing, status, "failed to parse JSON")
	}
	return nil
}

// graphQL runs a persisted query and decodes its data object into target
func (c *Client) graphQL(ctx context.Context, queryHash string, variables map[string]interface{}, target interface{}) error {
	rawURL, err := GraphQLURL(c.baseURL, queryHash, variables)
	if err != nil {
		return errs.Wrap(err, errs.ErrorTypeUnknown, 0, "failed to build query")
	}

	var envelope graphQLResponse
	if err := c.GetJSON(ctx, ratelimit.KindGraphQL, rawURL, &envelope); err != nil {
		return err
	}
	if envelope.Status != "" && envelope.Status != "ok" {
		return errs.New(errs.ErrorTypeServerError, 0, "query %s answered status %q", queryHash, envelope.Status)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return errs.New(errs.ErrorTypeNotFound, http.StatusNotFound, "query %s returned no data", queryHash)
	}
	return c.decode(rawURL, http.StatusOK, envelope.Data, target)
}

// Fetch downloads the body of a media URL
func (c *Client) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	return retry.DoWithResult(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		resp, err := c.get(ctx, ratelimit.KindMedia, mediaURL)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeNetwork, resp.StatusCode, "failed to read media body")
		}
		return data, nil
	})
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	fields := map[string]interface{}{"status": resp.StatusCode}
	if resp.Request != nil {
		fields["url"] = resp.Request.URL.String()
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return errs.New(errs.ErrorTypeAuth, resp.StatusCode, "authentication required")
	case resp.StatusCode == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errs.New(errs.ErrorTypeNotFound, resp.StatusCode, "resource not found")
	case resp.StatusCode == http.StatusTooManyRequests:
		logger.LogRateLimit(c.logger, "http", 0)
		return errs.New(errs.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded")
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", fields)
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "server error")
	case resp.StatusCode >= 400:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return errs.New(errs.ErrorTypeUnknown, resp.StatusCode, "unexpected status code: %d", resp.StatusCode)
	default:
		return nil
	}
}

// baseHost is the cookie scope of the API
func (c *Client) baseHost() *url.URL {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		panic(fmt.Sprintf("instagram: invalid base URL %q: %v", c.baseURL, err))
	}
	return u
}
