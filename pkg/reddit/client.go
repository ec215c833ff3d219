package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bottagger/pkg/config"
	errs "bottagger/pkg/errors"
	"bottagger/pkg/logger"
)

// RateLimitResetHeader carries the seconds until Reddit lifts a throttle.
const RateLimitResetHeader = "x-ratelimit-reset"

// maxBodyBytes bounds how much of a response we read.
const maxBodyBytes = 8 << 20

// Client talks to the Reddit profile endpoint and fetches listing pages.
type Client struct {
	httpClient     *http.Client
	headers        map[string]string
	baseURL        string
	requestTimeout time.Duration
	logger         logger.Logger
}

// NewClient creates a client from cfg. When cfg.AccessToken is set requests
// go to the OAuth host with a bearer token.
func NewClient(cfg config.RedditConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{},
		headers: map[string]string{
			"User-Agent":      cfg.UserAgent,
			"Accept":          "application/json, text/html;q=0.9",
			"Accept-Language": "en-US,en;q=0.9",
		},
		baseURL:        cfg.BaseURL,
		requestTimeout: cfg.RequestTimeout,
		logger:         log.WithField("component", "reddit"),
	}
	if c.baseURL == "" {
		c.baseURL = BaseURL
	}
	if cfg.AccessToken != "" {
		c.SetAccessToken(cfg.AccessToken, cfg.OAuthBaseURL)
	}
	return c
}

// SetAccessToken switches the client to OAuth requests against base.
func (c *Client) SetAccessToken(token, base string) {
	if base == "" {
		base = OAuthBaseURL
	}
	c.headers["Authorization"] = "bearer " + token
	c.baseURL = base
}

// BaseURL returns the host profile requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		classified := errs.Classify(err)
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":     req.Method,
			"url":        req.URL.String(),
			"error":      err.Error(),
			"error_type": string(classified.Type),
			"duration":   duration,
		})
		return nil, classified
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// checkResponseStatus maps non-2xx statuses onto typed errors.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		e := errs.New(errs.ErrorTypeRateLimit, code, "rate limit exceeded")
		e.RetryAfter, e.HasRetryAfter = parseRetryAfter(resp.Header.Get(RateLimitResetHeader))
		return e
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errs.New(errs.ErrorTypeAuth, code, "not authorized")
	case code == http.StatusNotFound:
		return errs.New(errs.ErrorTypeNotFound, code, "resource not found")
	case code >= 500:
		return errs.New(errs.ErrorTypeServerError, code, "server error")
	default:
		return errs.New(errs.ErrorTypeUnknown, code, fmt.Sprintf("unexpected status code: %d", code))
	}
}

// parseRetryAfter reads the reset header. Reddit sends whole seconds but
// fractional values are rounded up rather than rejected.
func parseRetryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, false
	}
	return time.Duration(math.Ceil(secs)) * time.Second, true
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errs.Classify(err)
	}
	return body, nil
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.WarnWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse JSON")
	}
	return nil
}

// GetPage fetches a listing page as raw HTML.
func (c *Client) GetPage(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url)
}
