package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "PhotoVault/1.0"
	DefaultLanguage  = "fr"
	DefaultTimeout   = 5 * time.Second
	DefaultInterval  = 1100 * time.Millisecond

	// zoom 10 resolves to city level.
	defaultZoom = 10
)

// Client is a Nominatim reverse geocoder. Calls share one limiter, so
// concurrent callers are serialized at least one interval apart.
type Client struct {
	baseURL    string
	userAgent  string
	language   string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = strings.TrimSpace(lang)
	}
}

// WithTimeout bounds a single lookup, not including time spent waiting on the limiter.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithInterval sets the minimum spacing between requests. Zero disables pacing.
func WithInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a reverse geocoding client for the Nominatim instance at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("geocode base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse geocode base url: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  DefaultUserAgent,
		language:   DefaultLanguage,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Every(DefaultInterval), 1),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "geocode"))
	return c, nil
}

// Reverse performs one reverse lookup and returns the decoded payload.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*ReverseResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for geocode slot: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint, err := url.Parse(c.baseURL + "/reverse")
	if err != nil {
		return nil, fmt.Errorf("parse geocode url: %w", err)
	}
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("zoom", strconv.Itoa(defaultZoom))
	if c.language != "" {
		params.Set("accept-language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("geocode reverse returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload ReverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("geocode reverse: %s", payload.Error)
	}
	return &payload, nil
}

// ReverseGeocode resolves a coordinate pair to a place label. Any failure is
// logged and reported as absence.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, bool) {
	resp, err := c.Reverse(ctx, lat, lon)
	if err != nil {
		c.logger.Warn("reverse geocoding failed",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err),
		)
		return "", false
	}
	name, ok := PlaceName(resp)
	if !ok {
		c.logger.Debug("reverse geocoding returned no usable place",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
		)
	}
	return name, ok
}
