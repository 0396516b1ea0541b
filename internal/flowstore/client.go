package flowstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/flowgallery/internal/domain/flow"
	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/httpclient"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	apiKeyHeader = "x-api-key"
	flowsPath    = "/FLOWS/{id}"
	maxBodySize  = 5 << 20
)

// Config configures a Client
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retries int
}

// Recorder receives fetch outcomes
type Recorder interface {
	RecordTemplateFetch(outcome string, duration time.Duration)
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(rec Recorder) Option {
	return func(c *Client) {
		c.recorder = rec
	}
}

// WithHTTPConfig adjusts the underlying HTTP client settings before it is built
func WithHTTPConfig(fn func(*httpclient.Config)) Option {
	return func(c *Client) {
		c.tune = fn
	}
}

// Client reads templates from the flow store
type Client struct {
	baseURL  string
	apiKey   string
	http     *httpclient.Client
	logger   *zap.Logger
	recorder Recorder
	tune     func(*httpclient.Config)
}

// New creates a flow store client
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("flowstore")

	hc := httpclient.DefaultConfig("flow-store")
	hc.BaseURL = c.baseURL
	hc.Retries = cfg.Retries
	hc.BodyLimit = maxBodySize
	hc.Logger = c.logger
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	if c.tune != nil {
		c.tune(&hc)
	}
	c.http = httpclient.New(hc)
	return c
}

// Enabled reports whether the client has a base URL and an API key
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Get fetches and validates the template stored under id
func (c *Client) Get(ctx context.Context, id string) (*flow.Template, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	resp, err := c.http.Do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetHeader(apiKeyHeader, c.apiKey).
			SetHeader("Accept", "application/json").
			SetPathParam("id", id).
			Get(flowsPath)
	})
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrDecode, maxBodySize)
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode())
	}

	tpl, err := flow.Decode(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return tpl, nil
}

// FetchTemplate returns the template stored under id, or false on any failure
func (c *Client) FetchTemplate(ctx context.Context, id string) (*flow.Template, bool) {
	start := time.Now()
	tpl, err := c.Get(ctx, id)
	kind := Kind(err)
	if c.recorder != nil {
		c.recorder.RecordTemplateFetch(kind, time.Since(start))
	}

	switch {
	case err == nil:
		c.logger.Debug("fetched template",
			zap.String("template_id", id),
			zap.String("name", tpl.Name),
			zap.Duration("duration", time.Since(start)))
		return tpl, true
	case errors.Is(err, ErrDisabled):
		c.logger.Debug("flow store disabled, skipping fetch", zap.String("template_id", id))
	default:
		c.logger.Warn("template fetch failed",
			zap.String("template_id", id),
			zap.String("kind", kind),
			zap.Error(err))
	}
	return nil, false
}
