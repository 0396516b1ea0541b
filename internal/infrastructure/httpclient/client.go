package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/resilience"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "FlowGallery-HTTP/1.0"

// ErrUnavailable is returned when the breaker rejects a call without trying it
var ErrUnavailable = errors.New("upstream unavailable")

// errServerStatus marks 5xx responses as breaker failures; callers still get the response
var errServerStatus = errors.New("upstream server error")

// Config configures a Client
type Config struct {
	// Name identifies the upstream in logs and breaker callbacks
	Name    string
	BaseURL string
	Timeout time.Duration
	// Retries is the retry budget of the transport; zero means one attempt
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second; zero or less is unlimited
	RateLimit float64
	// BodyLimit caps response bodies in bytes; zero or less is unlimited
	BodyLimit int
	Breaker   resilience.Settings
	Logger    *zap.Logger
}

// DefaultConfig returns settings suited to external APIs
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		Timeout:      30 * time.Second,
		Retries:      0,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		Breaker: resilience.Settings{
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5 ||
					(counts.Requests >= 20 && counts.FailureRatio() > 0.7)
			},
		},
	}
}

// Client wraps resty with a retrying transport, rate limiter and circuit breaker
type Client struct {
	name    string
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// New creates a client from cfg
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("upstream", cfg.Name))

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = leveledLogger{logger.Sugar()}

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetResponseBodyLimit(cfg.BodyLimit).
		SetLogger(logger.Sugar())
	if cfg.BaseURL != "" {
		restyClient.SetBaseURL(cfg.BaseURL)
	}

	settings := cfg.Breaker
	onStateChange := settings.OnStateChange
	settings.OnStateChange = func(name string, from, to resilience.State) {
		logger.Warn("circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
		if onStateChange != nil {
			onStateChange(name, from, to)
		}
	}
	settings.IsFailure = isFailure

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		name:    cfg.Name,
		resty:   restyClient,
		limiter: limiter,
		breaker: resilience.New(cfg.Name, settings),
		logger:  logger,
	}
}

// Name returns the upstream name
func (c *Client) Name() string {
	return c.name
}

// Do waits for the rate limiter, then runs fn through the circuit breaker.
// Responses with any status are returned to the caller; 5xx responses and
// transport errors count as breaker failures.
func (c *Client) Do(ctx context.Context, fn func(req *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var resp *resty.Response
	err := c.breaker.Execute(func() error {
		r, err := fn(c.resty.R().SetContext(ctx))
		resp = r
		if err != nil {
			return err
		}
		if r.StatusCode() >= http.StatusInternalServerError {
			return errServerStatus
		}
		return nil
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return nil, fmt.Errorf("%s: %w: %w", c.name, ErrUnavailable, err)
	case errors.Is(err, errServerStatus):
		return resp, nil
	case err != nil:
		return nil, err
	}
	return resp, nil
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// BreakerCounts returns the circuit breaker counts
func (c *Client) BreakerCounts() resilience.Counts {
	return c.breaker.Counts()
}

func isFailure(err error) bool {
	if err == nil {
		return false
	}
	// caller cancellations and oversized bodies say nothing about upstream health
	return !errors.Is(err, context.Canceled) && !errors.Is(err, resty.ErrResponseBodyTooLarge)
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
