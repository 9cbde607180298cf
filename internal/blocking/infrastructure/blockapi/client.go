// Package blockapi is the REST client for the scheduling block endpoints.
package blockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/felixgeelhaar/salonops/pkg/observability"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	blockPath    = "/scheduling/block/"
	bookingsPath = "/scheduling/appointments/professional/"

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

// BreakerConfig configures the circuit breaker around API calls.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Config configures the client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	RateBurst int
	Breaker   BreakerConfig
}

// Client talks to the Block API. It is safe for concurrent use; the breaker
// and limiter are shared by every caller.
type Client struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]byte]
	metrics   observability.Metrics
	logger    *slog.Logger
}

// NewClient creates a Block API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   cfg.Timeout,
		transport: http.DefaultTransport,
		metrics:   observability.NoopMetrics{},
		logger:    logger,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	threshold := cfg.Breaker.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "block-api",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client errors are answers, not outages.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			c.metrics.Counter(observability.MetricAPIBreakerChange, 1, observability.T("to", to.String()))
		},
	})
	return c
}

// WithTransport replaces the base HTTP transport.
func (c *Client) WithTransport(rt http.RoundTripper) *Client {
	if rt != nil {
		c.transport = rt
	}
	return c
}

// WithMetrics sets the metrics collector.
func (c *Client) WithMetrics(m observability.Metrics) *Client {
	if m != nil {
		c.metrics = m
	}
	return c
}

// ListBlocks returns every block of a professional.
func (c *Client) ListBlocks(ctx context.Context, session application.Session, professionalID string) ([]domain.ScheduleBlock, error) {
	body, err := c.do(ctx, session, http.MethodGet, blockPath+url.PathEscape(professionalID), nil)
	if err != nil {
		return nil, err
	}
	blocks, err := decodeBlocks(body)
	if err != nil {
		return nil, fmt.Errorf("decode blocks: %w", err)
	}
	return blocks, nil
}

// CreateBlock posts a single block.
func (c *Client) CreateBlock(ctx context.Context, session application.Session, rule domain.SingleRule) (*domain.ScheduleBlock, error) {
	body, err := c.do(ctx, session, http.MethodPost, blockPath, toSinglePayload(rule))
	if err != nil {
		return nil, err
	}
	block, err := decodeBlock(body)
	if err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	return block, nil
}

// CreateRecurring posts a recurring rule. The server expands it and reports
// how many blocks it created and skipped.
func (c *Client) CreateRecurring(ctx context.Context, session application.Session, rule domain.RecurringRule) (*application.RecurringSummary, error) {
	body, err := c.do(ctx, session, http.MethodPost, blockPath, toRecurringPayload(rule))
	if err != nil {
		return nil, err
	}
	summary, err := decodeSummary(body)
	if err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}

// UpdateBlock patches the mutable fields of a block, retrying once with PUT
// when the server does not allow PATCH.
func (c *Client) UpdateBlock(ctx context.Context, session application.Session, update domain.BlockUpdate) (*domain.ScheduleBlock, error) {
	path := blockPath + url.PathEscape(update.BlockID)
	payload := toUpdatePayload(update)

	body, err := c.do(ctx, session, http.MethodPatch, path, payload)
	if IsStatus(err, http.StatusMethodNotAllowed) {
		c.logger.DebugContext(ctx, "patch not allowed, retrying with put", "block_id", update.BlockID)
		body, err = c.do(ctx, session, http.MethodPut, path, payload)
	}
	if err != nil {
		return nil, err
	}

	block, err := decodeBlock(body)
	if err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	return block, nil
}

// DeleteBlock removes a block.
func (c *Client) DeleteBlock(ctx context.Context, session application.Session, blockID string) error {
	_, err := c.do(ctx, session, http.MethodDelete, blockPath+url.PathEscape(blockID), nil)
	if IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %s", application.ErrBlockNotFound, err)
	}
	return err
}

// BookingsFor returns a professional's appointments on one date.
func (c *Client) BookingsFor(ctx context.Context, session application.Session, professionalID string, date time.Time) ([]domain.Booking, error) {
	query := url.Values{}
	query.Set("fecha", domain.FormatDate(date))
	path := bookingsPath + url.PathEscape(professionalID) + "?" + query.Encode()

	body, err := c.do(ctx, session, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	bookings, err := decodeBookings(body)
	if err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

// Ping checks that the API answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+blockPath, nil)
	if err != nil {
		return err
	}
	resp, err := (&http.Client{Timeout: c.timeout, Transport: c.transport}).Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, session application.Session, method, path string, payload any) ([]byte, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
	}

	endpoint := strings.SplitN(path, "?", 2)[0]
	tags := []observability.Tag{observability.T("method", method)}
	c.metrics.Counter(observability.MetricAPIRequests, 1, tags...)

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(ctx, session, method, path, encoded)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.Counter(observability.MetricAPIErrors, 1, append(tags, observability.T("reason", "circuit_open"))...)
		return nil, ErrCircuitOpen
	}
	if err != nil {
		c.metrics.Counter(observability.MetricAPIErrors, 1, tags...)
		c.logger.DebugContext(ctx, "block api call failed", "method", method, "path", endpoint, "error", err)
		return nil, err
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, session application.Session, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient(session).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method:     method,
			Path:       strings.SplitN(path, "?", 2)[0],
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(body),
		}
	}
	return body, nil
}

// httpClient builds a client for one session. The bearer token comes from the
// session itself; there is no refresh flow.
func (c *Client) httpClient(session application.Session) *http.Client {
	var transport http.RoundTripper = &requestIDTransport{base: c.transport}
	if session.AccessToken != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: session.AccessToken,
				TokenType:   "Bearer",
			}),
			Base: transport,
		}
	}
	return &http.Client{Timeout: c.timeout, Transport: transport}
}

type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := observability.RequestIDFromContext(req.Context())
	if id == "" {
		id = uuid.New().String()
	}
	req = req.Clone(req.Context())
	req.Header.Set("X-Request-ID", id)
	return t.base.RoundTrip(req)
}
