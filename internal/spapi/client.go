// Package spapi talks to the Amazon Selling Partner API: report jobs,
// report documents and vendor purchase orders.
package spapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/retry"
)

const (
	DefaultEndpoint      = "https://sellingpartnerapi-na.amazon.com"
	DefaultMarketplaceID = "ATVPDKIKX0DER"

	defaultPollInterval = 3 * time.Second
	defaultMaxAttempts  = 3
	defaultBackoffStep  = 2 * time.Second
)

type Options struct {
	Endpoint      string
	MarketplaceID string
	HTTPClient    *http.Client
	// Limiter paces every SP-API request. Presigned document downloads are not paced.
	Limiter *rate.Limiter
	Logger  *zap.Logger

	PollInterval    time.Duration
	MaxAttempts     int
	BackoffStep     time.Duration
	DistributorView string
	SellingProgram  string
}

type Client struct {
	endpoint        string
	marketplaceID   string
	httpClient      *http.Client
	limiter         *rate.Limiter
	logger          *zap.Logger
	retry           retry.Policy
	pollInterval    time.Duration
	distributorView string
	sellingProgram  string
	now             func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.MarketplaceID == "" {
		opts.MarketplaceID = DefaultMarketplaceID
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BackoffStep <= 0 {
		opts.BackoffStep = defaultBackoffStep
	}

	c := &Client{
		endpoint:        strings.TrimRight(opts.Endpoint, "/"),
		marketplaceID:   opts.MarketplaceID,
		httpClient:      opts.HTTPClient,
		limiter:         opts.Limiter,
		logger:          opts.Logger,
		pollInterval:    opts.PollInterval,
		distributorView: opts.DistributorView,
		sellingProgram:  opts.SellingProgram,
		now:             time.Now,
	}
	c.retry = retry.Policy{
		MaxAttempts: opts.MaxAttempts,
		Backoff:     retry.Linear(opts.BackoffStep),
		Retryable:   IsTransportError,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			c.logger.Warn("retrying SP-API request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		},
	}
	return c
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 300 }

// send performs one logical request under the retry policy. Only failures to
// obtain or read a response are retried; any HTTP status is returned as is.
func (c *Client) send(ctx context.Context, op, method, rawURL, accessToken string, payload []byte, paced bool) (*response, error) {
	var resp *response
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if paced && c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return fmt.Errorf("%s: failed to build request: %w", op, err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if accessToken != "" {
			req.Header.Set("x-amz-access-token", accessToken)
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Op: op, Err: err}
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
		}
		resp = &response{status: httpResp.StatusCode, body: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// getJSON issues an authenticated GET against the API and decodes a 2xx body into out
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, accessToken string, out any) error {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	resp, err := c.send(ctx, op, http.MethodGet, u, accessToken, nil, true)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return newAPIError(op, resp.status, resp.body)
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
