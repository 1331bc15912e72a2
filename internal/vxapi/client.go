// Package vxapi is a GraphQL client for the VX oracle service.
//
// Basic usage:
//
//	c := vxapi.NewClient(vxapi.Options{Endpoint: vxapi.DefaultEndpoint, AppSlug: "bustabit"})
//	rec, err := c.FetchSignedMessage(ctx, 1234, commitment)
package vxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// DefaultEndpoint is the public VX GraphQL endpoint.
const DefaultEndpoint = "https://server.actuallyfair.com/graphql"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Options configures a Client.
type Options struct {
	Endpoint   string
	AppSlug    string
	Timeout    time.Duration // default 30s
	MaxRetries uint64        // 0 disables retries
	UserAgent  string
	HTTPClient *http.Client // overrides Timeout when set
	Logger     *zap.Logger
}

// Client talks to the VX GraphQL API.
type Client struct {
	endpoint   string
	appSlug    string
	userAgent  string
	maxRetries uint64
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client. Requests are traced with otelhttp.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		appSlug:    opts.AppSlug,
		userAgent:  opts.UserAgent,
		maxRetries: opts.MaxRetries,
		httpClient: hc,
		logger:     logger,
	}
}

// Endpoint returns the GraphQL endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// StatusError is returned for non-200 HTTP responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("vxapi: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("vxapi: HTTP %d: %s", e.StatusCode, e.Body)
}

// GraphQLError is returned when the response carries an errors array.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	if len(e.Messages) == 0 {
		return "vxapi: GraphQL error"
	}
	msg := "vxapi: GraphQL error: " + e.Messages[0]
	if len(e.Messages) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(e.Messages)-1)
	}
	return msg
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// do posts a GraphQL request and returns the data member of the response.
// Network errors and 5xx responses are retried up to maxRetries times.
func (c *Client) do(ctx context.Context, req request) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var data json.RawMessage
	op := func() error {
		var err error
		data, err = c.post(ctx, body)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		var ge *GraphQLError
		if errors.As(err, &ge) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("vx request failed, retrying",
			zap.String("operation", req.OperationName),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, body []byte) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response (HTTP %d): %w", httpResp.StatusCode, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: truncate(string(raw), 200)}
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(resp.Errors) > 0 {
		ge := &GraphQLError{}
		for _, e := range resp.Errors {
			ge.Messages = append(ge.Messages, e.Message)
		}
		return nil, ge
	}
	return resp.Data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
