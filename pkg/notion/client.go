// Package notion provides a minimal Notion REST API client and the
// paginated collectors built on top of it.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/notion-picker/pkg/logging"
	"github.com/Sternrassler/notion-picker/pkg/metrics"
)

// Prometheus metrics for Notion API requests.
var (
	notionRequestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "notion_requests_total",
		Help: "Total Notion API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	notionRequestDuration = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notion_request_duration_seconds",
		Help:    "Notion API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	notionErrorsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "notion_errors_total",
		Help: "Total Notion API errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the public Notion API origin.
	DefaultBaseURL = "https://api.notion.com"

	// DefaultVersion is the Notion-Version header sent with every request.
	DefaultVersion = "2022-06-28"

	// MaxPageSize is the largest page size the API accepts.
	MaxPageSize = 100
)

// Endpoint labels used in metrics and logs.
const (
	endpointSearch        = "search"
	endpointQueryDatabase = "databases.query"
)

// Client is the Notion API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Token is the integration secret, sent as a bearer token (REQUIRED).
	Token string

	// BaseURL is the API origin, overridable for tests.
	BaseURL string

	// Version is the Notion-Version header (REQUIRED by the API).
	Version string

	// PageSize is the number of results requested per page (1-100).
	PageSize int

	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// DefaultConfig returns a configuration for the public API.
func DefaultConfig(token string) Config {
	return Config{
		Token:    token,
		BaseURL:  DefaultBaseURL,
		Version:  DefaultVersion,
		PageSize: MaxPageSize,
		Timeout:  30 * time.Second,
	}
}

// New creates a new Notion client.
func New(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required")
	}

	if cfg.Version == "" {
		return nil, fmt.Errorf("notion version is required")
	}

	if cfg.PageSize < 1 || cfg.PageSize > MaxPageSize {
		return nil, fmt.Errorf("page_size must be between 1 and %d (got %d)", MaxPageSize, cfg.PageSize)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		config:     cfg,
		logger:     logging.NewLogger("notion-client"),
	}, nil
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query       string `json:"query,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// QueryRequest is the body of POST /v1/databases/{id}/query.
type QueryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// Search returns one page of pages and databases whose title matches the query.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*ListResponse[Object], error) {
	if req.PageSize == 0 {
		req.PageSize = c.config.PageSize
	}

	var out ListResponse[Object]
	if err := c.post(ctx, endpointSearch, "/v1/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryDatabase returns one page of entries of the given database.
func (c *Client) QueryDatabase(ctx context.Context, id uuid.UUID, req QueryRequest) (*ListResponse[Page], error) {
	if req.PageSize == 0 {
		req.PageSize = c.config.PageSize
	}

	var out ListResponse[Page]
	path := "/v1/databases/" + id.String() + "/query"
	if err := c.post(ctx, endpointQueryDatabase, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// post sends a JSON body and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, endpoint, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	target := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		notionErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Failed to decode Notion response")
		return &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			Message:    "malformed response body",
			Err:        err,
		}
	}

	if v, ok := out.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			notionErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Invalid Notion list response")
			return &APIError{
				StatusCode: resp.StatusCode,
				Class:      ErrorClassDecode,
				Message:    "invalid list response",
				Err:        err,
			}
		}
	}
	return nil
}

// do executes the request with auth headers, metrics and error classification.
// On success the caller owns the response body.
func (c *Client) do(req *http.Request, endpoint string) (*http.Response, error) {
	startTime := time.Now()
	defer func() {
		notionRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Notion-Version", c.config.Version)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing Notion request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := classifyError(nil, err)
		notionErrorsTotal.WithLabelValues(string(class)).Inc()
		notionRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &APIError{Class: class, Message: "request failed", Err: err}
	}

	notionRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		apiErr := decodeError(resp)
		notionErrorsTotal.WithLabelValues(string(apiErr.Class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(apiErr.Class)).
			Str("code", apiErr.Code).
			Msg("Notion request error")
		return nil, apiErr
	}

	return resp, nil
}

// decodeError builds an APIError from an error response, falling back to
// the HTTP status text when the body is not a Notion error object.
func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Class:      classifyError(resp, nil),
		Message:    http.StatusText(resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var wire struct {
		Object  string `json:"object"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &wire) == nil && wire.Object == "error" {
		apiErr.Code = wire.Code
		if wire.Message != "" {
			apiErr.Message = wire.Message
		}
	}
	return apiErr
}

// classifyError categorizes an error for observability and handling.
func classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
