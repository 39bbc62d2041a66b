// Package dataregister fetches park records from the BC Parks Data Register API.
package dataregister

import (
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

	"github.com/eapache/go-resiliency/retrier"
)

// Defaults for the Data Register API.
const (
	DefaultEndpoint   = "https://dev-data.bcparks.ca/api"
	NamesPath         = "/parks/names"
	StatusEstablished = "established"
)

// ErrUnexpectedStatus is returned for a non-2xx response.
var ErrUnexpectedStatus = errors.New("dataregister: unexpected response status")

// StatusError is returned when the Data Register answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dataregister: received status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Record is one park as returned by the Data Register.
type Record map[string]any

// ID returns the record's identifier (its "pk" field).
func (r Record) ID() string {
	id, _ := r["pk"].(string)
	return id
}

// Client calls the Data Register API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	retrier  *retrier.Retrier
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithBackoff sets the delays between retries of transient failures.
func WithBackoff(backoff []time.Duration) Option {
	return func(cl *Client) {
		cl.retrier = retrier.New(backoff, transientClassifier{})
	}
}

// NewClient creates a Client for endpoint (DefaultEndpoint when empty).
func NewClient(endpoint, apiKey string, logger *slog.Logger, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		retrier:  retrier.New(retrier.ExponentialBackoff(3, 500*time.Millisecond), transientClassifier{}),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Data struct {
		Items []Record `json:"items"`
	} `json:"data"`
}

// Fetch returns the park names with the given status.
// Transport errors and 5xx responses are retried; other failures are returned at once.
func (c *Client) Fetch(ctx context.Context, status string) ([]Record, error) {
	u := c.endpoint + NamesPath
	if status != "" {
		u += "?" + url.Values{"status": {status}}.Encode()
	}

	var body []byte
	attempt := 0
	err := c.retrier.RunCtx(ctx, func(ctx context.Context) error {
		attempt++
		var err error
		body, err = c.get(ctx, u)
		if err != nil {
			c.logger.Warn("data register request failed", "url", u, "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch data register records: %w", err)
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode data register response: %w", err)
	}

	c.logger.Info("data register records fetched", "status", status, "count", len(resp.Data.Items))
	return resp.Data.Items, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "None")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// transientClassifier retries everything except 4xx responses and cancellation.
type transientClassifier struct{}

func (transientClassifier) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retrier.Fail
	}
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode < 500 {
		return retrier.Fail
	}
	return retrier.Retry
}
