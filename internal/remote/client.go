package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/config"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

// Client talks to the store API and the assistant API. Every transport,
// status or decoding failure is reported as *errors.ErrRemoteUnavailable so
// callers can fall back to cached state.
type Client struct {
	baseURL      string
	assistantURL string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a new remote API client
func NewClient(cfg config.RemoteConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		assistantURL: strings.TrimSuffix(cfg.AssistantBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// StatusError is the cause recorded when the API answers with a non-2xx status
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Code)
	}
	return fmt.Sprintf("HTTP error! status: %d: %s", e.Code, e.Message)
}

// IsRejected reports whether err carries a 4xx answer, meaning the API was
// reachable and refused the request.
func IsRejected(err error) (*StatusError, bool) {
	var remoteErr *apperrors.ErrRemoteUnavailable
	if !errors.As(err, &remoteErr) {
		return nil, false
	}
	var statusErr *StatusError
	if !errors.As(remoteErr.Err, &statusErr) || statusErr.Code < 400 || statusErr.Code >= 500 {
		return nil, false
	}
	return statusErr, true
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) store(path string) string {
	return c.baseURL + path
}

func (c *Client) assistant(path string) string {
	return c.assistantURL + path
}

// do executes a JSON request. body and out may be nil.
func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	data, _, err := c.send(ctx, method, url, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.unavailable(method, url, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, url string, body interface{}) ([]byte, http.Header, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, c.unavailable(method, url, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, c.unavailable(method, url, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			statusErr.Message = eb.Error
		}
		return nil, nil, c.unavailable(method, url, statusErr)
	}

	return data, resp.Header, nil
}

func (c *Client) unavailable(method, url string, err error) error {
	endpoint := method + " " + url
	c.logger.Warn("Remote API call failed",
		zap.String("endpoint", endpoint),
		zap.Error(err),
	)
	return &apperrors.ErrRemoteUnavailable{Endpoint: endpoint, Err: err}
}

// ID accepts both JSON strings and numbers
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}
