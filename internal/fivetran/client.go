// Package fivetran is a minimal authenticated client for the Fivetran
// HVR 6.0 REST API. It performs single round trips with basic auth and
// reports every failure as a *TransportError; response interpretation
// belongs to the caller.
package fivetran

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hvr-ops/hvr-manager/internal/metrics"
)

const (
	// DefaultBaseURL is the fixed production endpoint of the Fivetran API.
	DefaultBaseURL = "https://api.fivetran.com/v1"

	// DefaultTimeout bounds every round trip.
	DefaultTimeout = 30 * time.Second

	maxResponseBodySize = 4 << 20
)

// Credential is an opaque API key/secret pair. It deliberately has no
// printable representation so it cannot leak through logs or %v formatting.
type Credential struct {
	key    string
	secret string
}

// NewCredential builds a credential from a key/secret pair.
func NewCredential(key, secret string) Credential {
	return Credential{key: strings.TrimSpace(key), secret: strings.TrimSpace(secret)}
}

// IsZero reports whether either half of the pair is missing.
func (c Credential) IsZero() bool {
	return c.key == "" || c.secret == ""
}

func (c Credential) String() string { return "fivetran.Credential(redacted)" }

func (c Credential) GoString() string { return "fivetran.Credential(redacted)" }

// TransportError is the single failure type raised by the client: any
// network-level failure, timeout, or non-2xx HTTP status. StatusCode is zero
// when the request never produced a response.
type TransportError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fivetran api: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return "fivetran api: " + e.Message
}

// Client issues authenticated requests against a fixed base endpoint. It
// holds no state beyond the immutable credential and is safe for concurrent
// use.
type Client struct {
	baseURL string
	cred    Credential
	http    *http.Client
}

// Options tunes client construction; zero values select the defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New creates a Fivetran API client for the given credential.
func New(cred Credential) (*Client, error) {
	return NewWithOptions(cred, Options{})
}

// NewWithOptions creates a client with explicit base URL, timeout, or HTTP
// client overrides.
func NewWithOptions(cred Credential, opts Options) (*Client, error) {
	if cred.IsZero() {
		return nil, errors.New("fivetran api key and secret are required")
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: base, cred: cred, http: httpClient}, nil
}

// BaseURL returns the endpoint the client is bound to.
func (c *Client) BaseURL() string { return c.baseURL }

// Do performs one authenticated round trip and returns the raw JSON response
// body. path is relative to the base endpoint; body, when non-nil, is
// serialized as the JSON request payload. Any non-2xx status or network
// failure yields a *TransportError.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	requestID := uuid.NewString()

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cred.key, c.cred.secret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hvr-manager")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, "error").Inc()
		slog.Debug("fivetran request failed", "method", method, "path", path, "request_id", requestID, "err", err)
		return nil, &TransportError{Message: reduceTransportCause(err), RequestID: requestID}
	}
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	resp.Body.Close()
	metrics.APIRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.APIRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if readErr != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: readErr.Error(), RequestID: requestID}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("fivetran request rejected", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Message:    extractAPIErrorMessage(resp.Status, respBody),
			RequestID:  requestID,
		}
	}

	slog.Debug("fivetran request ok", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
	return respBody, nil
}

// reduceTransportCause trims the noisy url.Error prefix (method plus full
// request URL, credentials excluded) down to the underlying cause.
func reduceTransportCause(err error) string {
	if err == nil {
		return "request failed"
	}
	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		return unwrapped.Error()
	}
	return err.Error()
}

// extractAPIErrorMessage pulls the short error description out of the
// Fivetran error envelope, falling back to the HTTP status line.
func extractAPIErrorMessage(statusLine string, body []byte) string {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		msg := strings.TrimSpace(payload.Message)
		code := strings.TrimSpace(payload.Code)
		if msg != "" && code != "" {
			return code + ": " + msg
		}
		if msg != "" {
			return msg
		}
		if code != "" {
			return code
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" || strings.HasPrefix(msg, "<!DOCTYPE html") || strings.HasPrefix(msg, "<html") {
		return strings.TrimSpace(statusLine)
	}
	msg = strings.Join(strings.Fields(msg), " ")
	const maxLen = 300
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "..."
	}
	return msg
}
