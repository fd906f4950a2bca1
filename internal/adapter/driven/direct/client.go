// Package direct implements the DirectClient port against the Yandex.Direct
// API v5. Every call POSTs a {"method","params"} envelope to a per-resource
// endpoint and receives either a "result" or an "error" envelope; the
// Reports API additionally speaks TSV with HTTP status codes as a readiness
// protocol.
package direct

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/directvault/internal/domain/port/driven"
)

const (
	productionBaseURL = "https://api.direct.yandex.com/json/v5"
	sandboxBaseURL    = "https://api-sandbox.direct.yandex.com/json/v5"
)

// Compile-time interface satisfaction check.
var _ driven.DirectClient = (*Client)(nil)

// Options configures a Client. The zero value yields the production endpoint
// with library defaults for timeouts and report polling.
type Options struct {
	// Sandbox selects the Direct sandbox endpoint.
	Sandbox bool

	// BaseURL overrides the endpoint entirely. Intended for tests with an
	// httptest server; takes precedence over Sandbox.
	BaseURL string

	// HTTPClient overrides the underlying transport. Defaults to a client
	// with Timeout applied.
	HTTPClient *http.Client

	// Timeout bounds a single API call. Defaults to 120s.
	Timeout time.Duration

	// ReportTimeout bounds a single report poll attempt. Defaults to 30s.
	ReportTimeout time.Duration

	// ReportRetries bounds how many times a pending report is re-requested
	// after the initial submission. Zero means the first pending response
	// already times out; negative falls back to the default of 5.
	ReportRetries int

	// ReportInterval is the wait between report polls when the server gives
	// no retryIn hint. Defaults to 2s.
	ReportInterval time.Duration
}

// Client is a stateless Direct API v5 client bound to a single OAuth token.
// The token is a just-decrypted secret scoped to one command; clients are
// constructed per request and discarded with it.
type Client struct {
	httpClient     *http.Client
	reportClient   *http.Client
	baseURL        string
	token          string
	reportRetries  int
	reportInterval time.Duration
}

// NewClient creates a Client authorizing as token.
func NewClient(token string, opts Options) *Client {
	baseURL := productionBaseURL
	if opts.Sandbox {
		baseURL = sandboxBaseURL
	}
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	reportTimeout := opts.ReportTimeout
	if reportTimeout <= 0 {
		reportTimeout = 30 * time.Second
	}

	httpClient := opts.HTTPClient
	reportClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
		reportClient = &http.Client{Timeout: reportTimeout}
	}

	retries := opts.ReportRetries
	if retries < 0 {
		retries = 5
	}
	interval := opts.ReportInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &Client{
		httpClient:     httpClient,
		reportClient:   reportClient,
		baseURL:        baseURL,
		token:          token,
		reportRetries:  retries,
		reportInterval: interval,
	}
}

// APIError is a request rejected by the Direct API, built from its error
// envelope. Message and Details are human-readable and safe to surface to
// the caller as-is.
type APIError struct {
	Code    int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("direct api error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("direct api error %d: %s: %s", e.Code, e.Message, e.Details)
}

// requestEnvelope is the fixed request shape of every non-report call.
type requestEnvelope struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

// responseEnvelope is the tagged response union: exactly one of Result or
// Error is populated. It is decoded once here; nothing downstream re-inspects
// raw JSON for error shapes.
type responseEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *errorBody      `json:"error"`
}

type errorBody struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_string"`
	Details string `json:"error_detail"`
}

// issue is an error or warning attached to a single mutation result entry.
type issue struct {
	Code    int    `json:"Code"`
	Message string `json:"Message"`
	Details string `json:"Details"`
}

// mutationResult is one entry of AddResults/UpdateResults/ModerateResults.
type mutationResult struct {
	ID       int64   `json:"Id"`
	Errors   []issue `json:"Errors"`
	Warnings []issue `json:"Warnings"`
}

// call executes one {method,params} POST against {base}/{service} and
// returns the raw result payload. An error envelope becomes *APIError; a
// success without a result field becomes an empty object.
func (c *Client) call(ctx context.Context, service, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(requestEnvelope{Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal %s.%s request: %w", service, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+service, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s.%s request: %w", service, method, err)
	}
	c.setHeaders(req)

	slog.Debug("direct api call", "service", service, "method", method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", service, method, err)
	}
	defer resp.Body.Close()

	var envelope responseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode %s.%s response: %w", service, method, err)
	}

	if envelope.Error != nil {
		return nil, &APIError{
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
			Details: envelope.Error.Details,
		}
	}

	requestID := resp.Header.Get("RequestId")
	units := resp.Header.Get("Units")
	slog.Debug("direct api ok", "service", service, "method", method, "request_id", requestID, "units", units)

	if len(envelope.Result) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return envelope.Result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept-Language", "ru")
}

// firstMutationResult validates an add/update-style response: there must be
// at least one entry, and an entry-level error becomes *APIError. Warnings
// are non-fatal and only logged.
func firstMutationResult(results []mutationResult, operation string) (mutationResult, error) {
	if len(results) == 0 {
		return mutationResult{}, &APIError{Message: "empty response", Details: operation + " returned no results"}
	}

	first := results[0]
	if len(first.Errors) > 0 {
		e := first.Errors[0]
		return mutationResult{}, &APIError{Code: e.Code, Message: e.Message, Details: e.Details}
	}

	for _, w := range first.Warnings {
		slog.Warn("direct api warning", "operation", operation, "code", w.Code, "message", w.Message, "details", w.Details)
	}

	return first, nil
}

// decodeResult unmarshals a raw result payload into dst.
func decodeResult(raw json.RawMessage, dst any, operation string) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s result: %w", operation, err)
	}
	return nil
}
