package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spewpay/walletdash/pkg/walletview"
)

const (
	defaultRequestTimeout = 15 * time.Second

	// Money-moving submissions retry transient transport failures a
	// bounded number of times, always with the same idempotency key.
	maxMoneyMoveAttempts = 3
	retryBackoff         = 250 * time.Millisecond
)

// Paths that must never trigger a session teardown even on 401, so auth
// flows cannot redirect-loop.
var authExemptPaths = []string{"/auth/login", "/auth/register", "/auth/verify-email"}

// TokenProvider supplies the bearer token for a request, or empty when
// no session exists.
type TokenProvider func(ctx context.Context) string

// Client is the typed REST client for the remote wallet backend. All
// business logic lives behind it; the client only decodes envelopes,
// attaches credentials, and maps errors.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *zap.Logger
}

// Option configures a Client instance.
type Option func(*Client)

// WithHTTPClient overrides the underlying transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// WithTokenProvider wires the session token source.
func WithTokenProvider(provider TokenProvider) Option {
	return func(client *Client) {
		client.tokenProvider = provider
	}
}

// WithLogger wires a structured logger for request outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

// New wires a Client against a versioned REST root.
func New(baseURL string, options ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(client)
		}
	}
	return client, nil
}

// BaseURL returns the configured REST root.
func (client *Client) BaseURL() string {
	return client.baseURL
}

func (client *Client) do(ctx context.Context, method string, path string, query url.Values, payload any, dst any) error {
	requestURL := client.baseURL + path
	if len(query) > 0 {
		requestURL = requestURL + "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if client.tokenProvider != nil {
		if token := client.tokenProvider(ctx); token != "" {
			request.Header.Set("Authorization", "Bearer "+token)
		}
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		client.logger.Warn("backend request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("backend request: %w", err)
	}
	defer func() { _ = response.Body.Close() }()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if response.StatusCode >= http.StatusBadRequest {
		apiError := decodeAPIError(response.StatusCode, responseBody)
		apiError.sessionInvalid = shouldInvalidateSession(path, response.StatusCode)
		client.logger.Warn("backend rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", response.StatusCode),
			zap.Bool("session_invalid", apiError.sessionInvalid))
		return apiError
	}

	if dst == nil {
		return nil
	}
	return walletview.DecodeEnvelope(responseBody, dst)
}

// doIdempotent submits a money-moving request. Transient transport
// failures are retried with the identical payload, so the idempotency
// key inside it is resent rather than regenerated; backend rejections
// are never retried.
func (client *Client) doIdempotent(ctx context.Context, path string, payload any, dst any) error {
	var lastErr error
	for attempt := 1; attempt <= maxMoneyMoveAttempts; attempt++ {
		lastErr = client.do(ctx, http.MethodPost, path, nil, payload, dst)
		if lastErr == nil {
			return nil
		}
		var apiError *APIError
		if errors.As(lastErr, &apiError) {
			return lastErr
		}
		if attempt < maxMoneyMoveAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}
	}
	return lastErr
}

func shouldInvalidateSession(path string, statusCode int) bool {
	for _, exempt := range authExemptPaths {
		if strings.Contains(path, exempt) {
			return false
		}
	}
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return true
	}
	// 404 on a user-identity lookup usually means the account was deleted.
	return statusCode == http.StatusNotFound && strings.Contains(path, "/users/")
}

// decodeAPIError tolerates the backend's error body variants:
// {"message": "..."}, {"error": {"code": "...", "message": "..."}},
// and {"error": "..."}.
func decodeAPIError(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode, Message: http.StatusText(statusCode)}
	var envelope struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiError
	}
	if envelope.Message != "" {
		apiError.Message = envelope.Message
	}
	if len(envelope.Error) > 0 {
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil {
			if nested.Message != "" {
				apiError.Message = nested.Message
			}
			apiError.Code = nested.Code
			return apiError
		}
		var flat string
		if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
			apiError.Message = flat
		}
	}
	return apiError
}
