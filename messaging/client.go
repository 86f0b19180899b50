// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauspost/compress/gzhttp"

	"github.com/bureau-foundation/roomsync/lib/netutil"
	"github.com/bureau-foundation/roomsync/lib/secret"
)

// DefaultAPIPrefix is the client API path prefix served by the
// homeserver for the event stream and room operations.
const DefaultAPIPrefix = "/_matrix/client/api/v1"

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the homeserver (e.g., "https://matrix.example.org").
	HomeserverURL string
	// APIPrefix is prepended to every request path. Empty means DefaultAPIPrefix.
	APIPrefix string
	// HTTPClient is used for all requests. If nil, a client with its
	// own connection pool is created that requests zstd or gzip
	// compressed responses.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client is an unauthenticated homeserver client. It holds the base
// URL and HTTP transport shared by every session derived from it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	// pool is the transport under the compression wrapper, when the
	// client built its own.
	pool   *http.Transport
	logger *slog.Logger
}

// NewClient creates a new Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL is required")
	}
	parsed, err := url.Parse(config.HomeserverURL)
	if err != nil {
		return nil, fmt.Errorf("messaging: invalid HomeserverURL %q: %w", config.HomeserverURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("messaging: HomeserverURL %q must use http or https", config.HomeserverURL)
	}

	prefix := config.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")

	httpClient := config.HTTPClient
	var pool *http.Transport
	if httpClient == nil {
		pool = http.DefaultTransport.(*http.Transport).Clone()
		httpClient = &http.Client{Transport: gzhttp.Transport(pool)}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.HomeserverURL, "/") + prefix,
		httpClient: httpClient,
		pool:       pool,
		logger:     logger,
	}, nil
}

// CloseIdleConnections drops pooled idle connections so the next
// request dials a fresh socket. Used after a failed poll, since a
// reset connection often poisons the pool.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
	if c.pool != nil {
		c.pool.CloseIdleConnections()
	}
}

// NewSession wraps an access token already held in protected memory.
// The session takes ownership of token and closes it on Close.
func (c *Client) NewSession(userID string, token *secret.Buffer) *DirectSession {
	return &DirectSession{
		client:      c,
		accessToken: token,
		userID:      userID,
	}
}

// SessionFromToken moves accessToken into protected memory and
// returns a session for userID. The token is not validated; the first
// request fails if it is wrong.
func (c *Client) SessionFromToken(userID, accessToken string) (*DirectSession, error) {
	token, err := secret.NewFromBytes([]byte(accessToken))
	if err != nil {
		return nil, fmt.Errorf("messaging: protecting access token: %w", err)
	}
	return c.NewSession(userID, token), nil
}

// doRequest performs one request against the API prefix and returns
// the response body. On 4xx/5xx it returns a *MatrixError. The access
// token, when non-nil, is added as the access_token query parameter.
func (c *Client) doRequest(ctx context.Context, method, path string, accessToken *secret.Buffer, requestBody any, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if accessToken != nil {
		query.Set("access_token", accessToken.String())
	}
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		// The URL carries the token; report the path only.
		return nil, fmt.Errorf("messaging: request to %s %s failed: %w", method, path, unwrapURLError(err))
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		responseBody, err := netutil.ReadResponse(response.Body)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to read response body: %w", err)
		}
		return responseBody, nil
	}

	raw := netutil.ErrorBody(response.Body)
	var matrixErr MatrixError
	if jsonErr := json.Unmarshal([]byte(raw), &matrixErr); jsonErr != nil || matrixErr.Code == "" {
		// Proxies in front of the homeserver return HTML or plain
		// text errors. Keep the status so callers can still classify.
		matrixErr = MatrixError{Code: ErrCodeUnknown, Message: strings.TrimSpace(raw)}
	}
	matrixErr.StatusCode = response.StatusCode
	return nil, &matrixErr
}

// unwrapURLError strips the *url.Error wrapper, whose message embeds
// the full request URL including the access token.
func unwrapURLError(err error) error {
	if urlErr, ok := err.(*url.Error); ok { //nolint:errorlint // only the outermost wrapper carries the URL
		return urlErr.Err
	}
	return err
}
