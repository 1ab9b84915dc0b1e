// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiPrefix is the REST API v2 path prefix. v2 is the newest API
// available on every JIRA deployment the replication engine talks to,
// server and cloud alike.
const apiPrefix = "/rest/api/2"

// Config holds configuration for creating a JIRA API Client.
//
// Exactly one authentication mode must be configured:
//   - Basic authentication: set Username and Password
//   - Token authentication: set Token
type Config struct {
	// BaseURL is the root URL of the JIRA server, without the REST
	// path (e.g. "https://jira.example.com"). Required.
	BaseURL string

	// Username is the JIRA account name. Required for basic auth.
	Username string

	// Password is the account password or API token used as one.
	// Required for basic auth.
	Password string

	// Token is a personal access token sent as a bearer token.
	// Mutually exclusive with Username/Password.
	Token string

	// HTTPClient is used for all HTTP requests. Defaults to a client
	// with Timeout as its overall deadline.
	HTTPClient *http.Client

	// Timeout bounds a single REST call when HTTPClient is not
	// provided. Zero means no deadline.
	Timeout time.Duration

	// DialTimeout bounds establishing the TCP connection to the server
	// when HTTPClient is not provided. Zero means no deadline.
	DialTimeout time.Duration

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a typed JIRA REST API client with authentication and
// structured error handling.
type Client struct {
	baseURL    string
	httpClient *http.Client
	username   string
	password   string
	token      string
	logger     *slog.Logger
}

// NewClient creates a JIRA API client from the given configuration.
// Returns an error if the configuration is invalid.
func NewClient(config Config) (*Client, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("jira: BaseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("jira: invalid server URL %q", config.BaseURL)
	}

	hasBasic := config.Username != "" || config.Password != ""
	hasToken := config.Token != ""
	if hasBasic && hasToken {
		return nil, fmt.Errorf("jira: cannot configure both basic auth and token auth")
	}
	if !hasBasic && !hasToken {
		return nil, fmt.Errorf("jira: no authentication configured (set Username+Password or Token)")
	}
	if hasBasic && (config.Username == "" || config.Password == "") {
		return nil, fmt.Errorf("jira: basic auth requires both Username and Password")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
		if config.DialTimeout > 0 {
			dialer := &net.Dialer{Timeout: config.DialTimeout}
			httpClient.Transport = &http.Transport{DialContext: dialer.DialContext}
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		username:   config.Username,
		password:   config.Password,
		token:      config.Token,
		logger:     logger,
	}, nil
}

// Username returns the account name the client authenticates as. Empty
// for token auth.
func (client *Client) Username() string {
	return client.username
}

// do executes an authenticated JIRA API request. The path is relative
// to the REST prefix (e.g. "/issue/TEST-1"). The body, if non-nil, is
// JSON-encoded. Returns the response body; on non-2xx responses the
// error is an *APIError.
func (client *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	requestURL := client.baseURL + apiPrefix + path

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("jira: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("jira: creating request: %w", err)
	}

	if client.token != "" {
		request.Header.Set("Authorization", "Bearer "+client.token)
	} else {
		request.SetBasicAuth(client.username, client.password)
	}
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("jira: %s %s: %w", method, requestURL, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("jira: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		client.logger.Debug("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", response.StatusCode),
		)
		return nil, parseAPIError(response.StatusCode, body)
	}

	return body, nil
}

// get is a convenience method for GET requests that return a JSON
// document. Decodes the response into result.
func (client *Client) get(ctx context.Context, path string, result any) error {
	body, err := client.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

// post is a convenience method for POST requests. Pass a nil result for
// endpoints that return no useful body.
func (client *Client) post(ctx context.Context, path string, requestBody any, result any) error {
	body, err := client.do(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	if result != nil {
		return json.Unmarshal(body, result)
	}
	return nil
}

// put is a convenience method for PUT requests that return no body.
func (client *Client) put(ctx context.Context, path string, requestBody any) error {
	_, err := client.do(ctx, http.MethodPut, path, requestBody)
	return err
}
