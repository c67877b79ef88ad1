// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the DocuMind
// backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/documind-tui/internal/util"
)

// Configuration constants for the DocuMind API.
const (
	// DefaultTimeout is the default timeout for non-streaming API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size for
	// non-streaming endpoints.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// MaxTokensCap is the largest generation budget the backend honors;
	// larger requests are clamped server-side, so the client clamps too.
	MaxTokensCap = 1600

	// sessionIDHeader carries the server-assigned conversation id on /chat
	// responses.
	sessionIDHeader = "X-Session-Id"
)

// Client is a client for communicating with the DocuMind backend.
//
// Two HTTP clients are kept: one with a request timeout for plain calls, and
// one without a timeout for the streaming /chat endpoint, where lifetime is
// governed by the caller's context.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	userAgent    string

	// refreshLimiter throttles background refreshes (sessions, files) so a
	// burst of settled exchanges cannot hammer the server. A throttled
	// refresh fails with ErrRateLimited and callers degrade to stale data.
	refreshLimiter *rate.Limiter
}

// NewClient creates a new client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:        strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		streamClient:   &http.Client{}, // No timeout for streaming - controlled via context
		userAgent:      "documind/" + Version,
		refreshLimiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// Version is the client version string (set at build time via main).
var Version = "0.1.0"

// WithTimeout sets the request timeout for non-streaming calls.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces both HTTP clients (used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if the client has a server URL.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// setHeaders sets the common headers for an API request. The Authorization
// header is attached only for a non-empty token - it is never sent empty.
func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// logRequest logs an API request without exposing sensitive data.
// Headers (auth) and bodies (questions, credentials) are never logged.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("api: %s %s", req.Method, req.URL.Path)
}

// logResponse logs an API response with duration. Body is never logged.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("api: %d %s (%v)", resp.StatusCode, resp.Request.URL.Path, duration)
}

// do executes a non-streaming request and returns the body.
// Non-2xx statuses become *APIError; a request that never completed becomes
// an ErrNetwork wrap so callers can distinguish availability problems from
// application errors.
func (c *Client) do(req *http.Request) ([]byte, error) {
	c.logRequest(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// readBody reads a response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", int64(MaxResponseSize))
	}
	return body, nil
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login exchanges credentials for an access token via the OAuth2 password
// flow. The backend expects form-encoded username/password and answers with
// {"access_token": "..."}.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setHeaders(req, "")

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", authErrorFromBody(resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", &AuthError{Status: resp.StatusCode, Detail: "server returned no access token"}
	}
	return payload.AccessToken, nil
}

// Register creates a new account. The body is ignored on success; failures
// carry a detail message the same way login does.
func (c *Client) Register(ctx context.Context, email, password, fullName string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}{Email: email, Password: password, FullName: fullName}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/register",
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req, "")

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	respBody, err := readBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return authErrorFromBody(resp.StatusCode, respBody)
	}
	return nil
}

// Me fetches the authenticated account profile. Used to verify a stored
// token is still valid.
func (c *Client) Me(ctx context.Context, token string) (Account, error) {
	if !c.IsConfigured() {
		return Account{}, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return Account{}, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, token)

	body, err := c.do(req)
	if err != nil {
		return Account{}, err
	}

	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		return Account{}, fmt.Errorf("failed to parse account: %w", err)
	}
	return account, nil
}

// =============================================================================
// SESSION ENDPOINTS
// =============================================================================

// Sessions lists the caller's chat sessions in server order.
//
// A payload that is not an array of objects degrades to an empty list (logged,
// never surfaced) so a misbehaving backend cannot break the sidebar. Elements
// without a recognizable numeric id are skipped.
func (c *Client) Sessions(ctx context.Context, token string) ([]Session, error) {
	if !c.refreshLimiter.Allow() {
		return nil, ErrRateLimited
	}

	body, err := c.getJSON(ctx, token, "/chat/sessions")
	if err != nil {
		return nil, err
	}

	objs, ok := decodeObjectList(body)
	if !ok {
		log.Printf("api: /chat/sessions returned non-array payload, treating as empty")
		return []Session{}, nil
	}

	sessions := make([]Session, 0, len(objs))
	for _, obj := range objs {
		id, ok := normalizeID(obj)
		if !ok {
			continue
		}
		var title string
		if raw, present := obj["title"]; present {
			_ = json.Unmarshal(raw, &title)
		}
		sessions = append(sessions, Session{ID: id, Title: title})
	}
	return sessions, nil
}

// History fetches the ordered messages of one session.
// A non-array payload degrades to an empty history, logged.
func (c *Client) History(ctx context.Context, token string, sessionID int64) ([]HistoryMessage, error) {
	body, err := c.getJSON(ctx, token, "/chat/history/"+util.Int64ToString(sessionID))
	if err != nil {
		return nil, err
	}

	objs, ok := decodeObjectList(body)
	if !ok {
		log.Printf("api: /chat/history returned non-array payload, treating as empty")
		return []HistoryMessage{}, nil
	}

	msgs := make([]HistoryMessage, 0, len(objs))
	for _, obj := range objs {
		content := normalizeContent(obj)
		if content == "" {
			continue
		}
		msgs = append(msgs, HistoryMessage{Role: normalizeRole(obj), Content: content})
	}
	return msgs, nil
}

// getJSON performs an authenticated GET and returns the raw body.
func (c *Client) getJSON(ctx context.Context, token, path string) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, token)
	return c.do(req)
}

// =============================================================================
// CHAT ENDPOINT
// =============================================================================

// Ask submits a question and returns the open answer stream. The token may be
// empty (guest mode); the session id inside req may be nil (no session yet).
//
// Non-2xx responses are read in full and returned as *APIError. On success
// the caller owns the stream and must Close it.
func (c *Client) Ask(ctx context.Context, token string, askReq AskRequest) (*AskStream, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	if askReq.MaxTokens <= 0 || askReq.MaxTokens > MaxTokensCap {
		askReq.MaxTokens = MaxTokensCap
	}

	body, err := json.Marshal(askReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req, token)

	c.logRequest(req)
	start := time.Now()
	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	c.logResponse(resp, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, readErr := readBody(resp)
		resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(errBody))}
	}

	contentType := resp.Header.Get("Content-Type")
	return &AskStream{
		AssignedSessionID: resp.Header.Get(sessionIDHeader),
		Streamed:          isStreamedContentType(contentType),
		body:              resp.Body,
	}, nil
}

// isStreamedContentType reports whether the response body is newline-delimited
// JSON rather than one plain-text final answer.
func isStreamedContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "ndjson") || strings.Contains(ct, "jsonl") ||
		strings.Contains(ct, "json-seq")
}

// =============================================================================
// FILE ENDPOINTS
// =============================================================================

// Upload sends one or more local files as a single multipart request. The
// backend schedules extraction and indexing in the background, so a 2xx here
// only means the bytes arrived.
func (c *Client) Upload(ctx context.Context, token string, paths []string) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files to upload")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}

		part, err := writer.CreateFormFile("files", filepath.Base(path))
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to create form part: %w", err)
		}
		if _, err := io.Copy(part, f); err != nil {
			f.Close()
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		f.Close()
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files/upload", &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setHeaders(req, token)

	_, err = c.do(req)
	return err
}

// Files lists the caller's uploaded documents.
// A non-array payload degrades to an empty list, logged.
func (c *Client) Files(ctx context.Context, token string) ([]FileInfo, error) {
	if !c.refreshLimiter.Allow() {
		return nil, ErrRateLimited
	}

	body, err := c.getJSON(ctx, token, "/files/list")
	if err != nil {
		return nil, err
	}

	objs, ok := decodeObjectList(body)
	if !ok {
		log.Printf("api: /files/list returned non-array payload, treating as empty")
		return []FileInfo{}, nil
	}

	files := make([]FileInfo, 0, len(objs))
	for _, obj := range objs {
		id, ok := normalizeID(obj)
		if !ok {
			continue
		}
		var name string
		if raw, present := obj["filename"]; present {
			_ = json.Unmarshal(raw, &name)
		}
		files = append(files, FileInfo{ID: id, Filename: name})
	}
	return files, nil
}

// DeleteFile removes one uploaded document by id.
func (c *Client) DeleteFile(ctx context.Context, token string, id int64) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/files/"+util.Int64ToString(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, token)

	_, err = c.do(req)
	return err
}
