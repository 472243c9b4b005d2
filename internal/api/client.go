// Package api is the HTTP client for the EduForge backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/csheth/eduforge/internal/auth"
	"github.com/csheth/eduforge/internal/conversations"
	"github.com/csheth/eduforge/internal/logger"
)

const (
	defaultHTTPTimeout = 3 * time.Minute
	maxBodyBytes       = 32 << 20
	// MinServerVersion is the oldest backend this client talks to.
	MinServerVersion = "1.0.0"
)

// Config describes how to reach the backend.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client talks to the backend. It satisfies auth.Backend and
// conversations.Source.
type Client struct {
	base   string
	client *http.Client
	log    *log.Logger
	newID  func() string

	mu    sync.RWMutex
	token string
}

var (
	_ auth.Backend         = (*Client)(nil)
	_ conversations.Source = (*Client)(nil)
)

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.BaseURL)
	}
	return &Client{
		base:   base,
		client: pickHTTPClient(cfg.HTTPClient),
		log:    logger.NewStyledLogger("api"),
		newID:  uuid.NewString,
		token:  strings.TrimSpace(cfg.Token),
	}, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Generations can take minutes; callers bound each call with a context.
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// SetToken replaces the bearer token. An empty token sends anonymous
// requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// HasToken reports whether a bearer token is configured.
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) Me(ctx context.Context) (auth.User, error) {
	var user auth.User
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &user)
	return user, err
}

func (c *Client) Settings(ctx context.Context) (auth.Settings, error) {
	var settings auth.Settings
	err := c.doJSON(ctx, http.MethodGet, "/api/users/settings", nil, &settings)
	return settings, err
}

func (c *Client) UpdatePreferredModel(ctx context.Context, model string) (auth.Settings, error) {
	var settings auth.Settings
	body := map[string]string{"preferred_model": model}
	err := c.doJSON(ctx, http.MethodPatch, "/api/users/settings", body, &settings)
	return settings, err
}

// ListConversations fetches the saved conversations, optionally filtered by
// type and capped at opts.Limit.
func (c *Client) ListConversations(ctx context.Context, opts conversations.ListOptions) ([]conversations.SavedConversation, error) {
	query := url.Values{}
	if opts.Type != conversations.TypeAll {
		query.Set("conversation_type", string(opts.Type))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/api/conversations"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var resp listResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

func (c *Client) DeleteConversation(ctx context.Context, threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("delete conversation: empty thread id")
	}
	return c.doJSON(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(threadID), nil, nil)
}

// Thread loads the content of a saved thread.
func (c *Client) Thread(ctx context.Context, threadID string) (GenerationResult, error) {
	var result GenerationResult
	err := c.doJSON(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(threadID), nil, &result)
	return result, err
}

// Generate starts a new thread, or continues req.ThreadID, for feature.
func (c *Client) Generate(ctx context.Context, feature string, req GenerationRequest) (GenerationResult, error) {
	if strings.TrimSpace(feature) == "" {
		return GenerationResult{}, fmt.Errorf("generate: empty feature")
	}
	var result GenerationResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate/"+url.PathEscape(feature), req, &result); err != nil {
		return GenerationResult{}, err
	}
	if result.ThreadID == "" {
		return GenerationResult{}, fmt.Errorf("generate: response without thread_id")
	}
	return result, nil
}

// ExportDocx asks the backend to convert markdown into a DOCX document.
func (c *Client) ExportDocx(ctx context.Context, markdown, filename string) ([]byte, error) {
	payload, err := json.Marshal(exportRequest{Markdown: markdown, Filename: filename})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/api/export/docx", payload)
}

// ServerVersion reports the backend version.
func (c *Client) ServerVersion(ctx context.Context) (*semver.Version, error) {
	var resp versionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/version", nil, &resp); err != nil {
		return nil, err
	}
	v, err := semver.NewVersion(strings.TrimSpace(resp.Version))
	if err != nil {
		return nil, fmt.Errorf("parse server version %q: %w", resp.Version, err)
	}
	return v, nil
}

// CheckCompatible fails with ErrIncompatible when the backend is older than
// MinServerVersion.
func (c *Client) CheckCompatible(ctx context.Context) (*semver.Version, error) {
	v, err := c.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	constraint, err := semver.NewConstraint(">= " + MinServerVersion)
	if err != nil {
		return v, err
	}
	if !constraint.Check(v) {
		return v, fmt.Errorf("%w: %s < %s", ErrIncompatible, v, MinServerVersion)
	}
	return v, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = buf
	}
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	requestID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "id", requestID, "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	c.log.Debug("request", "method", method, "path", path, "id", requestID,
		"status", resp.StatusCode, "elapsed", time.Since(start).Round(time.Millisecond))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, body)
	}
	return body, nil
}
