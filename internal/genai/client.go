package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Ensure Client implements Generator at compile time.
var _ Generator = (*Client)(nil)

const (
	DefaultModel     = "llama3.2"
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "neuroglove/0.1"
	maxErrorBody     = 512
)

// Config selects the endpoint and model.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client talks to an Ollama-compatible /api/generate endpoint.
type Client struct {
	baseURL   *url.URL
	model     string
	http      *http.Client
	userAgent string
}

// NewClient builds a Client. An empty BaseURL yields ErrUnavailable.
func NewClient(cfg Config) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   base,
		model:     model,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}, nil
}

// Model reports the model used by Generate.
func (c *Client) Model() string { return c.model }

// WithModel returns a copy of c that generates with model. An empty model
// returns c unchanged.
func (c *Client) WithModel(model string) *Client {
	model = strings.TrimSpace(model)
	if c == nil || model == "" {
		return c
	}
	cp := *c
	cp.model = model
	return &cp
}

// Generate runs a single non-streaming completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", ErrUnavailable
	}
	var payload generateResponse
	req := generateRequest{Model: c.model, Prompt: prompt}
	if err := c.post(ctx, "/api/generate", req, &payload); err != nil {
		return "", err
	}
	if payload.Error != "" {
		return "", fmt.Errorf("generate: %s", payload.Error)
	}
	return payload.Response, nil
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if isUnreachable(err) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serr := &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusBadGateway {
			return fmt.Errorf("%w: %w", ErrUnavailable, serr)
		}
		return serr
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isUnreachable(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrUnavailable
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base_url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
