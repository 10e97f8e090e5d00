package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// Client wraps the ministry REST API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	onError    func(error)
}

type Option func(*Client)

// WithHTTPClient sets the base HTTP client. Its transport is wrapped for bearer auth.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithErrorHandler sets the global error handler, called for every failed
// request unless the caller set SkipGlobalErrorHandling
func WithErrorHandler(fn func(error)) Option {
	return func(c *Client) {
		c.onError = fn
	}
}

// New creates a client for baseURL. When the session carries an access token,
// every request is sent with it as a bearer token.
func New(baseURL string, session model.Session, logger *zap.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url: %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if session.AccessToken != "" {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		authed := *c.httpClient
		authed.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: session.AccessToken, TokenType: "Bearer"}),
			Base:   base,
		}
		c.httpClient = &authed
	}

	return c, nil
}

type flagsKey struct{}

// WithFlags attaches request flags to ctx so transport middleware can read them
func WithFlags(ctx context.Context, flags model.RequestFlags) context.Context {
	return context.WithValue(ctx, flagsKey{}, flags)
}

// FlagsFromContext returns the request flags attached to ctx
func FlagsFromContext(ctx context.Context) model.RequestFlags {
	flags, _ := ctx.Value(flagsKey{}).(model.RequestFlags)
	return flags
}

// do sends a request and decodes a JSON response into out (when out is non-nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, flags model.RequestFlags) error {
	err := c.send(ctx, method, path, query, body, out, flags)
	if err != nil && !flags.SkipGlobalErrorHandling && c.onError != nil {
		c.onError(err)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any, flags model.RequestFlags) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(WithFlags(ctx, flags), method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("API request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response of %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return nil
}
