package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	apierrors "github.com/jrsteele09/go-session-client/internal/errors"
)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
	defaultTimeout  = 30 * time.Second
)

// Client calls the community backend. Every call is attempted exactly once.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption modifies a Client during construction.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request, including reading the response body.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("[NewClient] base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, apierrors.Wrapf(err, "[NewClient] invalid base URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("[NewClient] base URL must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// authorized returns an HTTP client that sends token as a bearer credential.
func (c *Client) authorized(token string) *http.Client {
	return &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.httpClient.Transport,
		},
	}
}

// do sends a JSON request and decodes a JSON response into out (when not nil).
// Non-2xx responses are returned as *apierrors.APIError.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return apierrors.Wrapf(err, "[api %s %s] encode request", method, path)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return apierrors.Wrapf(err, "[api %s %s] build request", method, path)
	}
	requestID := uuid.New().String()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.httpClient
	if token != "" {
		hc = c.authorized(token)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("request_id", requestID).Str("method", method).Str("path", path).Msg("request failed")
		return apierrors.Network(err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierrors.FromStatus(resp.StatusCode, readErrorMessage(resp.Body))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierrors.Network(apierrors.Wrapf(err, "decode %s %s response", method, path))
	}
	return nil
}

// readErrorMessage extracts the backend "message" field, which is either a string
// or a list of validation messages.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || len(payload.Message) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(payload.Message, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(payload.Message, &many); err == nil {
		return strings.Join(many, "; ")
	}
	return ""
}
