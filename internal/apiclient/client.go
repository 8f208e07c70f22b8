// Package apiclient is a typed client for the ShortReel HTTP API.
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
	"sync"
	"time"

	"github.com/shortreel/backend/internal/models"
)

// Error is returned for any non-2xx API response. Message is the server's
// "error" string and is empty when the response carried none.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	message := e.Message
	if message == "" {
		message = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, message)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to a ShortReel server. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken presets the access token sent as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the server at baseURL (e.g. http://localhost:8080).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", baseURL)
	}

	c := &Client{baseURL: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint resolves an API path against the base URL.
func (c *Client) Endpoint(path string) string {
	return c.resolve(nil, path)
}

// resolve joins escaped path segments onto the base URL and attaches query.
func (c *Client) resolve(query url.Values, segments ...string) string {
	u := c.baseURL.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Token returns the access token currently in use.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the access token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) (models.Identity, error) {
	var out models.Identity
	err := c.do(ctx, http.MethodPost, c.resolve(nil, "/api/auth/register"), credentials{Email: email, Password: password}, &out)
	return out, err
}

// SignIn authenticates and keeps the returned access token for later calls.
func (c *Client) SignIn(ctx context.Context, email, password string) (models.SessionTokens, error) {
	var out tokensResponse
	if err := c.do(ctx, http.MethodPost, c.resolve(nil, "/api/auth/signin"), credentials{Email: email, Password: password}, &out); err != nil {
		return models.SessionTokens{}, err
	}
	c.SetToken(out.Tokens.AccessToken)
	return out.Tokens, nil
}

// Refresh exchanges a refresh token for a new pair and keeps the new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	var out tokensResponse
	if err := c.do(ctx, http.MethodPost, c.resolve(nil, "/api/auth/refresh"), refreshBody{RefreshToken: refreshToken}, &out); err != nil {
		return models.SessionTokens{}, err
	}
	c.SetToken(out.Tokens.AccessToken)
	return out.Tokens, nil
}

// SignOut revokes refreshToken and forgets the access token.
func (c *Client) SignOut(ctx context.Context, refreshToken string) error {
	if err := c.do(ctx, http.MethodPost, c.resolve(nil, "/api/auth/signout"), refreshBody{RefreshToken: refreshToken}, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// ListVideos returns the feed, newest first. A non-empty query filters server-side.
func (c *Client) ListVideos(ctx context.Context, query string) ([]models.Video, error) {
	var params url.Values
	if q := strings.TrimSpace(query); q != "" {
		params = url.Values{"q": {q}}
	}
	var out []models.Video
	if err := c.do(ctx, http.MethodGet, c.resolve(params, "/api/video"), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Video{}
	}
	return out, nil
}

// CreateVideo persists a new record. Requires a session.
func (c *Client) CreateVideo(ctx context.Context, video models.NewVideo) (models.Video, error) {
	var out models.Video
	err := c.do(ctx, http.MethodPost, c.resolve(nil, "/api/video"), video, &out)
	return out, err
}

// GetVideo fetches one record.
func (c *Client) GetVideo(ctx context.Context, id string) (models.Video, error) {
	var out models.Video
	err := c.do(ctx, http.MethodGet, c.resolve(nil, "/api/video", url.PathEscape(id)), nil, &out)
	return out, err
}

// DeleteVideo removes a record. Requires a session.
func (c *Client) DeleteVideo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.resolve(nil, "/api/video", url.PathEscape(id)), nil, nil)
}

// UploadCredential fetches a single-use direct upload credential.
func (c *Client) UploadCredential(ctx context.Context) (models.UploadCredential, error) {
	var out models.UploadCredential
	err := c.do(ctx, http.MethodGet, c.resolve(nil, "/api/auth/imagekit-auth"), nil, &out)
	return out, err
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

type tokensResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, target, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	_ = json.Unmarshal(raw, &body)
	return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(body.Error)}
}
