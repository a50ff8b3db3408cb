// Package gateway is the HTTP client for the remote posts/auth service. It
// turns domain operations into requests against a configured base URL,
// normalizes the answers, and classifies every failure with package errs.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/eringen/blogfront/domain"
	"github.com/eringen/blogfront/errs"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// PostSource produces pages of posts. The HTTP client and the stand-in
// dataset both implement it.
type PostSource interface {
	ListPosts(ctx context.Context, q domain.ListQuery) (domain.PostPage, error)
}

// API is everything the front-end asks of the remote service.
type API interface {
	PostSource
	Login(ctx context.Context, creds domain.LoginCredentials) (domain.LoginResult, error)
	Register(ctx context.Context, creds domain.RegisterCredentials) error
	GetPost(ctx context.Context, id int64) (domain.BlogPost, error)
	CreatePost(ctx context.Context, token string, in PostInput) (domain.BlogPost, error)
	UpdatePost(ctx context.Context, token string, id int64, in PostInput) (domain.BlogPost, error)
	DeletePost(ctx context.Context, token string, id int64) error
}

// Observer is told about every request the client finishes.
type Observer func(op string, status int, elapsed time.Duration, err error)

// Client talks to the remote service over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithObserver registers a request observer, e.g. for metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New returns a Client for the service rooted at baseURL
// (e.g. "http://localhost:8000/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes req and returns the body of a 2xx answer. Any other outcome is
// an *errs.Error carrying the server's detail message or defaultMsg.
func (c *Client) do(op, defaultMsg string, req *http.Request) ([]byte, error) {
	start := time.Now()
	status := 0
	body, err := c.roundTrip(op, defaultMsg, req, &status)
	if c.observer != nil {
		c.observer(op, status, time.Since(start), err)
	}
	return body, err
}

func (c *Client) roundTrip(op, defaultMsg string, req *http.Request, status *int) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, errs.Wrap(errs.KindNetwork, op, "Request cancelled", err)
		}
		return nil, errs.Network(op, defaultMsg, err)
	}
	defer resp.Body.Close()
	*status = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errs.Network(op, defaultMsg, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := detailOf(body)
		if msg == "" {
			msg = defaultMsg
		}
		return nil, errs.FromStatus(op, resp.StatusCode, msg)
	}
	return body, nil
}

// detailOf extracts the service's error message. FastAPI-style validation
// errors carry a list of objects; the first "msg" is used.
func detailOf(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		return detail.String()
	case detail.IsArray():
		if first := detail.Get("0.msg"); first.Exists() {
			return first.String()
		}
	}
	return ""
}
