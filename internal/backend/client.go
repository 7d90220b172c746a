// Package backend is the HTTP client for the storefront REST API, which
// exposes products, users, orders and cart collections with list, detail,
// create, update and delete semantics.
package backend

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

	"github.com/sirupsen/logrus"

	"storefront/internal/apperrors"
)

// Collection paths.
const (
	PathProducts = "/products"
	PathUsers    = "/users"
	PathOrders   = "/orders"
	PathCart     = "/cart"
)

// HeaderTotalCount carries the unpaginated size of a list response.
const HeaderTotalCount = "X-Total-Count"

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Debug   bool
}

// Client performs JSON requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	debug      bool
	log        *logrus.Entry
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Response is the metadata of a successful call.
type Response struct {
	StatusCode int
	Header     http.Header
}

// NewClient creates a Client. A zero timeout defaults to ten seconds.
func NewClient(opts Options, log *logrus.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		debug: opts.Debug,
		log:   log.WithField("component", "backend"),
	}
}

// Do sends one request. body, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded response body.
//
// Failures are classified: a 404 wraps apperrors.ErrNotFound, a cancelled
// context is returned as is, and everything else (transport errors,
// timeouts, other non-2xx codes) wraps apperrors.ErrNetwork.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.debug {
		c.log.WithFields(logrus.Fields{"method": method, "endpoint": endpoint}).Debug("api call")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if c.debug {
			c.log.WithError(err).WithField("endpoint", endpoint).Debug("api error")
		}
		return nil, apperrors.Network(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrNotFound, statusErr)
		}
		return nil, apperrors.Network(op, statusErr)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return nil, apperrors.Network(op, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	if c.debug {
		c.log.WithFields(logrus.Fields{"endpoint": endpoint, "status": resp.StatusCode}).Debug("api response")
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put performs a full-replacement PUT request.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch performs a partial-update PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ResourcePath joins a collection path and an id.
func ResourcePath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}
