package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wkalt/treeviz/snapshot"
)

/*
Package client talks to the tree backend. The backend exposes four endpoints,
all GET: /data returns the current snapshot, /step advances the pending
operation by one step, /reset restores the initial tree, and /delete?val=K
begins deleting key K. Only /data has a body we care about.
*/

////////////////////////////////////////////////////////////////////////////////

// APIError is returned when the backend answers with a non-200 status.
type APIError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}

// Is reports whether target is an APIError.
func (e APIError) Is(target error) bool {
	_, ok := target.(APIError)
	return ok
}

// ErrUnavailable wraps transport failures reaching the backend.
var ErrUnavailable = errors.New("backend unavailable")

// Client is an HTTP client for the tree backend.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New returns a client for the backend at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   NewHTTPClient(),
	}
}

// Snapshot fetches the current tree.
func (c *Client) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	resp, err := c.get(ctx, "/data", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	snap, err := snapshot.Decode(resp.Body)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Step advances the backend's pending operation.
func (c *Client) Step(ctx context.Context) error {
	return c.call(ctx, "/step", nil)
}

// Reset restores the backend's initial tree.
func (c *Client) Reset(ctx context.Context) error {
	return c.call(ctx, "/reset", nil)
}

// Delete asks the backend to begin deleting key.
func (c *Client) Delete(ctx context.Context, key snapshot.Key) error {
	return c.call(ctx, "/delete", url.Values{"val": {strconv.FormatInt(int64(key), 10)}})
}

func (c *Client) call(ctx context.Context, endpoint string, query url.Values) error {
	resp, err := c.get(ctx, endpoint, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, APIError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

type transport struct {
	userAgent string
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/json")
	return http.DefaultTransport.RoundTrip(req)
}

// NewHTTPClient returns an http client that identifies itself to the backend.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &transport{userAgent: "treeviz"},
	}
}
