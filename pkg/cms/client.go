/*
Package cms is the REST client for the headless CMS backend holding the
recipe collection. It covers the read paths the suggestion engine needs
(bulk listing for the local index, case-insensitive title search) plus
the view-counter and rating updates the site performs against the same
collection.

Failures are reported as errors; the suggestion layer above converts
them into the empty-suggestions state.
*/
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"

	"recipesuggest/internal/logger"
	"recipesuggest/pkg/suggest"
)

const maxResponseBytes = 4 << 20

// Client talks to one collection of the CMS backend.
type Client struct {
	base       string
	collection string
	token      string
	http       *retryablehttp.Client
	log        *log.Logger
}

// NewClient builds a client for the given backend base URL and
// collection name. An empty base URL is a configuration error; callers
// degrade to index-only operation when they get one.
func NewClient(baseURL, collection, token string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("cms: backend base URL is not configured")
	}
	if strings.TrimSpace(collection) == "" {
		return nil, fmt.Errorf("cms: collection name is not configured")
	}

	l := logger.New("cms")
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = suggest.DefaultTimeout
	rc.Logger = leveledLogger{l}

	return &Client{
		base:       strings.TrimRight(baseURL, "/"),
		collection: collection,
		token:      token,
		http:       rc,
		log:        l,
	}, nil
}

// List fetches the bulk snapshot used to bootstrap the local fuzzy
// index: every entry's id, title and slug, capped server-side at limit.
func (c *Client) List(ctx context.Context, limit int) ([]suggest.Item, error) {
	q := url.Values{}
	q.Set("fields[0]", "id")
	q.Set("fields[1]", "title")
	q.Set("fields[2]", "slug")
	q.Set("pagination[limit]", strconv.Itoa(limit))
	return c.fetchItems(ctx, q)
}

// Search performs the backend's case-insensitive substring lookup on
// titles, returning at most limit items.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]suggest.Item, error) {
	q := url.Values{}
	q.Set("filters[title][$containsi]", text)
	q.Set("pagination[limit]", strconv.Itoa(limit))
	q.Set("fields[0]", "id")
	q.Set("fields[1]", "title")
	q.Set("fields[2]", "slug")
	return c.fetchItems(ctx, q)
}

// Suggest implements suggest.Source, making the client usable as the
// controller's remote fallback directly.
func (c *Client) Suggest(ctx context.Context, query string, limit int) ([]suggest.Item, error) {
	return c.Search(ctx, query, limit)
}

func (c *Client) fetchItems(ctx context.Context, q url.Values) ([]suggest.Item, error) {
	entries, err := c.fetchEntries(ctx, q)
	if err != nil {
		return nil, err
	}
	items := make([]suggest.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.Item())
	}
	return items, nil
}

func (c *Client) fetchEntries(ctx context.Context, q url.Values) ([]Entry, error) {
	body, err := c.get(ctx, c.collectionURL()+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("cms: malformed listing response: %w", err)
	}

	entries := make([]Entry, 0, len(env.Data))
	for _, raw := range env.Data {
		e, err := decodeEntry(raw)
		if err != nil {
			c.log.Debug("skipping undecodable entry", "err", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *Client) collectionURL() string {
	return c.base + "/api/" + c.collection
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cms: building request: %w", err)
	}
	return c.do(req)
}

func (c *Client) put(ctx context.Context, rawURL string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("cms: encoding request body: %w", err)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("cms: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *retryablehttp.Request) ([]byte, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("cms: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("cms: %s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}

// leveledLogger adapts charm's logger to retryablehttp's interface.
type leveledLogger struct {
	l *log.Logger
}

func (a leveledLogger) Error(msg string, keysAndValues ...any) { a.l.Error(msg, keysAndValues...) }
func (a leveledLogger) Warn(msg string, keysAndValues ...any)  { a.l.Warn(msg, keysAndValues...) }
func (a leveledLogger) Info(msg string, keysAndValues ...any)  { a.l.Debug(msg, keysAndValues...) }
func (a leveledLogger) Debug(msg string, keysAndValues ...any) { a.l.Debug(msg, keysAndValues...) }
