package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultClientTimeout = 2 * time.Minute

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Client talks to a partscoped instance over HTTP.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sends token as a bearer token on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// NewClient parses server, which may omit the scheme, and returns a client.
func NewClient(server string, opts ...ClientOption) (*Client, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return nil, fmt.Errorf("server address is empty")
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	base, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("parse server address: %w", err)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""
	c := &Client{base: base, http: &http.Client{Timeout: defaultClientTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server root the client targets.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// ImageURL resolves an item's image_path against the server.
func (c *Client) ImageURL(imagePath string) string {
	return c.base.String() + imagePath
}

// List returns items, optionally restricted to the given statuses.
func (c *Client) List(ctx context.Context, statuses ...string) ([]Item, error) {
	query := url.Values{}
	for _, s := range statuses {
		if s = strings.TrimSpace(s); s != "" {
			query.Add("status", s)
		}
	}
	var items []Item
	err := c.do(ctx, http.MethodGet, "/api/inventory", query, nil, &items)
	return items, err
}

// UploadFile is one image to upload.
type UploadFile struct {
	Data     []byte
	Name     string
	Filename string
}

// Upload sends images for intake and returns the full inventory.
func (c *Client) Upload(ctx context.Context, files []UploadFile) ([]Item, error) {
	req := UploadRequest{Items: make([]UploadImage, 0, len(files))}
	for _, f := range files {
		entry := UploadImage{
			ImageBase64: base64.StdEncoding.EncodeToString(f.Data),
			Name:        f.Name,
		}
		if f.Filename != "" {
			entry.Filename = filepath.Base(f.Filename)
		}
		req.Items = append(req.Items, entry)
	}
	var items []Item
	err := c.do(ctx, http.MethodPost, "/api/inventory/upload", nil, req, &items)
	return items, err
}

// Classify runs the classifier over the inventory.
func (c *Client) Classify(ctx context.Context, onlyUnclassified bool) ([]Item, error) {
	var query url.Values
	if onlyUnclassified {
		query = url.Values{"only_unclassified": {"true"}}
	}
	var items []Item
	err := c.do(ctx, http.MethodPost, "/api/inventory/classify", query, nil, &items)
	return items, err
}

// Patch applies a partial update to one item.
func (c *Client) Patch(ctx context.Context, id int64, req PatchRequest) (Item, error) {
	var item Item
	err := c.do(ctx, http.MethodPatch, "/api/inventory/"+strconv.FormatInt(id, 10), nil, req, &item)
	return item, err
}

// BatchUpdate applies one field set to several items.
func (c *Client) BatchUpdate(ctx context.Context, req BatchUpdateRequest) ([]Item, error) {
	var items []Item
	err := c.do(ctx, http.MethodPost, "/api/inventory/batch-update", nil, req, &items)
	return items, err
}

// BatchDelete removes items and their images.
func (c *Client) BatchDelete(ctx context.Context, ids []int64) ([]Item, error) {
	var items []Item
	err := c.do(ctx, http.MethodPost, "/api/inventory/batch-delete", nil, IDsRequest{ItemIDs: ids}, &items)
	return items, err
}

// Insights requests recommendations for the given items.
func (c *Client) Insights(ctx context.Context, ids []int64) (InsightsResponse, error) {
	var resp InsightsResponse
	err := c.do(ctx, http.MethodPost, "/api/inventory/ai-insights", nil, IDsRequest{ItemIDs: ids}, &resp)
	return resp, err
}

// ApplyInsight patches the insight's item with its recommendation.
func (c *Client) ApplyInsight(ctx context.Context, in Insight) (Item, error) {
	var item Item
	err := c.do(ctx, http.MethodPost, "/api/inventory/ai-insights/apply", nil, in, &item)
	return item, err
}

// Predict classifies an image without storing it.
func (c *Client) Predict(ctx context.Context, data []byte) (PredictResponse, error) {
	var resp PredictResponse
	req := PredictRequest{ImageBase64: base64.StdEncoding.EncodeToString(data)}
	err := c.do(ctx, http.MethodPost, "/api/predict", nil, req, &resp)
	return resp, err
}

// Predictions returns the prediction log, newest first.
func (c *Client) Predictions(ctx context.Context, limit int) ([]Prediction, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	var resp PredictionsResponse
	err := c.do(ctx, http.MethodGet, "/api/predictions", query, nil, &resp)
	return resp.Predictions, err
}

// Health reports server liveness and its preflight checks.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: c.base.Path + path, RawQuery: query.Encode()})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &Error{StatusCode: resp.StatusCode}
	var payload ErrorResponse
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
