package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"soundscape/internal/config"
)

const userAgent = "Soundscape/0.1.0"

// Sound is one catalog row as served by the remote source.
type Sound struct {
	Key       string    `json:"title"`
	AudioURL  string    `json:"audio_url"`
	ImageURL  string    `json:"background_image_url"`
	Category  string    `json:"category"`
	Premium   bool      `json:"is_premium"`
	CreatedAt time.Time `json:"created_at"`
}

// Client fetches catalog rows and asset payloads over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	table   string
	client  *http.Client
}

// New builds a client from the remote config section.
func New(cfg config.Remote) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		table:   cfg.Table,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) tableURL() string {
	return fmt.Sprintf("%s/rest/v1/%s", c.baseURL, c.table)
}

func (c *Client) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// FetchCatalog retrieves all catalog rows ordered by creation time.
func (c *Client) FetchCatalog(ctx context.Context) ([]Sound, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.tableURL()+"?select=*&order=created_at.asc")
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, httpError("fetch catalog", resp)
	}

	var sounds []Sound
	if err := json.NewDecoder(resp.Body).Decode(&sounds); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return sounds, nil
}

// FetchCount returns the remote row count without transferring rows. It asks
// PostgREST for an exact count over an empty range and reads the total from
// the Content-Range header.
func (c *Client) FetchCount(ctx context.Context) (int, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.tableURL()+"?select=title")
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range-Unit", "items")
	req.Header.Set("Range", "0-0")
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch count: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return 0, httpError("fetch count", resp)
	}

	return parseContentRangeTotal(resp.Header.Get("Content-Range"))
}

// FetchBytes downloads an asset payload by URL. Asset URLs point at public
// storage, so no auth headers are attached.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build asset request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, httpError("fetch asset", resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read asset body: %w", err)
	}
	return data, nil
}

// Ping reports whether the remote endpoint is reachable and accepting the
// configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodHead, c.baseURL+"/rest/v1/")
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping remote: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("ping remote: status %d", resp.StatusCode)
	}
	return nil
}

// parseContentRangeTotal extracts the total from a header like "0-0/57".
// PostgREST reports "*/0" for an empty table.
func parseContentRangeTotal(header string) (int, error) {
	header = strings.TrimSpace(header)
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("malformed Content-Range header %q", header)
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("remote did not report an exact count in %q", header)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("parse Content-Range total %q: %w", header, err)
	}
	return n, nil
}

func httpError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return fmt.Errorf("%s: remote returned %d", operation, resp.StatusCode)
	}
	return fmt.Errorf("%s: remote returned %d: %s", operation, resp.StatusCode, detail)
}
