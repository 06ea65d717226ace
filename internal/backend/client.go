// Package backend writes saved map features to the hosted database through
// its REST table endpoints (PostgREST style, as exposed by Supabase).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Table names on the backend.
const (
	PinsTable  = "pins"
	AreasTable = "areas"
)

// ErrNotConfigured is returned when no backend URL is set.
var ErrNotConfigured = errors.New("backend not configured")

// Config holds backend connection settings.
type Config struct {
	BaseURL       string        // e.g. https://xyz.supabase.co
	APIKey        string        // project anon key, sent as the apikey header
	AccessToken   string        // user session JWT, sent as a bearer token
	SessionCookie string        // raw Cookie header value, if the session lives in a cookie
	Timeout       time.Duration // zero means no client timeout
}

// Client creates pin and area rows.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New creates a backend client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Configured reports whether a backend URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.BaseURL != ""
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Row is a created table row as returned by the backend.
type Row map[string]any

// ID returns the row's id column as a string.
func (r Row) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// APIError is a structured error response from the backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("backend %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("backend %d: %s", e.Status, msg)
}

// insert posts body to a table and returns the created row.
func (c *Client) insert(ctx context.Context, table string, body any) (Row, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s row: %w", table, err)
	}

	url := c.cfg.BaseURL + "/rest/v1/" + table
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "return=representation")
	if c.cfg.APIKey != "" {
		req.Header.Set("apikey", c.cfg.APIKey)
	}
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}
	if c.cfg.SessionCookie != "" {
		req.Header.Set("Cookie", c.cfg.SessionCookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if len(data) > 0 && json.Unmarshal(data, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		c.logger.Debug("backend insert rejected",
			zap.String("table", table), zap.Int("status", resp.StatusCode), zap.String("code", apiErr.Code))
		return nil, apiErr
	}

	// The row exists once the backend answered 2xx. A proxy that ignores
	// return=representation may send no body, or one we can't read.
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Row{}, nil
	}

	// return=representation yields an array with the inserted row.
	var rows []Row
	if err := json.Unmarshal(data, &rows); err == nil {
		if len(rows) == 0 {
			return Row{}, nil
		}
		return rows[0], nil
	}
	var row Row
	if err := json.Unmarshal(data, &row); err != nil {
		c.logger.Warn("undecodable backend insert response",
			zap.String("table", table), zap.Int("status", resp.StatusCode), zap.Error(err))
		return Row{}, nil
	}
	return row, nil
}
