// Package raindrop is a minimal client for the Raindrop.io REST API,
// covering the highlight endpoints the import flow needs.
package raindrop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.raindrop.io/rest/v1"
	highlightsPage = 50

	// FlashcardColor is the highlight color that marks a capture as ready
	// for card generation.
	FlashcardColor = "orange"
)

// Client errors.
var (
	ErrMissingToken = errors.New("raindrop token not configured")
	ErrInvalidToken = errors.New("invalid raindrop token")
)

// Highlight is one text capture from Raindrop.io.
type Highlight struct {
	ID      string    `json:"_id"`
	Text    string    `json:"text"`
	Color   string    `json:"color"`
	Link    string    `json:"link"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
}

// ExternalKey returns the stable dedup key for the highlight.
func (h Highlight) ExternalKey() string {
	return "raindrop_highlight_" + h.ID
}

// FlashcardReady reports whether the highlight's color marks it for card
// generation.
func (h Highlight) FlashcardReady() bool {
	return strings.EqualFold(h.Color, FlashcardColor)
}

// Client calls the Raindrop.io REST API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a Raindrop client for the given token.
func NewClient(token string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With(slog.String("component", "raindrop_client")),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.token == "" {
		return ErrMissingToken
	}

	target := c.baseURL + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build raindrop request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("raindrop request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("raindrop API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode raindrop response: %w", err)
	}

	return nil
}

// ListHighlights fetches every highlight page by page. When since is
// non-zero, highlights created at or before that instant are dropped.
func (c *Client) ListHighlights(ctx context.Context, since time.Time) ([]Highlight, error) {
	var all []Highlight

	for page := 0; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("perpage", strconv.Itoa(highlightsPage))

		var body struct {
			Items []Highlight `json:"items"`
		}
		if err := c.get(ctx, "/highlights", params, &body); err != nil {
			return nil, fmt.Errorf("failed to list highlights (page %d): %w", page, err)
		}

		for _, h := range body.Items {
			if !since.IsZero() && !h.Created.After(since) {
				continue
			}
			all = append(all, h)
		}

		if len(body.Items) < highlightsPage {
			break
		}
	}

	c.logger.Debug("fetched raindrop highlights", slog.Int("count", len(all)))

	return all, nil
}

// TestConnection verifies the token by fetching the account it belongs to.
// Returns the account email on success.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	var body struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := c.get(ctx, "/user", nil, &body); err != nil {
		return "", err
	}

	if body.User.Email == "" {
		return "unknown", nil
	}

	return body.User.Email, nil
}
