// Package opds searches a circulation manager through its OPDS search
// endpoint.
package opds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazycirc/internal/filter"
	"github.com/rebeliceyang/lazycirc/internal/models"
	"github.com/rebeliceyang/lazycirc/internal/search"
)

// Name identifies this backend in history and logs
const Name = "opds"

// Config holds client settings
type Config struct {
	BaseURL   string
	Library   string
	Username  string
	Password  string
	Timeout   time.Duration
	CacheSize int
}

// Client searches one library of a circulation manager
type Client struct {
	cfg    Config
	http   *http.Client
	cache  *lru.Cache[string, *models.SearchResult]
	logger *zap.Logger
}

var _ search.Searcher = (*Client)(nil)

// New creates an OPDS client. A CacheSize of zero disables caching.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("server base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid server base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, *models.SearchResult](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Name implements search.Searcher
func (c *Client) Name() string {
	return Name
}

// SearchURL returns the request URL for req
func (c *Client) SearchURL(req models.SearchRequest) (string, error) {
	param, err := filter.QueryParam(req.Query)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("q", param)
	if req.Size > 0 {
		q.Set("size", strconv.Itoa(req.Size))
	}
	if req.After > 0 {
		q.Set("after", strconv.Itoa(req.After))
	}

	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return base + "/" + url.PathEscape(c.cfg.Library) + "/search?" + q.Encode(), nil
}

// Search implements search.Searcher
func (c *Client) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	u, err := c.SearchURL(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build search URL: %w", err)
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(u); ok {
			c.logger.Debug("search cache hit", zap.String("url", u))
			result := *cached
			result.Entries = slices.Clone(cached.Entries)
			return &result, nil
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/atom+xml;profile=opds-catalog;kind=acquisition")
	if c.cfg.Username != "" {
		httpReq.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	c.logger.Debug("search request", zap.String("url", u))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, search.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &search.StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        u,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	page, err := ParseFeed(resp.Body)
	if err != nil {
		return nil, err
	}

	result := &models.SearchResult{
		Entries: page.Entries,
		After:   req.After,
		Next:    req.After + len(page.Entries),
		HasMore: page.HasNext,
		Backend: Name,
	}
	if page.NextAfter > 0 {
		result.Next = page.NextAfter
	}

	if c.cache != nil {
		stored := *result
		stored.Entries = slices.Clone(result.Entries)
		c.cache.Add(u, &stored)
	}
	return result, nil
}

// Purge drops every cached page, e.g. after the catalog changed
func (c *Client) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}
