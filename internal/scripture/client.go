package scripture

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fkhayef/fellowship/pkg/apperror"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	maxResponseBytes   = 4 << 20
)

// Common errors
var (
	ErrChapterNotFound = apperror.NotFound("Chapter not found")
	ErrQueryRequired   = apperror.Validation("A search query is required")
)

// Chapter is the text of one chapter
type Chapter struct {
	Book      string  `json:"book"`
	Chapter   int     `json:"chapter"`
	Reference string  `json:"reference"`
	Verses    []Verse `json:"verses"`
}

// ClientConfig configures the Bible content API client
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches chapters and search results from the Bible content API
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *Cache
}

// NewClient creates a client. Chapters are served from cache when present.
func NewClient(cfg ClientConfig, cache *Cache) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
	}
}

// Chapter returns a chapter's verses, from cache when possible
func (c *Client) Chapter(ctx context.Context, book string, chapter int) (*Chapter, error) {
	b, ok := LookupBook(book)
	if !ok {
		return nil, ErrUnknownBook.WithDetails(book)
	}
	if chapter < 1 || chapter > b.Chapters {
		return nil, ErrChapterRange.WithDetails(fmt.Sprintf("%s has %d chapters", b.Name, b.Chapters))
	}

	if ch, ok := c.cache.Get(b.Name, chapter); ok {
		return ch, nil
	}

	ref := Reference{Book: b.Name, Chapter: chapter}
	endpoint := c.baseURL + "/" + url.PathEscape(ref.Format())

	var payload struct {
		Reference string  `json:"reference"`
		Verses    []Verse `json:"verses"`
	}
	if err := c.get(ctx, endpoint, &payload, ErrChapterNotFound); err != nil {
		return nil, err
	}

	ch := &Chapter{Book: b.Name, Chapter: chapter, Reference: payload.Reference, Verses: payload.Verses}
	if ch.Reference == "" {
		ch.Reference = ref.Format()
	}
	c.cache.Put(ch)
	return ch, nil
}

// Search runs a free-text search
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}
	if limit < 1 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var raw json.RawMessage
	if err := c.get(ctx, c.baseURL+"/search?"+params.Encode(), &raw, nil); err != nil {
		return nil, err
	}

	result, err := DecodeSearch(raw)
	if err != nil {
		return nil, apperror.Upstream("Scripture search failed", err)
	}
	return result, nil
}

// get decodes a JSON response into out. A 404 returns notFound when it is non-nil.
func (c *Client) get(ctx context.Context, endpoint string, out interface{}, notFound error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperror.Upstream("Scripture service unavailable", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Upstream("Scripture service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}
	if resp.StatusCode != http.StatusOK {
		return apperror.Upstream("Scripture service unavailable", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Path))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return apperror.Upstream("Scripture service unavailable", fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
