// Package client is a typed Go client for the fellowship API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// APIError is a non-2xx response decoded from the API's {error, details} body
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Author is the author block embedded in topics, posts and groups
type Author struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

// Topic is a forum thread as returned by the API
type Topic struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	CreatedAt   string    `json:"createdAt"`
	Views       int       `json:"views"`
	Replies     int       `json:"replies"`
	Author      Author    `json:"author"`
}

// Post is a reply with its nested replies
type Post struct {
	ID        uuid.UUID  `json:"id"`
	TopicID   uuid.UUID  `json:"topicId"`
	ParentID  *uuid.UUID `json:"parentId"`
	Content   string     `json:"content"`
	CreatedAt string     `json:"createdAt"`
	Likes     int        `json:"likes"`
	IsLiked   bool       `json:"isLiked"`
	Author    Author     `json:"author"`
	Replies   []*Post    `json:"replies"`
}

// Group is a small group as returned by the API
type Group struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Schedule     *string   `json:"schedule"`
	MembersCount int       `json:"membersCount"`
	IsJoined     bool      `json:"isJoined"`
	Creator      Author    `json:"creator"`
}

// TopicDetail is a topic with its posts
type TopicDetail struct {
	Topic *Topic  `json:"topic"`
	Posts []*Post `json:"posts"`
}

// TopicPage is a page of topics
type TopicPage struct {
	Topics     []*Topic `json:"topics"`
	TotalCount int      `json:"totalCount"`
}

// GroupPage is a page of groups
type GroupPage struct {
	Groups     []*Group `json:"groups"`
	TotalCount int      `json:"totalCount"`
}

// ListOptions filters and pages a listing. Zero values are omitted.
type ListOptions struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Category != "" {
		q.Set("category", o.Category)
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Client calls the API under baseURL, e.g. "https://example.org/api/v1"
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSessionToken sends token as a bearer credential on every request
func WithSessionToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL
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

// ListTopics returns a page of topics
func (c *Client) ListTopics(ctx context.Context, opts ListOptions) (*TopicPage, error) {
	var page TopicPage
	if err := c.do(ctx, http.MethodGet, "/topics"+opts.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Topic returns a topic with its posts
func (c *Client) Topic(ctx context.Context, id uuid.UUID) (*TopicDetail, error) {
	var detail TopicDetail
	if err := c.do(ctx, http.MethodGet, "/topics/"+id.String(), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateTopic starts a new topic
func (c *Client) CreateTopic(ctx context.Context, title, description, category string, tags []string) (*Topic, error) {
	body := map[string]interface{}{
		"title":       title,
		"description": description,
		"category":    category,
		"tags":        tags,
	}
	var resp struct {
		Topic *Topic `json:"topic"`
	}
	if err := c.do(ctx, http.MethodPost, "/topics", body, &resp); err != nil {
		return nil, err
	}
	return resp.Topic, nil
}

// CreatePost replies to a topic, or to a post when parentID is non-nil
func (c *Client) CreatePost(ctx context.Context, topicID uuid.UUID, content string, parentID *uuid.UUID) (*Post, error) {
	body := map[string]interface{}{"topicId": topicID, "content": content}
	if parentID != nil {
		body["parentId"] = parentID
	}
	var resp struct {
		Post *Post `json:"post"`
	}
	if err := c.do(ctx, http.MethodPost, "/posts", body, &resp); err != nil {
		return nil, err
	}
	return resp.Post, nil
}

// Like likes a post and returns its like count afterwards
func (c *Client) Like(ctx context.Context, postID uuid.UUID) (int, error) {
	var resp struct {
		Likes int `json:"likes"`
	}
	if err := c.do(ctx, http.MethodPost, "/likes", map[string]uuid.UUID{"postId": postID}, &resp); err != nil {
		return 0, err
	}
	return resp.Likes, nil
}

// Unlike removes the caller's like and returns the post's like count afterwards
func (c *Client) Unlike(ctx context.Context, postID uuid.UUID) (int, error) {
	var resp struct {
		Likes int `json:"likes"`
	}
	if err := c.do(ctx, http.MethodDelete, "/likes?postId="+postID.String(), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Likes, nil
}

// ListGroups returns a page of groups
func (c *Client) ListGroups(ctx context.Context, opts ListOptions) (*GroupPage, error) {
	opts.Search = ""
	var page GroupPage
	if err := c.do(ctx, http.MethodGet, "/groups"+opts.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// JoinGroup joins a group and returns its member count afterwards
func (c *Client) JoinGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	var resp struct {
		MembersCount int `json:"membersCount"`
	}
	if err := c.do(ctx, http.MethodPost, "/groups/"+groupID.String()+"/members", nil, &resp); err != nil {
		return 0, err
	}
	return resp.MembersCount, nil
}

// LeaveGroup leaves a group and returns its member count afterwards
func (c *Client) LeaveGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	var resp struct {
		MembersCount int `json:"membersCount"`
	}
	if err := c.do(ctx, http.MethodDelete, "/groups/"+groupID.String()+"/members", nil, &resp); err != nil {
		return 0, err
	}
	return resp.MembersCount, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
			apiErr.Details = payload.Details
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
