package topic

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/fellowship/internal/post"
	"github.com/fkhayef/fellowship/internal/profile"
	"github.com/fkhayef/fellowship/pkg/metrics"
	"github.com/fkhayef/fellowship/pkg/middleware"
)

// forum keeps topics and posts in memory; topicStore and postStore expose it
// through the two store interfaces
type forum struct {
	topics     map[uuid.UUID]*Topic
	posts      []*post.Post
	clock      time.Time
	viewsError error
}

func newForum() *forum {
	return &forum{
		topics: make(map[uuid.UUID]*Topic),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *forum) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

type topicStore struct{ *forum }

func (s topicStore) Create(ctx context.Context, authorID uuid.UUID, req *CreateTopicRequest) (*Topic, error) {
	now := s.tick()
	t := &Topic{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        append([]string(nil), req.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.topics[t.ID] = t
	clone := *t
	return &clone, nil
}

func (s topicStore) GetByID(ctx context.Context, id uuid.UUID) (*Topic, error) {
	t, ok := s.topics[id]
	if !ok {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (s topicStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := s.topics[id]
	return ok, nil
}

func (s topicStore) List(ctx context.Context, params ListParams) ([]*Topic, int, error) {
	var matched []*Topic
	for _, t := range s.topics {
		if params.Category != "" && t.Category != params.Category {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(t.Title+" "+t.Description), strings.ToLower(params.Search)) {
			continue
		}
		matched = append(matched, t)
	}
	for i := 1; i < len(matched); i++ {
		for j := i; j > 0 && matched[j].CreatedAt.After(matched[j-1].CreatedAt); j-- {
			matched[j], matched[j-1] = matched[j-1], matched[j]
		}
	}

	total := len(matched)
	if params.Offset >= total {
		return nil, total, nil
	}
	end := params.Offset + params.Limit
	if end > total {
		end = total
	}
	return matched[params.Offset:end], total, nil
}

func (s topicStore) CountReplies(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, p := range s.posts {
		if p.IsTopLevel() {
			counts[p.TopicID]++
		}
	}
	return counts, nil
}

func (s topicStore) IncrementViews(ctx context.Context, id uuid.UUID) (int, error) {
	if s.viewsError != nil {
		return 0, s.viewsError
	}
	s.topics[id].ViewsCount++
	return s.topics[id].ViewsCount, nil
}

func (s topicStore) Update(ctx context.Context, id uuid.UUID, req *UpdateTopicRequest) (*Topic, error) {
	t, ok := s.topics[id]
	if !ok {
		return nil, nil
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Category != nil {
		t.Category = *req.Category
	}
	if req.Tags != nil {
		t.Tags = append([]string(nil), req.Tags...)
	}
	clone := *t
	return &clone, nil
}

func (s topicStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.topics[id]; !ok {
		return ErrTopicNotFound
	}
	delete(s.topics, id)
	kept := s.posts[:0]
	for _, p := range s.posts {
		if p.TopicID != id {
			kept = append(kept, p)
		}
	}
	s.posts = kept
	return nil
}

type postStore struct{ *forum }

func (s postStore) ListByTopic(ctx context.Context, topicID uuid.UUID, viewer *uuid.UUID) ([]*post.Post, error) {
	var out []*post.Post
	for _, p := range s.posts {
		if p.TopicID == topicID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s postStore) GetByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	for _, p := range s.posts {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (s postStore) Create(ctx context.Context, authorID uuid.UUID, req *post.CreatePostRequest) (*post.Post, error) {
	now := s.tick()
	p := &post.Post{ID: uuid.New(), TopicID: req.TopicID, AuthorID: authorID, Content: req.Content, ParentID: req.ParentID, CreatedAt: now, UpdatedAt: now}
	s.posts = append(s.posts, p)
	clone := *p
	return &clone, nil
}

func (s postStore) Update(ctx context.Context, id uuid.UUID, content string) (*post.Post, error) {
	return nil, errors.New("not used")
}

func (s postStore) Delete(ctx context.Context, p *post.Post) error {
	return errors.New("not used")
}

type namedDirectory map[uuid.UUID]string

func (d namedDirectory) Authors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]profile.Author, error) {
	out := make(map[uuid.UUID]profile.Author, len(ids))
	for _, id := range ids {
		a := profile.UnknownAuthor(id)
		if name, ok := d[id]; ok {
			a.Name = name
		}
		out[id] = a
	}
	return out, nil
}

type fixture struct {
	forum    *forum
	topics   *Service
	posts    *post.Service
	recorder *metrics.Recorder
}

func newFixture(directory namedDirectory) *fixture {
	f := newForum()
	posts := post.NewService(postStore{f}, topicStore{f}, directory, nil)
	recorder := metrics.NewRecorder()
	return &fixture{
		forum:    f,
		topics:   NewService(topicStore{f}, posts, directory, nil, recorder),
		posts:    posts,
		recorder: recorder,
	}
}

func prayerRequest() *CreateTopicRequest {
	return &CreateTopicRequest{
		Title:       "Prayer request",
		Description: "Please pray for my mother",
		Category:    "Prayer Requests",
		Tags:        TagList{"prayer", " healing", "prayer", ""},
	}
}

func TestCreateTopic(t *testing.T) {
	author := uuid.New()
	fx := newFixture(namedDirectory{author: "Hannah"})

	topic, err := fx.topics.Create(context.Background(), author, prayerRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"prayer", "healing"}, topic.Tags)
	assert.Equal(t, 0, topic.Replies)
	assert.Equal(t, 0, topic.Views)
	assert.Equal(t, "Hannah", topic.Author.Name)
}

func TestCreateTopicValidation(t *testing.T) {
	fx := newFixture(nil)
	ctx := context.Background()

	_, err := fx.topics.Create(ctx, uuid.New(), &CreateTopicRequest{Title: "x", Description: " ", Category: "Worship"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = fx.topics.Create(ctx, uuid.New(), &CreateTopicRequest{Title: "x", Description: "y", Category: "Gossip"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestReplyCountTracksTopLevelPosts(t *testing.T) {
	fx := newFixture(nil)
	ctx := context.Background()
	author := uuid.New()

	topic, err := fx.topics.Create(ctx, author, prayerRequest())
	require.NoError(t, err)

	var first *post.PostResponse
	for i := 0; i < 3; i++ {
		p, err := fx.posts.Create(ctx, author, &post.CreatePostRequest{TopicID: topic.ID, Content: "Praying for you"})
		require.NoError(t, err)
		if first == nil {
			first = p
		}
	}
	_, err = fx.posts.Create(ctx, author, &post.CreatePostRequest{TopicID: topic.ID, Content: "Amen", ParentID: &first.ID})
	require.NoError(t, err)

	detail, err := fx.topics.Get(ctx, topic.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.Topic.Replies)
	require.Len(t, detail.Posts, 3)
	assert.Len(t, detail.Posts[0].Replies, 1)

	list, err := fx.topics.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, list.Topics, 1)
	assert.Equal(t, 3, list.Topics[0].Replies)
}

func TestDetailIncrementsViews(t *testing.T) {
	fx := newFixture(nil)
	ctx := context.Background()

	topic, err := fx.topics.Create(ctx, uuid.New(), prayerRequest())
	require.NoError(t, err)

	detail, err := fx.topics.Get(ctx, topic.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Topic.Views)

	detail, err = fx.topics.Get(ctx, topic.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.Topic.Views)
}

func TestViewIncrementFailureDoesNotFailRead(t *testing.T) {
	fx := newFixture(nil)
	ctx := context.Background()

	topic, err := fx.topics.Create(ctx, uuid.New(), prayerRequest())
	require.NoError(t, err)
	fx.forum.viewsError = errors.New("connection reset")

	detail, err := fx.topics.Get(ctx, topic.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Topic.Views)

	out, err := testutil.GatherAndCount(fx.recorder.Gatherer(), "fellowship_bookkeeping_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, out)
}

func TestListPaginationDefaults(t *testing.T) {
	fx := newFixture(nil)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := fx.topics.Create(ctx, uuid.New(), prayerRequest())
		require.NoError(t, err)
	}

	list, err := fx.topics.List(ctx, ListParams{Limit: 0, Offset: -5})
	require.NoError(t, err)
	assert.Len(t, list.Topics, 20)
	assert.Equal(t, 25, list.TotalCount)

	list, err = fx.topics.List(ctx, ListParams{Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Len(t, list.Topics, 5)

	all, err := fx.topics.List(ctx, ListParams{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, all.Topics, 25)
	for i := 1; i < len(all.Topics); i++ {
		assert.GreaterOrEqual(t, all.Topics[i-1].CreatedAt, all.Topics[i].CreatedAt, "newest first")
	}
}

func TestOnlyAuthorCanChangeTopic(t *testing.T) {
	fx := newFixture(nil)
	ctx := context.Background()
	author, stranger := uuid.New(), uuid.New()

	topic, err := fx.topics.Create(ctx, author, prayerRequest())
	require.NoError(t, err)

	title := "Updated"
	_, err = fx.topics.Update(ctx, stranger, topic.ID, &UpdateTopicRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotAuthor)

	badCategory := "Knitting"
	_, err = fx.topics.Update(ctx, stranger, topic.ID, &UpdateTopicRequest{Category: &badCategory})
	assert.ErrorIs(t, err, ErrNotAuthor, "ownership is checked before the input")
	assert.ErrorIs(t, fx.topics.Delete(ctx, stranger, topic.ID), ErrNotAuthor)

	updated, err := fx.topics.Update(ctx, author, topic.ID, &UpdateTopicRequest{Title: &title, Tags: TagList{"a", "a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, []string{"a", "b"}, updated.Tags)

	_, err = fx.posts.Create(ctx, stranger, &post.CreatePostRequest{TopicID: topic.ID, Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, fx.topics.Delete(ctx, author, topic.ID))
	assert.Empty(t, fx.forum.posts)

	_, err = fx.topics.Get(ctx, topic.ID, nil)
	assert.ErrorIs(t, err, ErrTopicNotFound)
}

func TestHandlerScenario(t *testing.T) {
	fx := newFixture(nil)
	router := NewHandler(fx.topics).Routes()
	author, stranger := uuid.New(), uuid.New()

	body := `{"title":"Prayer request","description":"...","category":"Prayer Requests","tags":"prayer, healing"}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), author))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tags":["prayer","healing"]`)
	assert.Contains(t, rec.Body.String(), `"replies":0`)
	assert.Contains(t, rec.Body.String(), `"views":0`)

	var id uuid.UUID
	for k := range fx.forum.topics {
		id = k
	}

	req = httptest.NewRequest(http.MethodDelete, "/"+id.String(), nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), stranger))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"t","description":"d","category":"Worship","tags":5}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), author))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
}

func TestHandlerHidesDecodeErrors(t *testing.T) {
	fx := newFixture(nil)
	router := NewHandler(fx.topics).Routes()
	author := uuid.New()
	topic, err := fx.topics.Create(context.Background(), author, prayerRequest())
	require.NoError(t, err)

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/"},
		{http.MethodPut, "/" + topic.ID.String()},
	} {
		req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(`{"title": 12`))
		req = req.WithContext(middleware.WithUserID(req.Context(), author))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.method)
		assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String(), tc.method)
	}
}
