package post

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/fellowship/internal/profile"
	"github.com/fkhayef/fellowship/pkg/middleware"
)

type memoryStore struct {
	posts  []*Post
	likes  map[uuid.UUID]map[uuid.UUID]bool
	topics map[uuid.UUID]bool
	clock  time.Time
}

func newMemoryStore(topics ...uuid.UUID) *memoryStore {
	m := &memoryStore{
		likes:  make(map[uuid.UUID]map[uuid.UUID]bool),
		topics: make(map[uuid.UUID]bool),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, id := range topics {
		m.topics[id] = true
	}
	return m
}

func (m *memoryStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.topics[id], nil
}

func (m *memoryStore) ListByTopic(ctx context.Context, topicID uuid.UUID, viewer *uuid.UUID) ([]*Post, error) {
	var out []*Post
	for _, p := range m.posts {
		if p.TopicID != topicID {
			continue
		}
		clone := *p
		clone.IsLiked = viewer != nil && m.likes[p.ID][*viewer]
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memoryStore) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	for _, p := range m.posts {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) Create(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest) (*Post, error) {
	m.clock = m.clock.Add(time.Minute)
	p := &Post{
		ID:        uuid.New(),
		TopicID:   req.TopicID,
		AuthorID:  authorID,
		Content:   req.Content,
		ParentID:  req.ParentID,
		CreatedAt: m.clock,
		UpdatedAt: m.clock,
	}
	m.posts = append(m.posts, p)
	clone := *p
	return &clone, nil
}

func (m *memoryStore) Update(ctx context.Context, id uuid.UUID, content string) (*Post, error) {
	for _, p := range m.posts {
		if p.ID == id {
			p.Content = content
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) Delete(ctx context.Context, target *Post) error {
	kept := m.posts[:0]
	for _, p := range m.posts {
		if p.ID == target.ID || (p.ParentID != nil && *p.ParentID == target.ID) {
			delete(m.likes, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	m.posts = kept
	return nil
}

type staticDirectory map[uuid.UUID]string

func (d staticDirectory) Authors(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]profile.Author, error) {
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

type recordedPost struct {
	actor, post uuid.UUID
}

type activityLog []recordedPost

func (a *activityLog) PostCreated(ctx context.Context, actorID, postID uuid.UUID) {
	*a = append(*a, recordedPost{actor: actorID, post: postID})
}

func newTestService(topics ...uuid.UUID) (*Service, *memoryStore) {
	store := newMemoryStore(topics...)
	return NewService(store, store, staticDirectory{}, nil), store
}

func TestCreateReportsActivity(t *testing.T) {
	topicID := uuid.New()
	store := newMemoryStore(topicID)
	activity := &activityLog{}
	svc := NewService(store, store, staticDirectory{}, activity)
	author := uuid.New()

	created, err := svc.Create(context.Background(), author, &CreatePostRequest{TopicID: topicID, Content: "Amen"})
	require.NoError(t, err)
	assert.Equal(t, activityLog{{actor: author, post: created.ID}}, *activity)

	_, err = svc.Create(context.Background(), author, &CreatePostRequest{TopicID: topicID, Content: " "})
	assert.ErrorIs(t, err, ErrContentRequired)
	assert.Len(t, *activity, 1)
}

func TestCreateValidation(t *testing.T) {
	topicID := uuid.New()
	svc, _ := newTestService(topicID)
	ctx := context.Background()
	author := uuid.New()

	_, err := svc.Create(ctx, author, &CreatePostRequest{Content: "hello"})
	assert.ErrorIs(t, err, ErrTopicRequired)

	_, err = svc.Create(ctx, author, &CreatePostRequest{TopicID: topicID, Content: "   "})
	assert.ErrorIs(t, err, ErrContentRequired)

	_, err = svc.Create(ctx, author, &CreatePostRequest{TopicID: uuid.New(), Content: "hello"})
	assert.ErrorIs(t, err, ErrTopicNotFound)

	missing := uuid.New()
	_, err = svc.Create(ctx, author, &CreatePostRequest{TopicID: topicID, Content: "hello", ParentID: &missing})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestCreateStartsUnliked(t *testing.T) {
	topicID := uuid.New()
	svc, _ := newTestService(topicID)

	p, err := svc.Create(context.Background(), uuid.New(), &CreatePostRequest{TopicID: topicID, Content: " Praying for you "})
	require.NoError(t, err)

	assert.Equal(t, "Praying for you", p.Content)
	assert.Equal(t, 0, p.Likes)
	assert.False(t, p.IsLiked)
	assert.Nil(t, p.ParentID)
}

func TestReplyToReplyIsAttachedToTopLevelPost(t *testing.T) {
	topicID := uuid.New()
	svc, _ := newTestService(topicID)
	ctx := context.Background()
	author := uuid.New()

	root, err := svc.Create(ctx, author, &CreatePostRequest{TopicID: topicID, Content: "root"})
	require.NoError(t, err)
	reply, err := svc.Create(ctx, author, &CreatePostRequest{TopicID: topicID, Content: "reply", ParentID: &root.ID})
	require.NoError(t, err)
	nested, err := svc.Create(ctx, author, &CreatePostRequest{TopicID: topicID, Content: "nested", ParentID: &reply.ID})
	require.NoError(t, err)

	require.NotNil(t, nested.ParentID)
	assert.Equal(t, root.ID, *nested.ParentID)

	posts, err := svc.List(ctx, topicID, nil)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Len(t, posts[0].Replies, 2)
	assert.Equal(t, "reply", posts[0].Replies[0].Content)
	assert.Equal(t, "nested", posts[0].Replies[1].Content)
	assert.Empty(t, posts[0].Replies[0].Replies)
}

func TestParentFromAnotherTopicIsRejected(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	svc, _ := newTestService(first, second)
	ctx := context.Background()

	root, err := svc.Create(ctx, uuid.New(), &CreatePostRequest{TopicID: first, Content: "root"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, uuid.New(), &CreatePostRequest{TopicID: second, Content: "stray", ParentID: &root.ID})
	assert.ErrorIs(t, err, ErrParentMismatch)
}

func TestNestDropsOrphans(t *testing.T) {
	topicID := uuid.New()
	rootID := uuid.New()
	gone := uuid.New()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	posts := []*Post{
		{ID: rootID, TopicID: topicID, Content: "root", CreatedAt: base},
		{ID: uuid.New(), TopicID: topicID, Content: "orphan", ParentID: &gone, CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), TopicID: topicID, Content: "child", ParentID: &rootID, CreatedAt: base.Add(2 * time.Minute)},
	}

	nested := Nest(posts, nil)
	require.Len(t, nested, 1)
	require.Len(t, nested[0].Replies, 1)
	assert.Equal(t, "child", nested[0].Replies[0].Content)
	assert.Equal(t, profile.UnknownName, nested[0].Author.Name)
}

func TestIsLikedFollowsViewer(t *testing.T) {
	topicID := uuid.New()
	svc, store := newTestService(topicID)
	ctx := context.Background()
	liker := uuid.New()

	p, err := svc.Create(ctx, uuid.New(), &CreatePostRequest{TopicID: topicID, Content: "hi"})
	require.NoError(t, err)
	store.likes[p.ID] = map[uuid.UUID]bool{liker: true}

	posts, err := svc.List(ctx, topicID, &liker)
	require.NoError(t, err)
	assert.True(t, posts[0].IsLiked)

	other := uuid.New()
	posts, err = svc.List(ctx, topicID, &other)
	require.NoError(t, err)
	assert.False(t, posts[0].IsLiked)

	posts, err = svc.List(ctx, topicID, nil)
	require.NoError(t, err)
	assert.False(t, posts[0].IsLiked)
}

func TestOnlyAuthorCanEditOrDelete(t *testing.T) {
	topicID := uuid.New()
	svc, _ := newTestService(topicID)
	ctx := context.Background()
	author := uuid.New()
	stranger := uuid.New()

	root, err := svc.Create(ctx, author, &CreatePostRequest{TopicID: topicID, Content: "root"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, stranger, &CreatePostRequest{TopicID: topicID, Content: "reply", ParentID: &root.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, stranger, root.ID, &UpdatePostRequest{Content: "hijacked"})
	assert.ErrorIs(t, err, ErrNotAuthor)
	_, err = svc.Update(ctx, stranger, root.ID, &UpdatePostRequest{Content: "  "})
	assert.ErrorIs(t, err, ErrNotAuthor)
	assert.ErrorIs(t, svc.Delete(ctx, stranger, root.ID), ErrNotAuthor)

	updated, err := svc.Update(ctx, author, root.ID, &UpdatePostRequest{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	require.NoError(t, svc.Delete(ctx, author, root.ID))

	assert.ErrorIs(t, svc.Delete(ctx, author, root.ID), ErrPostNotFound)
}

func TestHandlerStatuses(t *testing.T) {
	topicID := uuid.New()
	svc, _ := newTestService(topicID)
	router := NewHandler(svc).Routes()
	author := uuid.New()

	body := `{"topicId":"` + topicID.String() + `","content":"Praying for you"}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), author))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"isLiked":false`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?topicId="+topicID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"replies":[]`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?topicId="+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?topicId=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
