package like

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

	"github.com/fkhayef/fellowship/pkg/middleware"
)

type ledger struct {
	counts map[uuid.UUID]int
	likes  map[[2]uuid.UUID]bool
}

func newLedger(posts ...uuid.UUID) *ledger {
	l := &ledger{counts: make(map[uuid.UUID]int), likes: make(map[[2]uuid.UUID]bool)}
	for _, id := range posts {
		l.counts[id] = 0
	}
	return l
}

func (l *ledger) Create(ctx context.Context, userID, postID uuid.UUID) (*Like, int, error) {
	if _, ok := l.counts[postID]; !ok {
		return nil, 0, ErrPostNotFound
	}
	key := [2]uuid.UUID{userID, postID}
	if l.likes[key] {
		return nil, 0, ErrAlreadyLiked
	}
	l.likes[key] = true
	l.counts[postID]++
	return &Like{UserID: userID, PostID: postID, CreatedAt: time.Now()}, l.counts[postID], nil
}

func (l *ledger) Delete(ctx context.Context, userID, postID uuid.UUID) (int, error) {
	key := [2]uuid.UUID{userID, postID}
	if !l.likes[key] {
		return 0, ErrLikeNotFound
	}
	delete(l.likes, key)
	l.counts[postID]--
	return l.counts[postID], nil
}

func TestLikeOnceThenConflict(t *testing.T) {
	postID := uuid.New()
	store := newLedger(postID)
	svc := NewService(store, nil)
	ctx := context.Background()
	user := uuid.New()

	resp, err := svc.Like(ctx, user, postID)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Likes)

	_, err = svc.Like(ctx, user, postID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)
	assert.Equal(t, 1, store.counts[postID])
}

func TestLikeThenUnlikeRestoresCount(t *testing.T) {
	postID := uuid.New()
	store := newLedger(postID)
	store.counts[postID] = 4
	svc := NewService(store, nil)
	ctx := context.Background()
	user := uuid.New()

	_, err := svc.Like(ctx, user, postID)
	require.NoError(t, err)

	resp, err := svc.Unlike(ctx, user, postID)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Likes)

	_, err = svc.Unlike(ctx, user, postID)
	assert.ErrorIs(t, err, ErrLikeNotFound)
}

type likeActivity struct {
	liked []uuid.UUID
}

func (a *likeActivity) PostLiked(ctx context.Context, actorID, postID uuid.UUID) {
	a.liked = append(a.liked, postID)
}

func TestLikeReportsActivityOnlyOnSuccess(t *testing.T) {
	postID := uuid.New()
	activity := &likeActivity{}
	svc := NewService(newLedger(postID), activity)
	user := uuid.New()

	_, err := svc.Like(context.Background(), user, postID)
	require.NoError(t, err)
	_, err = svc.Like(context.Background(), user, postID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)

	assert.Equal(t, []uuid.UUID{postID}, activity.liked)
}

func TestLikeValidation(t *testing.T) {
	svc := NewService(newLedger(), nil)

	_, err := svc.Like(context.Background(), uuid.New(), uuid.Nil)
	assert.ErrorIs(t, err, ErrPostRequired)

	_, err = svc.Like(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestHandler(t *testing.T) {
	postID := uuid.New()
	router := NewHandler(NewService(newLedger(postID), nil)).Routes()
	user := uuid.New()
	body := `{"postId":"` + postID.String() + `"}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	send := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req = req.WithContext(middleware.WithUserID(req.Context(), user))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec = send(http.MethodPost, "/", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"likes":1`)

	rec = send(http.MethodPost, "/", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"You have already liked this post"}`, rec.Body.String())

	rec = send(http.MethodDelete, "/?postId="+postID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"likes":0}`, rec.Body.String())

	rec = send(http.MethodDelete, "/?postId="+postID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = send(http.MethodDelete, "/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
