package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/fellowship/pkg/optimistic"
)

// fakeAPI serves the like and membership endpoints for one post and one group
type fakeAPI struct {
	mu      sync.Mutex
	likes   int
	liked   bool
	members int
	joined  bool
	fail    bool
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/likes", func(w http.ResponseWriter, r *http.Request) {
		if f.block != nil {
			f.entered <- struct{}{}
			<-f.block
		}
		f.mu.Lock()
		defer f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		if f.fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Something went wrong. Please try again later."})
			return
		}
		switch r.Method {
		case http.MethodPost:
			if f.liked {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "You have already liked this post"})
				return
			}
			f.liked = true
			f.likes++
			writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "likes": f.likes})
		case http.MethodDelete:
			f.liked = false
			f.likes--
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "likes": f.likes})
		}
	})
	mux.HandleFunc("/api/v1/groups/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodPost:
			f.joined = true
			f.members++
			writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "membersCount": f.members})
		case http.MethodDelete:
			if f.fail {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "You are the only admin of this group. Promote another member to admin before leaving.",
				})
				return
			}
			f.joined = false
			f.members--
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "membersCount": f.members})
		}
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func newTestClient(t *testing.T, api *fakeAPI, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1/", WithSessionToken(token), WithHTTPClient(srv.Client()))
}

func TestLikeToggleCommitsServerCount(t *testing.T) {
	api := &fakeAPI{likes: 4}
	notifier := &recordingNotifier{}
	toggle := NewLikeToggle(newTestClient(t, api, "token"), uuid.New(), LikeState{Likes: 3}, notifier, nil)

	require.NoError(t, toggle.Toggle(context.Background()))
	assert.Equal(t, LikeState{Liked: true, Likes: 5}, toggle.State(), "server count wins")
	assert.False(t, toggle.Busy())

	require.NoError(t, toggle.Toggle(context.Background()))
	assert.Equal(t, LikeState{Liked: false, Likes: 4}, toggle.State())
	assert.Empty(t, notifier.messages)
}

func TestLikeToggleRollsBackAndNotifies(t *testing.T) {
	api := &fakeAPI{fail: true}
	notifier := &recordingNotifier{}
	toggle := NewLikeToggle(newTestClient(t, api, "token"), uuid.New(), LikeState{Likes: 2}, notifier, nil)

	err := toggle.Toggle(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)

	assert.Equal(t, LikeState{Likes: 2}, toggle.State())
	assert.Equal(t, []string{"We couldn't update your like. Please try again."}, notifier.messages)
}

func TestLikeToggleUnauthenticated(t *testing.T) {
	notifier := &recordingNotifier{}
	toggle := NewLikeToggle(newTestClient(t, &fakeAPI{}, ""), uuid.New(), LikeState{}, notifier, nil)

	require.Error(t, toggle.Toggle(context.Background()))
	assert.Equal(t, LikeState{}, toggle.State())
	assert.Equal(t, []string{"Please sign in to continue."}, notifier.messages)
}

func TestLikeToggleSuppressesDuplicateClicks(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	toggle := NewLikeToggle(newTestClient(t, api, "token"), uuid.New(), LikeState{}, nil, nil)

	done := make(chan error, 1)
	go func() { done <- toggle.Toggle(context.Background()) }()

	<-api.entered
	assert.True(t, toggle.Busy())
	assert.Equal(t, LikeState{Liked: true, Likes: 1}, toggle.State(), "optimistic value shown while pending")
	assert.ErrorIs(t, toggle.Toggle(context.Background()), optimistic.ErrInFlight)

	close(api.block)
	require.NoError(t, <-done)
	assert.Equal(t, LikeState{Liked: true, Likes: 1}, toggle.State())
}

func TestLikeToggleConcurrentClicksAlternate(t *testing.T) {
	api := &fakeAPI{}
	notifier := &recordingNotifier{}
	toggle := NewLikeToggle(newTestClient(t, api, "token"), uuid.New(), LikeState{}, notifier, nil)

	errs := make(chan error, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				err := toggle.Toggle(context.Background())
				if !errors.Is(err, optimistic.ErrInFlight) {
					errs <- err
					return
				}
				runtime.Gosched()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err, "each click flips the state it actually sees")
	}
	assert.Equal(t, LikeState{Liked: false, Likes: 0}, toggle.State())
	assert.False(t, api.liked)
	assert.Empty(t, notifier.messages)
}

func TestMembershipToggleShowsGuardMessage(t *testing.T) {
	api := &fakeAPI{members: 1}
	notifier := &recordingNotifier{}
	toggle := NewMembershipToggle(newTestClient(t, api, "token"), uuid.New(), MembershipState{Members: 1}, notifier, nil)

	require.NoError(t, toggle.Toggle(context.Background()))
	assert.Equal(t, MembershipState{Joined: true, Members: 2}, toggle.State())

	api.mu.Lock()
	api.fail = true
	api.mu.Unlock()

	require.Error(t, toggle.Toggle(context.Background()))
	assert.Equal(t, MembershipState{Joined: true, Members: 2}, toggle.State())
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Promote another member")
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/topics", r.URL.Path)
		assert.Equal(t, "Prayer Requests", r.URL.Query().Get("category"))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid category", "details": "try again"})
	}))
	defer srv.Close()

	_, err := New(srv.URL+"/api/v1").ListTopics(context.Background(), ListOptions{Category: "Prayer Requests"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, &APIError{Status: http.StatusBadRequest, Message: "Invalid category", Details: "try again"}, apiErr)
}
