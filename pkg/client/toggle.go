package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/fkhayef/fellowship/pkg/optimistic"
)

// Notifier shows a short message to the user, such as a toast
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// LikeState is what a like button shows
type LikeState struct {
	Liked bool
	Likes int
}

// MembershipState is what a join button shows
type MembershipState struct {
	Joined  bool
	Members int
}

// LikeToggle drives one post's like button
type LikeToggle struct {
	api      *Client
	postID   uuid.UUID
	mutation *optimistic.Mutation[LikeState]
	notifier Notifier
	logger   *slog.Logger
}

// NewLikeToggle creates a like button showing initial
func NewLikeToggle(api *Client, postID uuid.UUID, initial LikeState, notifier Notifier, logger *slog.Logger) *LikeToggle {
	if logger == nil {
		logger = slog.Default()
	}
	return &LikeToggle{
		api:      api,
		postID:   postID,
		mutation: optimistic.New(initial),
		notifier: notifier,
		logger:   logger,
	}
}

// State returns what the button shows right now
func (t *LikeToggle) State() LikeState { return t.mutation.Value() }

// Busy reports whether the button should be disabled
func (t *LikeToggle) Busy() bool { return t.mutation.State() == optimistic.Pending }

// Toggle flips the like immediately, then confirms with the server. On failure
// the button reverts and the user is notified. A click while a request is in
// flight returns optimistic.ErrInFlight and changes nothing.
func (t *LikeToggle) Toggle(ctx context.Context) error {
	var liked bool
	err := t.mutation.Run(ctx, func(current LikeState) LikeState {
		if current.Liked {
			return LikeState{Liked: false, Likes: max(current.Likes-1, 0)}
		}
		return LikeState{Liked: true, Likes: current.Likes + 1}
	}, func(ctx context.Context, next LikeState) (*LikeState, error) {
		liked = next.Liked
		var likes int
		var err error
		if next.Liked {
			likes, err = t.api.Like(ctx, t.postID)
		} else {
			likes, err = t.api.Unlike(ctx, t.postID)
		}
		if err != nil {
			return nil, err
		}
		return &LikeState{Liked: next.Liked, Likes: likes}, nil
	})
	if err != nil && !errors.Is(err, optimistic.ErrInFlight) {
		t.logger.WarnContext(ctx, "like change rolled back", "post_id", t.postID, "liked", liked, "error", err)
		notify(t.notifier, err, "We couldn't update your like. Please try again.")
	}
	return err
}

// MembershipToggle drives one group's join/leave button
type MembershipToggle struct {
	api      *Client
	groupID  uuid.UUID
	mutation *optimistic.Mutation[MembershipState]
	notifier Notifier
	logger   *slog.Logger
}

// NewMembershipToggle creates a join button showing initial
func NewMembershipToggle(api *Client, groupID uuid.UUID, initial MembershipState, notifier Notifier, logger *slog.Logger) *MembershipToggle {
	if logger == nil {
		logger = slog.Default()
	}
	return &MembershipToggle{
		api:      api,
		groupID:  groupID,
		mutation: optimistic.New(initial),
		notifier: notifier,
		logger:   logger,
	}
}

// State returns what the button shows right now
func (t *MembershipToggle) State() MembershipState { return t.mutation.Value() }

// Busy reports whether the button should be disabled
func (t *MembershipToggle) Busy() bool { return t.mutation.State() == optimistic.Pending }

// Toggle joins or leaves the group, optimistically
func (t *MembershipToggle) Toggle(ctx context.Context) error {
	var joined bool
	err := t.mutation.Run(ctx, func(current MembershipState) MembershipState {
		if current.Joined {
			return MembershipState{Joined: false, Members: max(current.Members-1, 0)}
		}
		return MembershipState{Joined: true, Members: current.Members + 1}
	}, func(ctx context.Context, next MembershipState) (*MembershipState, error) {
		joined = next.Joined
		var members int
		var err error
		if next.Joined {
			members, err = t.api.JoinGroup(ctx, t.groupID)
		} else {
			members, err = t.api.LeaveGroup(ctx, t.groupID)
		}
		if err != nil {
			return nil, err
		}
		return &MembershipState{Joined: next.Joined, Members: members}, nil
	})
	if err != nil && !errors.Is(err, optimistic.ErrInFlight) {
		t.logger.WarnContext(ctx, "membership change rolled back", "group_id", t.groupID, "joined", joined, "error", err)
		fallback := "We couldn't join this group. Please try again."
		if !joined {
			fallback = "We couldn't remove you from this group. Please try again."
		}
		notify(t.notifier, err, fallback)
	}
	return err
}

// notify picks a short message for err. Guard messages from the API (for
// example the last-admin rule) are written for people and shown as they are.
func notify(n Notifier, err error, fallback string) {
	if n == nil {
		return
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			n.Notify("Please sign in to continue.")
			return
		case apiErr.Status == http.StatusBadRequest && apiErr.Message != "":
			n.Notify(apiErr.Message)
			return
		}
	}
	n.Notify(fallback)
}
