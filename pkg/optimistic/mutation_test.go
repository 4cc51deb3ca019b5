package optimistic

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type likeView struct {
	Liked bool
	Count int
}

func like(v likeView) likeView {
	return likeView{Liked: true, Count: v.Count + 1}
}

func TestBeginCommit(t *testing.T) {
	m := New(likeView{Liked: false, Count: 3})
	assert.Equal(t, Idle, m.State())

	next, err := m.Begin(like)
	require.NoError(t, err)
	assert.Equal(t, likeView{Liked: true, Count: 4}, next)
	assert.Equal(t, Pending, m.State())
	assert.Equal(t, likeView{Liked: true, Count: 4}, m.Value())

	require.NoError(t, m.Commit(nil))
	assert.Equal(t, Committed, m.State())
	assert.Equal(t, likeView{Liked: true, Count: 4}, m.Value())
}

func TestCommitReconcilesAuthoritativeValue(t *testing.T) {
	m := New(likeView{Count: 3})
	_, err := m.Begin(like)
	require.NoError(t, err)

	server := likeView{Liked: true, Count: 9}
	require.NoError(t, m.Commit(&server))
	assert.Equal(t, server, m.Value())
}

func TestRollbackRestoresPrevious(t *testing.T) {
	m := New(likeView{Count: 3})
	_, err := m.Begin(like)
	require.NoError(t, err)
	require.NoError(t, m.Rollback())

	assert.Equal(t, RolledBack, m.State())
	assert.Equal(t, likeView{Count: 3}, m.Value())
}

func TestBeginWhilePendingIsSuppressed(t *testing.T) {
	m := New(1)
	_, err := m.Begin(func(int) int { return 2 })
	require.NoError(t, err)

	_, err = m.Begin(func(int) int { return 3 })
	assert.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, 2, m.Value())
}

func TestCommitWithoutBegin(t *testing.T) {
	m := New(1)
	assert.ErrorIs(t, m.Commit(nil), ErrNotPending)
	assert.ErrorIs(t, m.Rollback(), ErrNotPending)
}

func TestRunRollsBackOnFailure(t *testing.T) {
	m := New(likeView{Count: 1})
	boom := errors.New("network down")

	err := m.Run(context.Background(), like, func(ctx context.Context, next likeView) (*likeView, error) {
		assert.Equal(t, Pending, m.State())
		assert.Equal(t, likeView{Liked: true, Count: 2}, next)
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, RolledBack, m.State())
	assert.Equal(t, likeView{Count: 1}, m.Value())

	// the affordance is usable again after a rollback
	err = m.Run(context.Background(), like, func(ctx context.Context, next likeView) (*likeView, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, Committed, m.State())
	assert.Equal(t, likeView{Liked: true, Count: 2}, m.Value())
}

func TestRunDerivesFromLatestValue(t *testing.T) {
	m := New(0)
	increment := func(v int) int { return v + 1 }
	confirm := func(ctx context.Context, next int) (*int, error) { return &next, nil }

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for errors.Is(m.Run(context.Background(), increment, confirm), ErrInFlight) {
				runtime.Gosched()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, m.Value(), "no change is computed from a stale value")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "rolled_back", RolledBack.String())
	assert.Equal(t, "unknown", State(42).String())
}
