package managers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usherbot/usher/pkg/agentic/types"
)

func newTestManager(max int) (*SessionManager, *time.Time) {
	m := NewSessionManager(SessionManagerDependencies{MaxSessions: max, MemoryWindow: 10})

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestResolveCreatesSessionForEmptyID(t *testing.T) {
	m, _ := newTestManager(10)

	session, err := m.Resolve("")
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, 1, session.RequestCount)
	assert.NotNil(t, session.Memory)
	assert.Equal(t, 1, m.Len())
}

func TestResolveUnknownSessionFails(t *testing.T) {
	m, _ := newTestManager(10)

	_, err := m.Resolve("no-such-session")
	assert.ErrorIs(t, err, types.ErrUnknownSession)

	_, err = m.Get("no-such-session")
	assert.ErrorIs(t, err, types.ErrUnknownSession)
}

func TestResolveBumpsActivity(t *testing.T) {
	m, now := newTestManager(10)

	session, err := m.Resolve("")
	require.NoError(t, err)
	created := session.LastActive

	*now = now.Add(5 * time.Minute)

	again, err := m.Resolve(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, again)
	assert.Equal(t, 2, again.RequestCount)
	assert.True(t, again.LastActive.After(created))
}

func TestDeleteIsIdempotent(t *testing.T) {
	m, _ := newTestManager(10)

	session, err := m.Resolve("")
	require.NoError(t, err)

	m.Delete(session.ID)
	assert.Equal(t, 0, m.Len())

	// Second delete of the same id and deletes of unknown ids are no-ops.
	m.Delete(session.ID)
	m.Delete("never-existed")
	assert.Equal(t, 0, m.Len())
}

func TestListOrdersByCreation(t *testing.T) {
	m, now := newTestManager(10)

	first, _ := m.Resolve("")
	*now = now.Add(time.Minute)
	second, _ := m.Resolve("")
	*now = now.Add(time.Minute)
	third, _ := m.Resolve("")

	// Touching an old session must not change list order.
	_, err := m.Resolve(first.ID)
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, third.ID, list[2].ID)
}

func TestCapacityEvictsLeastRecentlyActive(t *testing.T) {
	m, now := newTestManager(3)

	a, _ := m.Resolve("")
	*now = now.Add(time.Minute)
	b, _ := m.Resolve("")
	*now = now.Add(time.Minute)
	c, _ := m.Resolve("")

	// Touch a so b becomes the least recently active.
	*now = now.Add(time.Minute)
	_, err := m.Resolve(a.ID)
	require.NoError(t, err)

	*now = now.Add(time.Minute)
	d, err := m.Resolve("")
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	_, err = m.Get(b.ID)
	assert.ErrorIs(t, err, types.ErrUnknownSession)

	for _, id := range []string{a.ID, c.ID, d.ID} {
		_, err := m.Get(id)
		assert.NoError(t, err)
	}
}

func TestExpireIdleRemovesStaleSessions(t *testing.T) {
	m, now := newTestManager(10)

	stale, _ := m.Resolve("")
	*now = now.Add(3 * time.Hour)
	fresh, _ := m.Resolve("")

	removed := m.ExpireIdle(2 * time.Hour)

	assert.Equal(t, 1, removed)
	_, err := m.Get(stale.ID)
	assert.ErrorIs(t, err, types.ErrUnknownSession)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestAcquireSerializesWithinSession(t *testing.T) {
	m, _ := newTestManager(10)

	session, err := m.Resolve("")
	require.NoError(t, err)

	require.NoError(t, session.Acquire(context.Background()))

	// A second acquisition on the same session times out while held.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, session.Acquire(ctx))

	session.Release()
	require.NoError(t, session.Acquire(context.Background()))
	session.Release()
}

func TestListAndGetDuringConcurrentResolves(t *testing.T) {
	m := NewSessionManager(SessionManagerDependencies{MaxSessions: 10, MemoryWindow: 10})

	session, err := m.Resolve("")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_, err := m.Resolve(session.ID)
			assert.NoError(t, err)
		}
	}()

	// Listings observe consistent copies while Resolve keeps bumping the
	// session's activity fields.
	for i := 0; i < 500; i++ {
		list := m.List()
		require.Len(t, list, 1)
		assert.Equal(t, session.ID, list[0].ID)
		assert.GreaterOrEqual(t, list[0].RequestCount, 1)
		assert.False(t, list[0].LastActive.IsZero())

		summary, err := m.Get(session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.ID, summary.ID)
	}

	<-done

	summary, err := m.Get(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 501, summary.RequestCount)
}

func TestAcquireDistinctSessionsDoNotBlock(t *testing.T) {
	m, _ := newTestManager(10)

	first, err := m.Resolve("")
	require.NoError(t, err)
	second, err := m.Resolve("")
	require.NoError(t, err)

	require.NoError(t, first.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, second.Acquire(ctx))

	first.Release()
	second.Release()
}
