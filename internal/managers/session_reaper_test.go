package managers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaperIntervalDerivation(t *testing.T) {
	m, _ := newTestManager(10)

	r := NewSessionReaper(SessionReaperDependencies{Manager: m, Timeout: 2 * time.Hour})
	assert.Equal(t, maxSweepInterval, r.interval)

	r = NewSessionReaper(SessionReaperDependencies{Manager: m, Timeout: 2 * time.Minute})
	assert.Equal(t, time.Minute, r.interval)

	r = NewSessionReaper(SessionReaperDependencies{Manager: m, Timeout: 200 * time.Millisecond})
	assert.Equal(t, time.Second, r.interval)
}

func TestReaperSweepsIdleSessions(t *testing.T) {
	m, now := newTestManager(10)

	stale, err := m.Resolve("")
	require.NoError(t, err)
	*now = now.Add(time.Hour)

	r := NewSessionReaper(SessionReaperDependencies{Manager: m, Timeout: 30 * time.Minute})
	r.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	assert.Eventually(t, func() bool {
		return m.Len() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()

	_, err = m.Get(stale.ID)
	assert.Error(t, err)
}
