package managers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// maxSweepInterval caps how long the reaper sleeps between sweeps even
// when the session timeout is very large.
const maxSweepInterval = 10 * time.Minute

// SessionReaper periodically expires idle sessions. It is a supplement to
// the on-create eviction in the manager, not a replacement; the store
// stays bounded even if the reaper never runs.
type SessionReaper struct {
	manager  *SessionManager
	timeout  time.Duration
	interval time.Duration
}

type SessionReaperDependencies struct {
	Manager *SessionManager
	Timeout time.Duration
}

func NewSessionReaper(deps SessionReaperDependencies) *SessionReaper {
	interval := deps.Timeout / 2
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	if interval < time.Second {
		interval = time.Second
	}

	return &SessionReaper{
		manager:  deps.Manager,
		timeout:  deps.Timeout,
		interval: interval,
	}
}

// Run sweeps until ctx is cancelled. Call it on its own goroutine.
func (r *SessionReaper) Run(ctx context.Context) {
	log.Info().Dur("timeout", r.timeout).Dur("interval", r.interval).Msg("Session reaper started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Session reaper stopped")
			return
		case <-ticker.C:
			r.manager.ExpireIdle(r.timeout)
		}
	}
}
