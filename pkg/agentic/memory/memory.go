// Package memory holds the bounded conversational history of one session.
package memory

import (
	"sync"

	"github.com/usherbot/usher/pkg/agentic/types"
)

// Window is an ordered log of turns bounded to the most recent exchanges.
// An exchange is opened by a user turn; once more than size exchanges are
// retained, the oldest exchange and every turn belonging to it are dropped.
//
// The session gate serializes writers, but readers (session listings,
// response metadata) run concurrently with an in-flight run, so the turn
// log is guarded by its own mutex.
type Window struct {
	mu    sync.Mutex
	size  int
	turns []types.Turn
}

// DefaultWindowSize matches the original deployment default of ten
// retained exchanges.
const DefaultWindowSize = 10

// NewWindow creates a window retaining up to size exchanges. A size of
// zero or less falls back to DefaultWindowSize.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{size: size}
}

// Append adds a turn and trims the oldest exchanges until the window bound
// holds again. System turns are never stored; the system prompt is supplied
// per-request by the planning loop.
func (w *Window) Append(turn types.Turn) {
	if turn.Role == types.RoleSystem {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.turns = append(w.turns, turn)
	w.trim()
}

func (w *Window) trim() {
	for w.exchanges() > w.size {
		// Drop the oldest exchange: the leading turn plus everything up to
		// the next user turn.
		i := 1
		for i < len(w.turns) && w.turns[i].Role != types.RoleUser {
			i++
		}
		w.turns = w.turns[i:]
	}
}

func (w *Window) exchanges() int {
	n := 0
	for i := range w.turns {
		if w.turns[i].Role == types.RoleUser {
			n++
		}
	}
	return n
}

// Exchanges counts the user turns currently retained.
func (w *Window) Exchanges() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exchanges()
}

// Snapshot returns a copy of the retained turns in insertion order.
func (w *Window) Snapshot() []types.Turn {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]types.Turn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Len returns the number of retained turns of any role.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

// Size returns the configured exchange bound.
func (w *Window) Size() int {
	return w.size
}
