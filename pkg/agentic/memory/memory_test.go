package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usherbot/usher/pkg/agentic/types"
)

func appendExchange(w *Window, n int) {
	w.Append(types.Turn{Role: types.RoleUser, Content: fmt.Sprintf("question %d", n)})
	w.Append(types.Turn{Role: types.RoleAssistant, Content: fmt.Sprintf("answer %d", n)})
}

func TestWindowKeepsRecentExchanges(t *testing.T) {
	w := NewWindow(3)

	for i := 1; i <= 10; i++ {
		appendExchange(w, i)
	}

	assert.Equal(t, 3, w.Exchanges())
	assert.Equal(t, 6, w.Len())

	turns := w.Snapshot()
	require.Len(t, turns, 6)
	assert.Equal(t, "question 8", turns[0].Content)
	assert.Equal(t, "answer 10", turns[5].Content)
}

func TestWindowUnderCapacityKeepsEverything(t *testing.T) {
	w := NewWindow(10)

	for i := 1; i <= 4; i++ {
		appendExchange(w, i)
	}

	assert.Equal(t, 4, w.Exchanges())
	assert.Equal(t, 8, w.Len())
	assert.Equal(t, "question 1", w.Snapshot()[0].Content)
}

func TestWindowDropsWholeExchange(t *testing.T) {
	w := NewWindow(2)

	// First exchange carries a tool round between user and answer.
	w.Append(types.Turn{Role: types.RoleUser, Content: "fetch the bottle"})
	w.Append(types.Turn{Role: types.RoleAssistant, ToolCalls: []types.ToolCall{{Name: "get_water_bottle"}}})
	w.Append(types.Turn{Role: types.RoleTool, Content: "sequence sent"})
	w.Append(types.Turn{Role: types.RoleAssistant, Content: "done"})

	appendExchange(w, 2)
	appendExchange(w, 3)

	turns := w.Snapshot()
	require.Equal(t, 2, w.Exchanges())
	assert.Equal(t, "question 2", turns[0].Content)

	// No orphaned tool turns from the dropped exchange.
	for _, turn := range turns {
		assert.NotEqual(t, types.RoleTool, turn.Role)
	}
}

func TestWindowIgnoresSystemTurns(t *testing.T) {
	w := NewWindow(5)

	w.Append(types.Turn{Role: types.RoleSystem, Content: "persona"})
	w.Append(types.Turn{Role: types.RoleUser, Content: "hello"})

	assert.Equal(t, 1, w.Len())
	assert.Equal(t, types.RoleUser, w.Snapshot()[0].Role)
}

func TestWindowConcurrentReadersDuringAppends(t *testing.T) {
	w := NewWindow(5)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 200; i++ {
			appendExchange(w, i)
		}
	}()

	// Len and Snapshot run concurrently with the appender, as session
	// listings do with an in-flight run.
	for i := 0; i < 200; i++ {
		n := w.Len()
		assert.GreaterOrEqual(t, n, 0)
		assert.LessOrEqual(t, len(w.Snapshot()), 10)
		assert.LessOrEqual(t, w.Exchanges(), 5)
	}

	<-done
	assert.Equal(t, 5, w.Exchanges())
}

func TestNewWindowDefaultsSize(t *testing.T) {
	assert.Equal(t, DefaultWindowSize, NewWindow(0).Size())
	assert.Equal(t, DefaultWindowSize, NewWindow(-1).Size())
	assert.Equal(t, 7, NewWindow(7).Size())
}
