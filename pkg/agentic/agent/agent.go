// Package agent implements the bounded Think/Act/Reflect planning loop that
// turns one user message into a sequence of backend calls and tool
// invocations over a session's conversational memory.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/usherbot/usher/pkg/agentic/memory"
	"github.com/usherbot/usher/pkg/agentic/provider"
	"github.com/usherbot/usher/pkg/agentic/tool"
	"github.com/usherbot/usher/pkg/agentic/types"
)

// DefaultMaxIterations bounds a run to five Think/Act rounds, matching the
// original deployment.
const DefaultMaxIterations = 5

// Loop drives the planning state machine. The loop itself is deterministic
// given the sequence of backend responses; all non-determinism lives in the
// backend. One Loop serves one session and is serialized by its owner.
type Loop struct {
	MaxIterations int
	SystemPrompt  string
	Registry      *tool.Registry
	Invoker       *tool.Invoker
	Backend       provider.CompletionBackend

	now func() time.Time
}

// New builds a Loop from options. Backend, Registry and Invoker are
// required.
func New(opts ...Option) (*Loop, error) {
	l := &Loop{
		now: time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.Backend == nil {
		return nil, errors.New("backend is required")
	}
	if l.Registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if l.Invoker == nil {
		return nil, errors.New("tool invoker is required")
	}

	if l.MaxIterations <= 0 {
		l.MaxIterations = DefaultMaxIterations
	}
	if l.SystemPrompt == "" {
		l.SystemPrompt = DefaultSystemPrompt
	}

	return l, nil
}

// RunRequest carries one user message into the loop together with the
// session memory it must run against and the sampling parameters forwarded
// to the backend.
type RunRequest struct {
	Input       string
	Memory      *memory.Window
	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Run executes one bounded planning run. The returned trace always carries
// a terminal stop reason; the error is non-nil only for backend failures,
// in which case session memory is left intact for a retry.
func (l *Loop) Run(ctx context.Context, req RunRequest) (*types.RunTrace, error) {
	mem := req.Memory
	if mem == nil {
		mem = memory.NewWindow(0)
	}

	trace := &types.RunTrace{}

	mem.Append(types.Turn{
		Role:      types.RoleUser,
		Content:   req.Input,
		Timestamp: l.now(),
	})

	// The best partial content carried out of the loop when iterations run
	// out without a terminal answer.
	var partial string

	for iteration := 1; iteration <= l.MaxIterations; iteration++ {
		resp, err := l.Backend.Generate(ctx, provider.GenerateRequest{
			Messages:    mem.Snapshot(),
			System:      l.SystemPrompt,
			Tools:       l.Registry.Specs(),
			Temperature: req.Temperature,
			TopP:        req.TopP,
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			log.Error().Err(err).Int("iteration", iteration).Msg("Backend call failed")
			trace.StopReason = types.StopBackendError
			return trace, fmt.Errorf("%w: %v", types.ErrBackendUnavailable, err)
		}

		trace.Usage = trace.Usage.Add(resp.Usage)

		// Terminal answer: no tool requested.
		if len(resp.ToolCalls) == 0 {
			mem.Append(types.Turn{
				Role:      types.RoleAssistant,
				Content:   resp.Content,
				Timestamp: l.now(),
			})
			trace.Answer = resp.Content
			trace.StopReason = types.StopAnswered
			return trace, nil
		}

		if resp.Content != "" {
			partial = resp.Content
		}

		mem.Append(types.Turn{
			Role:      types.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			Timestamp: l.now(),
		})

		for _, call := range resp.ToolCalls {
			record, err := l.Invoker.Invoke(ctx, call)
			trace.Records = append(trace.Records, record)

			if err != nil {
				// Unknown tool or schema violation: not retried, not fed
				// back for replanning. The run stops with a deterministic
				// explanation as its answer.
				log.Warn().Err(err).Str("tool", call.Name).Msg("Unrecoverable tool request")

				answer := fmt.Sprintf("I'm sorry, I couldn't complete that request: %v.", err)

				mem.Append(types.Turn{
					Role:       types.RoleTool,
					Content:    record.Error,
					ToolCallID: call.ID,
					Timestamp:  l.now(),
				})
				mem.Append(types.Turn{
					Role:      types.RoleAssistant,
					Content:   answer,
					Timestamp: l.now(),
				})

				trace.Answer = answer
				trace.StopReason = types.StopToolError
				return trace, nil
			}

			observation := record.Output
			if record.Status == types.CallFailed {
				observation = fmt.Sprintf("Error: %s", record.Error)
			}

			mem.Append(types.Turn{
				Role:       types.RoleTool,
				Content:    observation,
				ToolCallID: call.ID,
				Timestamp:  l.now(),
			})

			log.Debug().
				Str("tool", call.Name).
				Str("status", string(record.Status)).
				Int("iteration", iteration).
				Msg("Tool call recorded")
		}
	}

	// Iterations exhausted without a terminal answer. Return the best
	// partial content rather than raising.
	if partial == "" {
		partial = "I wasn't able to finish working on that request within the allowed number of steps."
	}

	mem.Append(types.Turn{
		Role:      types.RoleAssistant,
		Content:   partial,
		Timestamp: l.now(),
	})

	trace.Answer = partial
	trace.StopReason = types.StopMaxIterations
	return trace, nil
}
