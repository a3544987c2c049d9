package agent

import (
	"github.com/usherbot/usher/pkg/agentic/provider"
	"github.com/usherbot/usher/pkg/agentic/tool"
)

type Option func(*Loop)

func WithBackend(b provider.CompletionBackend) Option {
	return func(l *Loop) {
		l.Backend = b
	}
}

func WithRegistry(r *tool.Registry) Option {
	return func(l *Loop) {
		l.Registry = r
	}
}

func WithInvoker(inv *tool.Invoker) Option {
	return func(l *Loop) {
		l.Invoker = inv
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(l *Loop) {
		l.SystemPrompt = prompt
	}
}

func WithMaxIterations(iterations int) Option {
	return func(l *Loop) {
		l.MaxIterations = iterations
	}
}
