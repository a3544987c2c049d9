// Package provider abstracts the text-generation backend behind a single
// blocking call, whether it is a cloud API or a local inference server
// speaking an OpenAI-compatible protocol.
package provider

import (
	"context"

	"github.com/usherbot/usher/pkg/agentic/types"
)

// CompletionBackend is the contract every backend must implement.
type CompletionBackend interface {
	// Generate produces a complete response (blocking).
	Generate(ctx context.Context, req GenerateRequest) (*types.GenerateResponse, error)

	// ID returns the identifier for this backend, e.g. "openai:gpt-4o".
	ID() string
}

// GenerateRequest contains all parameters for generating text.
type GenerateRequest struct {
	// Messages is the conversation history visible to the backend.
	Messages []types.Turn `json:"messages"`

	// System is an optional system prompt.
	System string `json:"system,omitempty"`

	// Tools is a list of tools available to the model.
	Tools []types.Tool `json:"tools,omitempty"`

	// Temperature controls randomness.
	Temperature float32 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int `json:"max_tokens,omitempty"`

	// TopP controls nucleus sampling.
	TopP float32 `json:"top_p,omitempty"`
}
