// Package openai implements the CompletionBackend interface against any
// OpenAI-compatible chat completions endpoint, cloud or local.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"github.com/usherbot/usher/pkg/agentic/provider"
	"github.com/usherbot/usher/pkg/agentic/types"
)

// Backend implements provider.CompletionBackend for OpenAI-compatible APIs.
type Backend struct {
	client *openai.Client
	model  string
}

// Config holds the connection settings. BaseURL overrides the default API
// host, which is how local inference servers and compatible cloud vendors
// are reached.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New creates a backend for the default OpenAI API host.
func New(apiKey, model string) *Backend {
	return NewWithConfig(Config{APIKey: apiKey, Model: model})
}

// NewWithConfig creates a backend with custom connection settings.
func NewWithConfig(config Config) *Backend {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &Backend{
		client: openai.NewClientWithConfig(clientConfig),
		model:  config.Model,
	}
}

// ID returns the backend identifier.
func (b *Backend) ID() string {
	return fmt.Sprintf("openai:%s", b.model)
}

// Generate implements provider.CompletionBackend.
func (b *Backend) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    b.convertMessages(req.Messages, req.System),
		Tools:       b.convertTools(req.Tools),
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}

	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	resp, err := b.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	response := &types.GenerateResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
		Usage: types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	if len(choice.Message.ToolCalls) > 0 {
		response.ToolCalls = make([]types.ToolCall, len(choice.Message.ToolCalls))
		for i, tc := range choice.Message.ToolCalls {
			var args map[string]any
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					log.Warn().Err(err).Str("tool", tc.Function.Name).Msg("Failed to decode tool call arguments")
				}
			}
			response.ToolCalls[i] = types.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: args,
			}
		}
	}

	return response, nil
}

func (b *Backend) convertMessages(turns []types.Turn, system string) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(turns)+1)

	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, turn := range turns {
		if turn.Role == types.RoleTool {
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    turn.Content,
				ToolCallID: turn.ToolCallID,
			})
			continue
		}

		msg := openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		}

		if len(turn.ToolCalls) > 0 {
			toolCalls := make([]openai.ToolCall, len(turn.ToolCalls))
			for i, tc := range turn.ToolCalls {
				argsJSON, _ := json.Marshal(tc.Arguments)
				toolCalls[i] = openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(argsJSON),
					},
				}
			}
			msg.ToolCalls = toolCalls
		}

		result = append(result, msg)
	}

	return result
}

func (b *Backend) convertTools(tools []types.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}
