// Package anthropic implements the CompletionBackend interface for
// Anthropic Claude models.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/usherbot/usher/pkg/agentic/provider"
	"github.com/usherbot/usher/pkg/agentic/types"
)

// Backend implements provider.CompletionBackend for Anthropic Claude.
type Backend struct {
	client anthropic.Client
	model  string
}

// Config holds Anthropic-specific connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New creates a backend with the default API host.
func New(apiKey, model string) *Backend {
	return NewWithConfig(Config{APIKey: apiKey, Model: model})
}

// NewWithConfig creates a backend with custom connection settings.
func NewWithConfig(config Config) *Backend {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Backend{
		client: anthropic.NewClient(opts...),
		model:  config.Model,
	}
}

// ID returns the backend identifier.
func (b *Backend) ID() string {
	return fmt.Sprintf("anthropic:%s", b.model)
}

// Generate implements provider.CompletionBackend.
func (b *Backend) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	messages := b.convertMessages(req.Messages)

	msgReq := anthropic.MessageNewParams{
		Model:    anthropic.Model(b.model),
		Messages: messages,
	}

	if req.System != "" {
		msgReq.System = []anthropic.TextBlockParam{{
			Text: req.System,
			Type: "text",
		}}
	}

	// Anthropic requires max_tokens.
	if req.MaxTokens > 0 {
		msgReq.MaxTokens = int64(req.MaxTokens)
	} else {
		msgReq.MaxTokens = int64(4096)
	}

	if req.Temperature > 0 {
		msgReq.Temperature = anthropic.Float(float64(req.Temperature))
	}

	if req.TopP > 0 {
		msgReq.TopP = anthropic.Float(float64(req.TopP))
	}

	if tools := b.convertTools(req.Tools); len(tools) > 0 {
		msgReq.Tools = tools
	}

	resp, err := b.client.Messages.New(ctx, msgReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	response := &types.GenerateResponse{
		Model:        string(resp.Model),
		FinishReason: string(resp.StopReason),
		Usage: types.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}

	var textContent strings.Builder
	var toolCalls []types.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textContent.WriteString(block.Text)
		case "tool_use":
			args := make(map[string]any)
			if len(block.Input) > 0 {
				json.Unmarshal(block.Input, &args)
			}
			toolCalls = append(toolCalls, types.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	response.Content = textContent.String()
	response.ToolCalls = toolCalls

	return response, nil
}

func (b *Backend) convertMessages(turns []types.Turn) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(turns))

	for _, turn := range turns {
		var contentBlocks []anthropic.ContentBlockParamUnion

		// Tool observations become user messages carrying a tool_result block.
		if turn.Role == types.RoleTool {
			contentBlocks = append(contentBlocks, anthropic.NewToolResultBlock(
				turn.ToolCallID,
				turn.Content,
				false,
			))
			result = append(result, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: contentBlocks,
			})
			continue
		}

		if turn.Content != "" {
			contentBlocks = append(contentBlocks, anthropic.NewTextBlock(turn.Content))
		}

		if turn.Role == types.RoleAssistant && len(turn.ToolCalls) > 0 {
			for _, tc := range turn.ToolCalls {
				input := tc.Arguments
				if input == nil {
					input = make(map[string]any)
				}
				contentBlocks = append(contentBlocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
		}

		if len(contentBlocks) == 0 {
			continue
		}

		result = append(result, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(turn.Role),
			Content: contentBlocks,
		})
	}

	return result
}

func (b *Backend) convertTools(tools []types.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: "object",
		}

		if properties, ok := t.Parameters["properties"]; ok {
			inputSchema.Properties = properties
		}

		if required, ok := t.Parameters["required"].([]any); ok {
			reqStrings := make([]string, 0, len(required))
			for _, r := range required {
				if s, ok := r.(string); ok {
					reqStrings = append(reqStrings, s)
				}
			}
			inputSchema.Required = reqStrings
		} else if required, ok := t.Parameters["required"].([]string); ok {
			inputSchema.Required = required
		}

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: inputSchema,
		}

		result[i] = anthropic.ToolUnionParam{
			OfTool: &toolParam,
		}
	}
	return result
}
