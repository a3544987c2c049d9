package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/usherbot/usher/internal/managers"
	"github.com/usherbot/usher/pkg/agentic/agent"
	"github.com/usherbot/usher/pkg/agentic/types"
)

// AgentController serves the OpenAI-compatible completion endpoints. Each
// request resolves a session, takes its run gate and executes one planning
// run within the configured request budget.
type AgentController struct {
	sessionManager *managers.SessionManager
	loop           *agent.Loop
	requestTimeout time.Duration
	model          string
}

type AgentControllerDependencies struct {
	SessionManager *managers.SessionManager
	Loop           *agent.Loop
	RequestTimeout time.Duration
	Model          string
}

func NewAgentController(deps AgentControllerDependencies) *AgentController {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &AgentController{
		sessionManager: deps.SessionManager,
		loop:           deps.Loop,
		requestTimeout: timeout,
		model:          deps.Model,
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Messages    []ChatMessage `json:"messages"`
	SessionID   string        `json:"session_id"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p"`
}

type CompletionRequest struct {
	Prompt      string  `json:"prompt"`
	SessionID   string  `json:"session_id"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ResponseMetadata struct {
	SessionID           string   `json:"session_id"`
	ToolCallsCount      int      `json:"tool_calls_count"`
	ToolCalls           []string `json:"tool_calls"`
	HasMemory           bool     `json:"has_memory"`
	MemoryMessagesCount int      `json:"memory_messages_count"`
}

type ChatChoice struct {
	Message      ChatMessage `json:"message"`
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
}

type ChatCompletionResponse struct {
	ID       string           `json:"id"`
	Object   string           `json:"object"`
	Created  int64            `json:"created"`
	Model    string           `json:"model"`
	Choices  []ChatChoice     `json:"choices"`
	Usage    Usage            `json:"usage"`
	Metadata ResponseMetadata `json:"metadata"`
}

type TextChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
}

type CompletionResponse struct {
	ID       string           `json:"id"`
	Object   string           `json:"object"`
	Created  int64            `json:"created"`
	Model    string           `json:"model"`
	Choices  []TextChoice     `json:"choices"`
	Usage    Usage            `json:"usage"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ChatCompletion handles POST /v1/chat/completions.
func (c *AgentController) ChatCompletion(ctx fiber.Ctx) error {
	var req ChatCompletionRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	input := lastUserMessage(req.Messages)
	if input == "" {
		return fiber.NewError(fiber.StatusBadRequest, "No user message found in messages")
	}

	result, err := c.run(ctx.RequestCtx(), req.SessionID, input, agent.RunRequest{
		Input:       input,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(ChatCompletionResponse{
		ID:      "chatcmpl-" + xid.New().String(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   c.model,
		Choices: []ChatChoice{{
			Message:      ChatMessage{Role: "assistant", Content: result.trace.Answer},
			Index:        0,
			FinishReason: finishReason(result.trace.StopReason),
		}},
		Usage:    result.usage,
		Metadata: result.metadata,
	})
}

// Completion handles POST /v1/completions, the legacy text endpoint.
func (c *AgentController) Completion(ctx fiber.Ctx) error {
	var req CompletionRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Prompt is empty")
	}

	result, err := c.run(ctx.RequestCtx(), req.SessionID, req.Prompt, agent.RunRequest{
		Input:       req.Prompt,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(CompletionResponse{
		ID:      "cmpl-" + xid.New().String(),
		Object:  "text_completion",
		Created: time.Now().Unix(),
		Model:   c.model,
		Choices: []TextChoice{{
			Text:         result.trace.Answer,
			Index:        0,
			FinishReason: finishReason(result.trace.StopReason),
		}},
		Usage:    result.usage,
		Metadata: result.metadata,
	})
}

type runResult struct {
	trace    *types.RunTrace
	usage    Usage
	metadata ResponseMetadata
}

// run resolves the session, serializes on its gate and executes one
// planning run under the request budget.
func (c *AgentController) run(parent context.Context, sessionID, input string, req agent.RunRequest) (*runResult, error) {
	session, err := c.sessionManager.Resolve(sessionID)
	if err != nil {
		if errors.Is(err, types.ErrUnknownSession) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Unknown session: "+sessionID)
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to resolve session")
	}

	ctx, cancel := context.WithTimeout(parent, c.requestTimeout)
	defer cancel()

	if err := session.Acquire(ctx); err != nil {
		return nil, fiber.NewError(fiber.StatusGatewayTimeout, "Session is busy, request timed out waiting for it")
	}
	defer session.Release()

	req.Memory = session.Memory

	trace, err := c.loop.Run(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("session_id", session.ID).Msg("Planning run failed")
		if errors.Is(err, types.ErrBackendUnavailable) {
			if ctx.Err() != nil {
				return nil, fiber.NewError(fiber.StatusGatewayTimeout, "Request timed out talking to the language model")
			}
			return nil, fiber.NewError(fiber.StatusBadGateway, "Language model backend is unavailable")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Agent run failed")
	}

	toolNames := make([]string, 0, len(trace.Records))
	for _, record := range trace.Records {
		toolNames = append(toolNames, record.Name)
	}

	promptTokens := estimateTokens(input)
	completionTokens := estimateTokens(trace.Answer)

	return &runResult{
		trace: trace,
		usage: Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		metadata: ResponseMetadata{
			SessionID:           session.ID,
			ToolCallsCount:      len(trace.Records),
			ToolCalls:           toolNames,
			HasMemory:           session.Memory.Len() > 0,
			MemoryMessagesCount: session.Memory.Len(),
		},
	}, nil
}

// lastUserMessage returns the content of the most recent user message.
func lastUserMessage(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// estimateTokens approximates token counts by whitespace splitting.
func estimateTokens(s string) int {
	return len(strings.Fields(s))
}

func finishReason(reason types.StopReason) string {
	if reason == types.StopMaxIterations {
		return "length"
	}
	return "stop"
}
