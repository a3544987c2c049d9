package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/usherbot/usher/internal/managers"
	"github.com/usherbot/usher/internal/version"
	"github.com/usherbot/usher/pkg/agentic/tool"
	"github.com/usherbot/usher/pkg/agentic/types"
)

// SessionController serves the service introspection and session
// management endpoints.
type SessionController struct {
	sessionManager *managers.SessionManager
	registry       *tool.Registry
	maxSessions    int
	sessionTimeout time.Duration
	provider       string
	model          string
}

type SessionControllerDependencies struct {
	SessionManager *managers.SessionManager
	Registry       *tool.Registry
	MaxSessions    int
	SessionTimeout time.Duration
	Provider       string
	Model          string
}

func NewSessionController(deps SessionControllerDependencies) *SessionController {
	return &SessionController{
		sessionManager: deps.SessionManager,
		registry:       deps.Registry,
		maxSessions:    deps.MaxSessions,
		sessionTimeout: deps.SessionTimeout,
		provider:       deps.Provider,
		model:          deps.Model,
	}
}

// Health handles GET /health.
func (c *SessionController) Health(ctx fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"status":          "healthy",
		"service":         "usher",
		"version":         version.GetVersion(),
		"tools_available": c.registry.Names(),
	})
}

// Status handles GET /status.
func (c *SessionController) Status(ctx fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"status":                "running",
		"active_sessions":       c.sessionManager.Len(),
		"max_sessions":          c.maxSessions,
		"session_timeout_hours": c.sessionTimeout.Hours(),
		"features": fiber.Map{
			"memory":          true,
			"planning":        true,
			"feedback_loop":   true,
			"multi_iteration": true,
		},
		"available_tools": c.registry.Names(),
		"llm_provider":    c.provider,
		"llm_model":       c.model,
	})
}

// Tools handles GET /tools.
func (c *SessionController) Tools(ctx fiber.Ctx) error {
	specs := c.registry.Specs()

	tools := make([]fiber.Map, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, fiber.Map{
			"name":        spec.Name,
			"description": spec.Description,
		})
	}

	return ctx.JSON(fiber.Map{
		"tools": tools,
		"count": len(tools),
	})
}

type SessionInfo struct {
	SessionID     string    `json:"session_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastActive    time.Time `json:"last_active"`
	RequestCount  int       `json:"request_count"`
	MemoryEntries int       `json:"memory_entries"`
}

func sessionInfo(s managers.SessionSummary) SessionInfo {
	return SessionInfo{
		SessionID:     s.ID,
		CreatedAt:     s.CreatedAt,
		LastActive:    s.LastActive,
		RequestCount:  s.RequestCount,
		MemoryEntries: s.MemoryTurns,
	}
}

// ListSessions handles GET /sessions.
func (c *SessionController) ListSessions(ctx fiber.Ctx) error {
	sessions := c.sessionManager.List()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, sessionInfo(session))
	}

	return ctx.JSON(fiber.Map{
		"sessions": infos,
		"total":    len(infos),
	})
}

// GetSession handles GET /sessions/:id.
func (c *SessionController) GetSession(ctx fiber.Ctx) error {
	id := ctx.Params("id")

	session, err := c.sessionManager.Get(id)
	if err != nil {
		if errors.Is(err, types.ErrUnknownSession) {
			return fiber.NewError(fiber.StatusNotFound, "Unknown session: "+id)
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to look up session")
	}

	return ctx.JSON(sessionInfo(session))
}

// DeleteSession handles DELETE /sessions/:id. Deleting an unknown session
// still acknowledges.
func (c *SessionController) DeleteSession(ctx fiber.Ctx) error {
	id := ctx.Params("id")
	c.sessionManager.Delete(id)

	return ctx.JSON(fiber.Map{
		"status":     "deleted",
		"session_id": id,
	})
}
