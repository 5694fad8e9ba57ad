// Package http exposes the move agent over a RESTful API: move resolution for
// the external game engine plus the agent-memory reporting endpoint.
package http

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"threechess/internal/agent"
)

var validate = validator.New()

type Handler struct {
	agent         *agent.Agent
	storageHealth func() string // nil when persistence disabled
}

func NewHandler(a *agent.Agent, storageHealth func() string) *Handler {
	return &Handler{agent: a, storageHealth: storageHealth}
}

// NewFiberApp wires middleware and routes for the move service.
func NewFiberApp(a *agent.Agent, storageHealth func() string, devMode bool) *fiber.App {
	h := NewHandler(a, storageHealth)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		// LLM calls dominate request time; the write timeout must outlast them.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  30 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health and root status (no rate limit)
	app.Get("/health", h.Health)
	app.Get("/", h.Root)

	// Rate limiter: one in-flight move per second per IP is plenty for a
	// turn-based game; relaxed in dev mode.
	maxReq := 2
	if devMode {
		maxReq = 20
	}
	limited := app.Group("")
	limited.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	limited.Use(contentTypeValidator)
	limited.Use(validationMiddleware)

	limited.Post("/get-move", h.GetMove)
	limited.Get("/agent-memory", h.AgentMemory)

	return app
}

// contentTypeValidator ensures POST requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		contentType := c.Get("Content-Type")
		if contentType != "application/json" && contentType != "" {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(ErrorResponse{
				Error:   "unsupported media type",
				Code:    ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// validationMiddleware parses and validates POST bodies by path.
func validationMiddleware(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Next()
	}

	var requestType interface{}
	switch {
	case strings.HasSuffix(c.Path(), "/get-move"):
		requestType = &MoveRequest{}
	default:
		return c.Next()
	}

	if err := c.BodyParser(requestType); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid request body",
			Code:    ErrInvalidRequest,
			Details: err.Error(),
		})
	}

	if errs := validate.Struct(requestType); errs != nil {
		var details strings.Builder
		for _, err := range errs.(validator.ValidationErrors) {
			if details.Len() > 0 {
				details.WriteString("; ")
			}
			switch err.Tag() {
			case "required":
				details.WriteString(fmt.Sprintf("%s is required", err.Field()))
			case "oneof":
				details.WriteString(fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param()))
			case "min":
				if err.Type().Kind() == reflect.String {
					details.WriteString(fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param()))
				} else {
					details.WriteString(fmt.Sprintf("%s must be at least %s", err.Field(), err.Param()))
				}
			default:
				details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
			}
		}

		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation failed",
			Code:    ErrInvalidRequest,
			Details: details.String(),
		})
	}

	c.Locals("validatedBody", requestType)
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := ErrorResponse{
		Error: "internal server error",
		Code:  ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusBadRequest:
			response.Code = ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// GetMove resolves a move for the current color. The response always carries
// a syntactically valid move; extraction and provider failures are absorbed
// by the agent's fallback cascade.
func (h *Handler) GetMove(c *fiber.Ctx) error {
	req, ok := c.Locals("validatedBody").(*MoveRequest)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "missing request body")
	}

	move, _ := h.agent.GetMove(c.Context(), req.BoardState, req.CurrentColor, req.ErrorFeedback)

	// The reasoning comes from the memory log, whose newest record is the
	// move just resolved.
	return c.JSON(MoveResponse{
		Move:      move,
		Reasoning: h.agent.Memory().LastReasoning(),
	})
}

// AgentMemory reports the accumulated telemetry of this service instance.
func (h *Handler) AgentMemory(c *fiber.Ctx) error {
	return c.JSON(h.agent.Memory().Snapshot())
}

// Health check endpoint
func (h *Handler) Health(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().Unix(),
		Moves:  h.agent.Memory().MoveCount(),
	}
	if h.storageHealth != nil {
		resp.Storage = h.storageHealth()
	}
	return c.JSON(resp)
}

// Root reports service liveness.
func (h *Handler) Root(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Status:  "ok",
		Message: "LLM Chess API is running",
	})
}
