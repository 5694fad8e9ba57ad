// Package viz serves the demo game state over HTTP for the browser
// visualization: game control (start/reset) plus read-only board, status and
// history views.
package viz

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"threechess/internal/sim"
)

// TelemetrySource fetches the agent service's raw memory snapshot.
type TelemetrySource func() (json.RawMessage, error)

type Handler struct {
	game      *sim.Game
	telemetry TelemetrySource // nil when no agent client is wired
}

func NewHandler(game *sim.Game, telemetry TelemetrySource) *Handler {
	return &Handler{game: game, telemetry: telemetry}
}

// NewFiberApp wires routes for the visualization server.
func NewFiberApp(game *sim.Game, telemetry TelemetrySource) *fiber.App {
	h := NewHandler(game, telemetry)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	app.Get("/health", h.Health)
	app.Get("/status", h.Status)
	app.Get("/board", h.Board)
	app.Get("/history", h.History)
	app.Get("/telemetry", h.Telemetry)
	app.Post("/start", h.Start)
	app.Post("/reset", h.Reset)

	return app
}

// Start begins (or resumes) the demo game; the background mover picks it up
// on its next tick.
func (h *Handler) Start(c *fiber.Ctx) error {
	h.game.Start()
	return c.JSON(h.game.Status())
}

// Reset returns the game to the initial position and pauses the mover.
func (h *Handler) Reset(c *fiber.Ctx) error {
	h.game.Reset()
	return c.JSON(h.game.Status())
}

// Status reports a consistent snapshot of the game.
func (h *Handler) Status(c *fiber.Ctx) error {
	return c.JSON(h.game.Status())
}

// Board returns the current board text as the engine formats it.
func (h *Handler) Board(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"board": h.game.BoardText(),
		"turn":  h.game.CurrentTurn(),
	})
}

// History returns the full move history with reasoning.
func (h *Handler) History(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"moves": h.game.History(),
	})
}

// Telemetry proxies the agent service's memory snapshot so the browser only
// talks to this server.
func (h *Handler) Telemetry(c *fiber.Ctx) error {
	if h.telemetry == nil {
		return fiber.NewError(fiber.StatusNotFound, "telemetry source not configured")
	}

	raw, err := h.telemetry()
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "agent service unreachable: "+err.Error())
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// Health check endpoint
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
