// Package sim drives a demo three-player game for the visualization server.
// It tracks turn rotation and move history only; piece movement and legality
// live in the external engine, so the demo board is a static opening position
// with a rotating turn marker.
package sim

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Game statuses.
const (
	StatusReady    = "ready"
	StatusRunning  = "running"
	StatusFinished = "finished"
)

// InitialBoard is the demo opening position in the engine's line-oriented
// board text format.
const InitialBoard = `Current turn: BLUE

BLUE pieces:
BA1:ROOK
BB1:KNIGHT
BC1:BISHOP
BA2:PAWN
BB2:PAWN
BC2:PAWN
BB4:KING
BC4:QUEEN

GREEN pieces:
GA1:ROOK
GB1:KNIGHT
GC1:BISHOP
GA2:PAWN
GB2:PAWN
GC2:PAWN
GB4:KING
GC4:QUEEN

RED pieces:
RA1:ROOK
RB1:KNIGHT
RC1:BISHOP
RA2:PAWN
RB2:PAWN
RC2:PAWN
RB4:KING
RC4:QUEEN

BLUE time: 300000
GREEN time: 300000
RED time: 300000
`

// MoveEntry is one applied (or attempted) move in the demo game.
type MoveEntry struct {
	Color     string    `json:"color"`
	Move      string    `json:"move"`
	Reasoning string    `json:"reasoning"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusView is a consistent snapshot of the game for the status endpoint.
type StatusView struct {
	GameID    string     `json:"gameId"`
	Status    string     `json:"status"`
	Turn      string     `json:"turn"`
	MoveCount int        `json:"moveCount"`
	LastMove  *MoveEntry `json:"lastMove,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Game is the shared demo game state. It is written by the background mover
// and read by HTTP handlers concurrently, so every access goes through the
// mutex.
type Game struct {
	mu        sync.Mutex
	id        string
	boardText string
	turn      string
	status    string
	history   []MoveEntry
	lastError string
}

// NewGame creates a game in the ready state.
func NewGame() *Game {
	g := &Game{id: uuid.New().String()}
	g.resetLocked()
	return g
}

func (g *Game) resetLocked() {
	g.boardText = InitialBoard
	g.turn = "BLUE"
	g.status = StatusReady
	g.history = nil
	g.lastError = ""
}

// Start puts the game into the running state.
func (g *Game) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = StatusRunning
	g.lastError = ""
}

// Reset returns the game to the initial position and stops the mover.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

// Finish marks the game finished; the mover stops picking it up.
func (g *Game) Finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = StatusFinished
}

// StatusValue returns the current status.
func (g *Game) StatusValue() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// CurrentTurn returns the color to move.
func (g *Game) CurrentTurn() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

// BoardText returns the board in the engine's wire format.
func (g *Game) BoardText() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boardText
}

// History returns a copy of the move history.
func (g *Game) History() []MoveEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]MoveEntry(nil), g.history...)
}

// Status returns a consistent snapshot for the status endpoint.
func (g *Game) Status() StatusView {
	g.mu.Lock()
	defer g.mu.Unlock()

	view := StatusView{
		GameID:    g.id,
		Status:    g.status,
		Turn:      g.turn,
		MoveCount: len(g.history),
		Error:     g.lastError,
	}
	if len(g.history) > 0 {
		last := g.history[len(g.history)-1]
		view.LastMove = &last
	}
	return view
}

// ApplyMove records a move and rotates the turn.
func (g *Game) ApplyMove(color, move, reasoning string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.history = append(g.history, MoveEntry{
		Color:     color,
		Move:      move,
		Reasoning: reasoning,
		Timestamp: time.Now(),
	})
	g.lastError = ""
	g.rotateTurnLocked()
}

// RecordFailure notes a failed move fetch and rotates to the next player so
// one stuck provider cannot stall the demo.
func (g *Game) RecordFailure(color string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastError = "failed to get a valid move for " + color + ": " + err.Error()
	g.rotateTurnLocked()
}

// rotateTurnLocked advances BLUE -> GREEN -> RED -> BLUE and rewrites the
// turn line in the board text. Caller holds the lock.
func (g *Game) rotateTurnLocked() {
	switch g.turn {
	case "BLUE":
		g.turn = "GREEN"
	case "GREEN":
		g.turn = "RED"
	default:
		g.turn = "BLUE"
	}

	lines := strings.Split(g.boardText, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "Current turn:") {
			lines[i] = "Current turn: " + g.turn
			break
		}
	}
	g.boardText = strings.Join(lines, "\n")
}
