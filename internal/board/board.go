// Package board parses the line-oriented board state text exchanged with the
// external game engine and renders it into the textual form embedded in LLM
// prompts.
package board

import (
	"strconv"
	"strings"
)

// Colors lists the engine color names in turn order.
var Colors = []string{"BLUE", "GREEN", "RED"}

// Piece is a piece on the board; its position is the map key in State.Pieces.
type Piece struct {
	Color string // owning section color (BLUE, RED, GREEN)
	Type  string // KING, QUEEN, ROOK, BISHOP, KNIGHT, PAWN
}

// State is the parsed board state.
//
// The wire format is line oriented:
//
//	Current turn: BLUE
//	BLUE pieces:
//	BA1:ROOK
//	...
//	BLUE captured pieces: PAWN KNIGHT
//	BLUE time: 292731
type State struct {
	Turn     string
	Pieces   map[string]Piece
	Captured map[string]string
	TimeMS   map[string]int64
}

// Parse extracts the board state from the engine's text format. Lines that do
// not match any known form are skipped; parsing never fails.
func Parse(text string) *State {
	s := &State{
		Pieces:   make(map[string]Piece),
		Captured: make(map[string]string),
		TimeMS:   make(map[string]int64),
	}

	currentColor := ""
	parsingCaptured := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Current turn:"):
			s.Turn = strings.TrimSpace(strings.TrimPrefix(trimmed, "Current turn:"))

		case strings.Contains(trimmed, "captured pieces:"):
			parsingCaptured = true
			parts := strings.SplitN(trimmed, "captured pieces:", 2)
			color := strings.ToUpper(strings.TrimSpace(parts[0]))
			if color != "" {
				s.Captured[color] = strings.TrimSpace(parts[1])
			}

		case strings.Contains(trimmed, "time:"):
			parts := strings.SplitN(trimmed, "time:", 2)
			color := strings.ToUpper(strings.TrimSpace(parts[0]))
			fields := strings.Fields(parts[1])
			if color == "" || len(fields) == 0 {
				continue
			}
			if ms, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
				s.TimeMS[color] = ms
			}

		case strings.Contains(trimmed, "pieces:"):
			parsingCaptured = false
			currentColor = strings.ToUpper(strings.Fields(trimmed)[0])

		case strings.Contains(trimmed, ":") && currentColor != "" && !parsingCaptured:
			parts := strings.SplitN(trimmed, ":", 2)
			pos := strings.TrimSpace(parts[0])
			typ := strings.TrimSpace(parts[1])
			if pos != "" && typ != "" {
				s.Pieces[pos] = Piece{Color: currentColor, Type: typ}
			}
		}
	}

	return s
}

// TimeRemaining returns the clock for a color in seconds, and whether the
// board text carried one.
func (s *State) TimeRemaining(color string) (float64, bool) {
	ms, ok := s.TimeMS[strings.ToUpper(color)]
	if !ok {
		return 0, false
	}
	return float64(ms) / 1000.0, true
}
