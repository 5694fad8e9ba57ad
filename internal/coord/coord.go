// Package coord implements the three-player chess coordinate grammar:
// positions are {Color}{File}{Rank} with Color in {R,B,G}, File in {A,B,C}
// and Rank in {1,2,3,4}; a move is two positions joined by a single space.
package coord

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	ValidColors = "RBG"
	ValidFiles  = "ABC"
	ValidRanks  = "1234"
)

var log = logrus.WithField("component", "coord")

// IsValidPosition reports whether tok is a well-formed position. It fails
// closed: any deviation from the grammar returns false. The failing component
// is logged for observability only.
func IsValidPosition(tok string) bool {
	if len(tok) != 3 {
		log.WithField("position", tok).Debug("invalid position: must be 3 characters")
		return false
	}

	color, file, rank := tok[0], tok[1], tok[2]

	if !strings.ContainsRune(ValidColors, rune(color)) {
		log.WithField("position", tok).Debugf("invalid color %q: must be R, B, or G", color)
		return false
	}
	if !strings.ContainsRune(ValidFiles, rune(file)) {
		log.WithField("position", tok).Debugf("invalid file %q: must be A, B, or C", file)
		return false
	}
	if !strings.ContainsRune(ValidRanks, rune(rank)) {
		log.WithField("position", tok).Debugf("invalid rank %q: must be 1, 2, 3, or 4", rank)
		return false
	}

	return true
}

// ParseMove validates a candidate move string. It trims raw, requires exactly
// two well-formed position tokens separated by a single space, and, when legal
// is non-empty, requires the move to appear verbatim in legal. Returns the
// canonical "{from} {to}" string. Never panics; any failure returns ok=false.
func ParseMove(raw string, legal []string) (string, bool) {
	trimmed := strings.TrimSpace(raw)

	positions := strings.Fields(trimmed)
	if len(positions) != 2 {
		log.WithField("move", raw).Debug("invalid move format: must contain exactly two positions")
		return "", false
	}

	from, to := positions[0], positions[1]
	if !IsValidPosition(from) || !IsValidPosition(to) {
		log.WithField("move", raw).Debug("invalid position in move")
		return "", false
	}

	move := from + " " + to
	if trimmed != move {
		log.WithField("move", raw).Debug("invalid move format: positions must be separated by one space")
		return "", false
	}

	if len(legal) > 0 && !contains(legal, move) {
		if closest := ClosestLegal(move, legal); closest != "" {
			log.WithFields(logrus.Fields{"move": move, "closest": closest}).
				Debug("move not in legal set")
		}
		return "", false
	}

	return move, true
}

// ClosestLegal suggests a legal move for a rejected candidate: the first legal
// move sharing the same from-position, else the first legal move. This is a
// convenience for diagnostics, not a distance metric.
func ClosestLegal(move string, legal []string) string {
	if len(legal) == 0 {
		return ""
	}

	parts := strings.Fields(move)
	if len(parts) == 0 {
		return legal[0]
	}

	from := parts[0]
	for _, m := range legal {
		if strings.HasPrefix(m, from) {
			return m
		}
	}
	return legal[0]
}

// FallbackMove returns the hardcoded opening pawn move for a color. It accepts
// the engine's full color names ("BLUE") or the single-letter prefix ("B").
// Unknown colors fall back to the green move.
func FallbackMove(color string) string {
	switch strings.ToUpper(strings.TrimSpace(color)) {
	case "BLUE", "B":
		return "BA2 BA3"
	case "RED", "R":
		return "RA2 RA3"
	default:
		return "GA2 GA3"
	}
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
