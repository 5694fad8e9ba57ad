package board

import (
	"fmt"
	"sort"
	"strings"
)

// Unicode symbols per color and piece type. The prompt is consumed by an LLM,
// so no terminal coloring is applied; the symbol sets distinguish RED from the
// other two sections instead.
var pieceSymbols = map[string]map[string]string{
	"BLUE": {
		"KING": "♔", "QUEEN": "♕", "ROOK": "♖",
		"BISHOP": "♗", "KNIGHT": "♘", "PAWN": "♙",
	},
	"RED": {
		"KING": "♚", "QUEEN": "♛", "ROOK": "♜",
		"BISHOP": "♝", "KNIGHT": "♞", "PAWN": "♟",
	},
	"GREEN": {
		"KING": "♔", "QUEEN": "♕", "ROOK": "♖",
		"BISHOP": "♗", "KNIGHT": "♘", "PAWN": "♙",
	},
}

// Render produces the textual board representation embedded in the user
// prompt: current turn, remaining clocks, symbol legend, the coordinate-system
// explanation and per-section piece listings.
func (s *State) Render() string {
	var sb strings.Builder

	sb.WriteString("Three-Player Chess Board\n")
	sb.WriteString("Current Turn: " + s.Turn + "\n")

	if len(s.TimeMS) > 0 {
		sb.WriteString("\nTime Remaining:\n")
		for _, color := range Colors {
			if sec, ok := s.TimeRemaining(color); ok {
				fmt.Fprintf(&sb, "  %s: %.1f seconds\n", color, sec)
			}
		}
	}

	sb.WriteString("\nLegend:\n")
	for _, color := range Colors {
		sb.WriteString(color + ": ")
		for _, typ := range []string{"KING", "QUEEN", "ROOK", "BISHOP", "KNIGHT", "PAWN"} {
			sb.WriteString(pieceSymbols[color][typ] + "=" + typ + " ")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nCoordinate System:\n")
	sb.WriteString("- Each position is marked as {COLOR}{FILE}{RANK}\n")
	sb.WriteString("- COLOR is B (Blue), R (Red) or G (Green); FILE is A-C; RANK is 1-4\n")
	sb.WriteString("- Example: BA1 = Blue's A1, RC3 = Red's C3, GB2 = Green's B2\n")

	sb.WriteString("\nCurrent Pieces on Board:\n")
	for _, color := range Colors {
		positions := make([]string, 0, len(s.Pieces))
		for pos, p := range s.Pieces {
			if p.Color == color {
				positions = append(positions, pos)
			}
		}
		if len(positions) == 0 {
			continue
		}
		sort.Strings(positions)

		sb.WriteString(color + " SECTION PIECES:\n")
		for i, pos := range positions {
			p := s.Pieces[pos]
			symbol := pieceSymbols[color][p.Type]
			if symbol == "" {
				symbol = "?"
			}
			fmt.Fprintf(&sb, "  %s: %s (%s)", pos, symbol, p.Type)
			if (i+1)%4 == 0 || i == len(positions)-1 {
				sb.WriteString("\n")
			}
		}
	}

	if len(s.Captured) > 0 {
		sb.WriteString("\nCaptured Pieces:\n")
		for _, color := range Colors {
			if captured, ok := s.Captured[color]; ok && captured != "" {
				fmt.Fprintf(&sb, "  %s captured: %s\n", color, captured)
			}
		}
	}

	return sb.String()
}
