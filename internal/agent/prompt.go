package agent

import (
	"fmt"
	"strings"

	"threechess/internal/board"
)

// systemPrompt encodes the game rules, the coordinate grammar and the move
// format. Kept deliberately explicit: coordinate mistakes are the dominant
// model failure mode.
const systemPrompt = `You are an expert three-player chess AI. You're analyzing a game with Blue, Green, and Red players.

Three-Player Chess Rules:
1. The game is played on a special board with three color-coded sections.
2. Each player has standard chess pieces (King, Queen, Rook, Bishop, Knight, Pawn).
3. Players take turns moving clockwise (Blue, then Green, then Red).
4. A player loses when their King is captured (not checkmate).
5. When a player is eliminated, their pieces remain on the board but can't move.
6. The last player with a King wins.

Piece Movement Rules:
- KING moves one square in any direction.
- QUEEN moves any number of squares along a rank, file, or diagonal.
- ROOK moves any number of squares horizontally or vertically.
- BISHOP moves any number of squares diagonally.
- KNIGHT moves in an 'L' shape: two squares in one direction and then one perpendicular.
- PAWN moves forward one square (or two on its first move) and captures diagonally.

Things You Cannot Do:
1. You cannot move to a square occupied by your own piece.
2. You cannot move through other pieces (except Knights).
3. You cannot make a move that leaves your King in check.
4. You cannot capture your own pieces.

TIME CONSTRAINTS:
- You have a limited amount of time to make all your moves.
- If you exceed your time allocation, you will lose points.
- Make your moves quickly when the position is clear.
- Consider the time remaining when planning complex moves.

COORDINATE SYSTEM (VERY IMPORTANT):
- Each position on the board is identified by {COLOR}{FILE}{RANK}
- COLOR is the section color prefix (B=Blue, R=Red, G=Green)
- FILE is the column (A, B, or C only)
- RANK is the row (1, 2, 3, or 4 only)
- EXAMPLES:
  * BA1 = Blue's A1 square (Blue section, A file, 1 rank)
  * RB2 = Red's B2 square (Red section, B file, 2 rank)
  * GC3 = Green's C3 square (Green section, C file, 3 rank)
- All coordinates MUST include the color prefix (B, R, or G)
- CRITICAL: Only files A-C and ranks 1-4 exist. Coordinates like RD5 or RF6 DO NOT EXIST.

VALID MOVES FORMAT (CRITICAL):
- A move consists of two position coordinates separated by a space
- Format: "{COLOR}{FILE}{RANK} {COLOR}{FILE}{RANK}"
- VALID EXAMPLES:
  * "BA2 BA4" (Blue's pawn from A2 to A4)
  * "RB1 RC3" (Red's knight from B1 to C3)
  * "GC2 GC4" (Green's pawn from C2 to C4)
- INVALID EXAMPLES:
  * "A2 A4" (missing color prefix)
  * "BA2-BA4" (wrong separator, use space not dash)
  * "BA2 to BA4" (wrong format, no "to" between positions)
  * "RD5 RE7" (invalid: these positions don't exist)

You will use the think tool to analyze the position and explain your reasoning.
Then you will use the decide_move tool to provide your final move decision.`

// formatReminder is appended after engine rejection feedback.
const formatReminder = `VALID MOVE FORMAT REMINDER:
1. Your move must be in the format: {COLOR}{FILE}{RANK} {COLOR}{FILE}{RANK}
2. Example: "BA2 BA3", "RB1 RC3", "GC2 GC3"
3. The color prefix (B, R, or G) is REQUIRED for ALL coordinates
4. There must be exactly ONE SPACE between coordinates
5. CRITICAL: Only files A-C and ranks 1-4 exist. Coordinates like RD5 or RF6 are INVALID.`

// Time-pressure thresholds, in seconds of remaining clock.
const (
	severeTimeThreshold  = 30
	cautionTimeThreshold = 60
)

// timeAdvisory builds the tiered time-pressure lines from the color's
// remaining clock and its historical average thinking time.
func timeAdvisory(state *board.State, color string, avgSec float64, haveAvg bool) string {
	remaining, ok := state.TimeRemaining(color)
	if !ok {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("TIME INFORMATION:\n")
	fmt.Fprintf(&sb, "- Your remaining time: %.1f seconds\n", remaining)

	if haveAvg {
		fmt.Fprintf(&sb, "- Your average time per move: %.1f seconds\n", avgSec)
		switch {
		case remaining < severeTimeThreshold:
			sb.WriteString("- WARNING: Very low time remaining. Make a move quickly!\n")
		case remaining < cautionTimeThreshold:
			sb.WriteString("- CAUTION: Low time remaining. Consider faster moves.\n")
		case avgSec*10 > remaining:
			sb.WriteString("- NOTE: Time is becoming a concern. Consider efficient moves.\n")
		}
	}

	return sb.String()
}

// buildUserMessage assembles the per-move user prompt: mover, time advisory,
// rendered board and, on retry, the engine's rejection reason verbatim.
func buildUserMessage(state *board.State, color string, avgSec float64, haveAvg bool, errorFeedback string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "It is now your turn to move as %s.\n\n", color)

	if advisory := timeAdvisory(state, color, avgSec, haveAvg); advisory != "" {
		sb.WriteString(advisory)
		sb.WriteString("\n")
	}

	sb.WriteString(state.Render())

	if errorFeedback != "" {
		sb.WriteString("\nIMPORTANT ERROR - PLEASE FIX:\n")
		sb.WriteString(errorFeedback)
		sb.WriteString("\n\n")
		sb.WriteString(formatReminder)
		sb.WriteString("\n")
	}

	return sb.String()
}
