// Package extract recovers a move in the three-player chess coordinate
// grammar from raw LLM output. Model output format is not contractually
// guaranteed even when tools are offered, so extraction is an ordered cascade
// of strategies that trades precision for availability: every response yields
// some syntactically valid move, terminating in a fixed per-color fallback.
// The external game engine enforces legality and re-prompts on rejection.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"threechess/internal/coord"
)

// Cascade stage names, recorded as provenance in telemetry.
const (
	StageToolCall       = "tool-call"
	StageSentinel       = "sentinel"
	StageMarkerPhrase   = "marker-phrase"
	StageCoordinatePair = "coordinate-pair"
	StageRawContent     = "raw-content"
	StageReasoningScan  = "reasoning-pattern"
	StageProximity      = "proximity"
	StageFixedFallback  = "fixed-fallback"
)

const (
	moveSentinelOpen  = "<<MOVE>>"
	moveSentinelClose = "<<END_MOVE>>"

	defaultReasoning = "No explicit reasoning provided"
)

// ToolCall is a named tool invocation returned by a provider, with its raw
// JSON argument object.
type ToolCall struct {
	Name      string
	Arguments string
}

// Response is the provider output the cascade operates on: free-text content,
// tool invocations, or both.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Result carries the extracted move, the reasoning narrative recovered
// alongside it, and the cascade stage that produced the move.
type Result struct {
	Move      string
	Reasoning string
	Stage     string
}

// Strategy attempts to recover a move candidate from a block of text.
type Strategy interface {
	Name() string
	Extract(text string) (string, bool)
}

// Extractor applies the cascade: content strategies in priority order, then
// reasoning strategies if the content produced nothing.
type Extractor struct {
	content   []Strategy
	reasoning []Strategy
	log       *logrus.Entry
}

// New returns an Extractor with the default strategy ordering.
func New() *Extractor {
	return &Extractor{
		content: []Strategy{
			sentinelStrategy{},
			markerStrategy{},
			patternStrategy{name: StageCoordinatePair, patterns: pairPatterns},
			rawContentStrategy{},
		},
		reasoning: []Strategy{
			patternStrategy{name: StageReasoningScan, patterns: extendedPatterns},
			proximityStrategy{},
		},
		log: logrus.WithField("component", "extract"),
	}
}

// Extract runs the cascade over resp for the given mover color. The returned
// move is always a syntactically valid move string.
func (e *Extractor) Extract(resp Response, color string) Result {
	reasoning := defaultReasoning
	var move, stage string

	// Stage 1: structured tool invocations win outright.
	for _, tc := range resp.ToolCalls {
		switch tc.Name {
		case "think":
			var args struct {
				Analysis string `json:"analysis"`
			}
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err == nil && args.Analysis != "" {
				reasoning = args.Analysis
			}
		case "decide_move":
			var args struct {
				Move string `json:"move"`
			}
			if err := json.Unmarshal([]byte(tc.Arguments), &args); err == nil && args.Move != "" {
				// Sentinels mark the move as tool-sourced until post-processing.
				move = moveSentinelOpen + args.Move + moveSentinelClose
				stage = StageToolCall
			}
		}
	}

	content := strings.TrimSpace(resp.Content)

	if move == "" && content != "" {
		if reasoning == defaultReasoning {
			if r, ok := reasoningFromContent(content); ok {
				reasoning = r
			}
		}
		for _, s := range e.content {
			if m, ok := s.Extract(content); ok {
				move, stage = m, s.Name()
				e.log.WithFields(logrus.Fields{"stage": stage, "candidate": m}).
					Debug("extracted move candidate from content")
				break
			}
		}
	}

	// No tool call and no content: scan whatever reasoning we have.
	if move == "" {
		for _, s := range e.reasoning {
			if m, ok := s.Extract(reasoning); ok {
				move, stage = m, s.Name()
				e.log.WithFields(logrus.Fields{"stage": stage, "candidate": m}).
					Debug("extracted move candidate from reasoning")
				break
			}
		}
	}

	if move == "" {
		move, stage = coord.FallbackMove(color), StageFixedFallback
	}

	move = postProcess(move)

	validated, ok := coord.ParseMove(move, nil)
	if !ok {
		e.log.WithFields(logrus.Fields{"stage": stage, "candidate": move, "color": color}).
			Warn("candidate failed validation, using fallback move")
		validated, stage = coord.FallbackMove(color), StageFixedFallback
	}

	return Result{Move: validated, Reasoning: reasoning, Stage: stage}
}

// postProcess unwraps lingering sentinel markers and repairs a concatenated
// six-character pair ("RB1RC3") into "RB1 RC3".
func postProcess(move string) string {
	if m := sentinelRE.FindStringSubmatch(move); m != nil {
		move = strings.TrimSpace(m[1])
	}
	if !strings.Contains(move, " ") && len(move) == 6 {
		move = move[:3] + " " + move[3:]
	}
	return move
}

// reasoningFromContent scans for reasoning marker phrases and returns the text
// following the first one found, truncated before any move marker. Matching is
// case-insensitive but the extracted text keeps its original casing.
func reasoningFromContent(content string) (string, bool) {
	lower := strings.ToLower(content)
	for _, marker := range reasoningMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		part := content[idx+len(marker):]
		partLower := strings.ToLower(part)
		for _, mm := range moveMarkers {
			if cut := strings.Index(partLower, mm); cut >= 0 {
				part = part[:cut]
				partLower = partLower[:cut]
			}
		}
		return strings.TrimSpace(part), true
	}
	return "", false
}

var reasoningMarkers = []string{"reasoning:", "analysis:", "thinking:", "i think:"}

var moveMarkers = []string{"move:", "my move:", "i choose:", "final move:", "i play:"}
