package agent

import (
	"sync"
	"time"

	"threechess/internal/llm"
)

// MoveRecord is one resolved move decision.
type MoveRecord struct {
	RequestID    string    `json:"request_id"`
	Timestamp    time.Time `json:"timestamp"`
	Color        string    `json:"color"`
	Move         string    `json:"move"`
	Reasoning    string    `json:"reasoning"`
	Stage        string    `json:"stage"`
	ThinkingTime float64   `json:"thinking_time"` // seconds
}

// TokenRecord is the token usage of one provider call.
type TokenRecord struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	llm.TokenUsage
}

// ThinkingRecord is the timing of one provider call.
type ThinkingRecord struct {
	RequestID     string    `json:"request_id"`
	Timestamp     time.Time `json:"timestamp"`
	ElapsedTime   float64   `json:"elapsed_time"` // seconds
	ThinkingRatio float64   `json:"thinking_ratio,omitempty"`
}

// Memory is the process-lifetime, append-only telemetry log of the agent. It
// is owned by the service instance and injected where needed; all access goes
// through the lock. Nothing is persisted across restarts.
type Memory struct {
	mu        sync.RWMutex
	startTime time.Time
	moves     []MoveRecord
	tokens    []TokenRecord
	thinking  []ThinkingRecord
}

// NewMemory creates an empty memory log.
func NewMemory() *Memory {
	return &Memory{}
}

// RecordMove appends a move decision. The first record pins the start time.
func (m *Memory) RecordMove(rec MoveRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startTime.IsZero() {
		m.startTime = rec.Timestamp
	}
	m.moves = append(m.moves, rec)
}

// RecordUsage appends a token usage record.
func (m *Memory) RecordUsage(rec TokenRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, rec)
}

// RecordThinking appends a timing record.
func (m *Memory) RecordThinking(rec ThinkingRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thinking = append(m.thinking, rec)
}

// AverageThinkingTime returns the mean thinking time in seconds across the
// recorded moves of one color, and whether any such moves exist.
func (m *Memory) AverageThinkingTime(color string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	var count int
	for _, rec := range m.moves {
		if rec.Color == color {
			total += rec.ThinkingTime
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

// MoveCount returns the number of recorded moves.
func (m *Memory) MoveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.moves)
}

// TokenTotals sums token usage across all recorded calls.
type TokenTotals struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Reasoning  int `json:"reasoning"`
	Total      int `json:"total"`
}

// Stats summarizes the memory log for the reporting endpoint.
type Stats struct {
	TotalMoves           int            `json:"total_moves"`
	StartTime            *time.Time     `json:"start_time,omitempty"`
	CurrentTime          time.Time      `json:"current_time"`
	TotalTokens          TokenTotals    `json:"total_tokens"`
	AverageThinkingTime  float64        `json:"average_thinking_time"`
	AverageThinkingRatio float64        `json:"average_thinking_ratio"`
	StageCounts          map[string]int `json:"stage_counts"`
}

// Snapshot is a point-in-time copy of the memory log plus summary stats.
type Snapshot struct {
	Stats         Stats            `json:"stats"`
	Moves         []MoveRecord     `json:"moves"`
	TokenUsage    []TokenRecord    `json:"token_usage"`
	ThinkingStats []ThinkingRecord `json:"thinking_stats"`
}

// Snapshot copies the logs and computes summary statistics.
func (m *Memory) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Moves:         append([]MoveRecord(nil), m.moves...),
		TokenUsage:    append([]TokenRecord(nil), m.tokens...),
		ThinkingStats: append([]ThinkingRecord(nil), m.thinking...),
	}

	stats := Stats{
		TotalMoves:  len(m.moves),
		CurrentTime: time.Now(),
		StageCounts: make(map[string]int),
	}
	if !m.startTime.IsZero() {
		start := m.startTime
		stats.StartTime = &start
	}

	for _, rec := range m.tokens {
		stats.TotalTokens.Prompt += rec.Prompt
		stats.TotalTokens.Completion += rec.Completion
		stats.TotalTokens.Reasoning += rec.Reasoning
		stats.TotalTokens.Total += rec.Total
	}

	var elapsed, ratio float64
	var ratioCount int
	for _, rec := range m.thinking {
		elapsed += rec.ElapsedTime
		if rec.ThinkingRatio > 0 {
			ratio += rec.ThinkingRatio
			ratioCount++
		}
	}
	if len(m.thinking) > 0 {
		stats.AverageThinkingTime = elapsed / float64(len(m.thinking))
	}
	if ratioCount > 0 {
		stats.AverageThinkingRatio = ratio / float64(ratioCount)
	}

	for _, rec := range m.moves {
		stats.StageCounts[rec.Stage]++
	}

	snap.Stats = stats
	return snap
}

// LastReasoning returns the reasoning text of the most recent move, or a
// placeholder when nothing has been recorded yet.
func (m *Memory) LastReasoning() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.moves) == 0 {
		return "No reasoning available"
	}
	return m.moves[len(m.moves)-1].Reasoning
}
