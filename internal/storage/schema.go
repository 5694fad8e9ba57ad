package storage

import "time"

// MoveRecord is a row in the moves table: one resolved move decision.
type MoveRecord struct {
	RequestID  string    `db:"request_id"`
	Timestamp  time.Time `db:"ts_utc"`
	Color      string    `db:"color"`
	Move       string    `db:"move"`
	Stage      string    `db:"stage"`
	Reasoning  string    `db:"reasoning"`
	ThinkingMS int64     `db:"thinking_ms"`
}

// TokenUsageRecord is a row in the token_usage table: one provider call.
type TokenUsageRecord struct {
	RequestID        string    `db:"request_id"`
	Timestamp        time.Time `db:"ts_utc"`
	PromptTokens     int       `db:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens"`
	ReasoningTokens  int       `db:"reasoning_tokens"`
	TotalTokens      int       `db:"total_tokens"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	ts_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	color TEXT NOT NULL CHECK(color IN ('BLUE', 'GREEN', 'RED')),
	move TEXT NOT NULL,
	stage TEXT NOT NULL,
	reasoning TEXT NOT NULL DEFAULT '',
	thinking_ms INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS token_usage (
	usage_id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	ts_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	reasoning_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_moves_request_id ON moves(request_id);
CREATE INDEX IF NOT EXISTS idx_moves_color ON moves(color);
CREATE INDEX IF NOT EXISTS idx_token_usage_request_id ON token_usage(request_id);
`
