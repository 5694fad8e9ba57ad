// Package storage persists agent telemetry (move decisions, token usage) to
// SQLite through a buffered async writer. Writes never block the move request
// path: a full queue drops the record, a failed write degrades the store.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	_ "github.com/mattn/go-sqlite3"
)

// Store handles SQLite database operations with async writes
type Store struct {
	db           *sql.DB
	path         string
	writeChan    chan func(*sql.Tx) error
	healthStatus atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	log          *logrus.Entry
}

// NewStore creates a new storage instance with async writer
func NewStore(dataSourceName string, devMode bool) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode in development for better concurrency
	if devMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:        db,
		path:      dataSourceName,
		writeChan: make(chan func(*sql.Tx) error, 1000), // Buffered for async writes
		ctx:       ctx,
		cancel:    cancel,
		log:       logrus.WithField("component", "storage"),
	}

	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

// writerLoop processes async write operations
func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// Drain remaining writes with timeout
			deadline := time.After(2 * time.Second)
			for {
				select {
				case fn := <-s.writeChan:
					if s.healthStatus.Load() {
						s.executeWrite(fn)
					}
				case <-deadline:
					return
				default:
					return
				}
			}

		case fn := <-s.writeChan:
			// Skip if already degraded
			if !s.healthStatus.Load() {
				continue
			}
			s.executeWrite(fn)
		}
	}
}

// executeWrite runs a transactional write operation
func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		s.log.WithError(err).Error("storage degraded: failed to begin transaction")
		s.healthStatus.Store(false)
		return
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		s.log.WithError(err).Error("storage degraded: write operation failed")
		s.healthStatus.Store(false)
		return
	}

	if err := tx.Commit(); err != nil {
		s.log.WithError(err).Error("storage degraded: failed to commit")
		s.healthStatus.Store(false)
	}
}

// enqueue submits a write, dropping it when the queue is full.
func (s *Store) enqueue(what string, fn func(*sql.Tx) error) {
	if !s.healthStatus.Load() {
		return // Silently drop if degraded
	}

	select {
	case s.writeChan <- fn:
	default:
		s.log.WithField("record", what).Warn("storage write queue full, dropping record")
	}
}

// RecordMove asynchronously records a resolved move decision
func (s *Store) RecordMove(record MoveRecord) {
	s.enqueue("move", func(tx *sql.Tx) error {
		query := `INSERT INTO moves (
			request_id, ts_utc, color, move, stage, reasoning, thinking_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.RequestID, record.Timestamp.UTC(), record.Color,
			record.Move, record.Stage, record.Reasoning, record.ThinkingMS,
		)
		return err
	})
}

// RecordTokenUsage asynchronously records a provider call's token usage
func (s *Store) RecordTokenUsage(record TokenUsageRecord) {
	s.enqueue("token_usage", func(tx *sql.Tx) error {
		query := `INSERT INTO token_usage (
			request_id, ts_utc, prompt_tokens, completion_tokens, reasoning_tokens, total_tokens
		) VALUES (?, ?, ?, ?, ?, ?)`

		_, err := tx.Exec(query,
			record.RequestID, record.Timestamp.UTC(),
			record.PromptTokens, record.CompletionTokens, record.ReasoningTokens, record.TotalTokens,
		)
		return err
	})
}

// QueryMoves retrieves recorded moves, optionally filtered by color
func (s *Store) QueryMoves(color string) ([]MoveRecord, error) {
	query := `SELECT request_id, ts_utc, color, move, stage, reasoning, thinking_ms
		FROM moves WHERE 1=1`

	var args []interface{}
	if color != "" && color != "*" {
		query += " AND color = ?"
		args = append(args, color)
	}
	query += " ORDER BY ts_utc ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRecord
	for rows.Next() {
		var m MoveRecord
		if err := rows.Scan(&m.RequestID, &m.Timestamp, &m.Color, &m.Move, &m.Stage, &m.Reasoning, &m.ThinkingMS); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return moves, nil
}

// IsHealthy returns the current health status
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Close gracefully closes the database connection
func (s *Store) Close() error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Writer finished cleanly
	case <-time.After(2 * time.Second):
		s.log.Warn("storage writer shutdown timeout, some writes may be lost")
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}
