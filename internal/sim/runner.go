package sim

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// MoveFetcher resolves the next move for a color given the board text.
// Satisfied by an adapter over the agent service client.
type MoveFetcher interface {
	FetchMove(boardState, color string) (move, reasoning string, err error)
}

// maxConsecutiveFailures bounds back-to-back fetch failures before the game
// is finished: if no color can get a move, the agent service is down.
const maxConsecutiveFailures = 3

// Runner is the background mover: while the game is running it fetches one
// move per tick and applies it. A single runner goroutine owns the pacing;
// all game state access goes through the Game mutex.
type Runner struct {
	game     *Game
	fetcher  MoveFetcher
	delay    time.Duration
	failures int // consecutive fetch failures, runner goroutine only
	log      *logrus.Entry
}

func NewRunner(game *Game, fetcher MoveFetcher, delay time.Duration) *Runner {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Runner{
		game:    game,
		fetcher: fetcher,
		delay:   delay,
		log:     logrus.WithField("component", "sim"),
	}
}

// Run loops until the context is cancelled. Fetch failures are recorded on
// the game and the turn still rotates, so one failing provider cannot stall
// the other players; sustained failures across colors finish the game.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.game.StatusValue() != StatusRunning {
				r.failures = 0
				continue
			}
			r.step()
		}
	}
}

func (r *Runner) step() {
	color := r.game.CurrentTurn()
	board := r.game.BoardText()

	move, reasoning, err := r.fetcher.FetchMove(board, color)
	if err != nil {
		r.log.WithError(err).WithField("color", color).Warn("move fetch failed")
		r.game.RecordFailure(color, err)
		r.failures++
		if r.failures >= maxConsecutiveFailures {
			r.log.WithField("failures", r.failures).Warn("agent service unreachable, finishing game")
			r.game.Finish()
		}
		return
	}
	r.failures = 0

	r.log.WithFields(logrus.Fields{
		"color": color,
		"move":  move,
	}).Info("applying move")
	r.game.ApplyMove(color, move, reasoning)
}
