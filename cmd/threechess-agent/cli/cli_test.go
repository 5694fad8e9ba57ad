package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"threechess/internal/storage"
)

func TestRunSubcommandDispatch(t *testing.T) {
	if err := Run(nil); err == nil {
		t.Error("expected an error without a subcommand")
	}
	if err := Run([]string{"bogus"}); err == nil || !strings.Contains(err.Error(), "unknown subcommand") {
		t.Errorf("err = %v, want unknown subcommand", err)
	}
	if err := Run([]string{"query"}); err == nil || !strings.Contains(err.Error(), "path required") {
		t.Errorf("err = %v, want path required", err)
	}
	if err := Run([]string{"init"}); err == nil || !strings.Contains(err.Error(), "path required") {
		t.Errorf("err = %v, want path required", err)
	}
}

func TestInitAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")

	if err := Run([]string{"init", "-path", path}); err != nil {
		t.Fatalf("init: %v", err)
	}

	store, err := storage.NewStore(path, false)
	if err != nil {
		t.Fatal(err)
	}
	store.RecordMove(storage.MoveRecord{
		RequestID: "11111111-2222-3333-4444-555555555555",
		Timestamp: time.Now(),
		Color:     "RED",
		Move:      "RA2 RA3",
		Stage:     "tool-call",
	})

	// Writes go through the async writer; wait for the record to land.
	deadline := time.Now().Add(5 * time.Second)
	for {
		moves, err := store.QueryMoves("")
		if err != nil {
			t.Fatal(err)
		}
		if len(moves) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("recorded move not written, have %d", len(moves))
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	if err := Run([]string{"query", "-path", path}); err != nil {
		t.Errorf("query: %v", err)
	}
	if err := Run([]string{"query", "-path", path, "-color", "RED"}); err != nil {
		t.Errorf("query filtered: %v", err)
	}
	if err := Run([]string{"query", "-path", path, "-color", "BLUE"}); err != nil {
		t.Errorf("query with no matches: %v", err)
	}
}
