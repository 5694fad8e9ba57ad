package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetMove(t *testing.T) {
	var captured MoveRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/get-move" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(MoveResponse{Move: "RA2 RA3", Reasoning: "push"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.GetMove(MoveRequest{BoardState: "Current turn: RED", CurrentColor: "RED"})
	if err != nil {
		t.Fatal(err)
	}

	if captured.CurrentColor != "RED" {
		t.Errorf("sent CurrentColor = %q", captured.CurrentColor)
	}
	if resp.Move != "RA2 RA3" || resp.Reasoning != "push" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetMoveErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "validation failed", Code: "INVALID_REQUEST"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetMove(MoveRequest{})
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"400", "validation failed", "INVALID_REQUEST"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("err = %v, want substring %q", err, want)
		}
	}
}

func TestGetMoveNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetMove(MoveRequest{})
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Errorf("err = %v, want status 502", err)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Time: 123, Moves: 3, Storage: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Health()
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Storage != "ok" || resp.Moves != 3 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAgentMemory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agent-memory" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"stats":{"total_moves":2}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	raw, err := c.AgentMemory()
	if err != nil {
		t.Fatal(err)
	}

	var snap struct {
		Stats struct {
			TotalMoves int `json:"total_moves"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Stats.TotalMoves != 2 {
		t.Errorf("TotalMoves = %d, want 2", snap.Stats.TotalMoves)
	}
}

func TestBaseURLTrimmed(t *testing.T) {
	c := New("http://localhost:5000/")
	if c.BaseURL != "http://localhost:5000" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
}
