package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"threechess/internal/agent"
	"threechess/internal/llm"
)

type fakeProvider struct {
	result *llm.ChatResult
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) SendChat(_ context.Context, _ llm.ChatRequest) (*llm.ChatResult, error) {
	return f.result, nil
}

func testApp() *fiber.App {
	prov := &fakeProvider{
		result: &llm.ChatResult{
			ToolCalls: []llm.ToolCall{
				{Name: "think", Arguments: `{"analysis":"The pawn push is safest."}`},
				{Name: "decide_move", Arguments: `{"move":"RA2 RA3"}`},
			},
		},
	}
	a := agent.New(prov, agent.NewMemory(), nil)
	return NewFiberApp(a, func() string { return "ok" }, true)
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

const testBoard = "Current turn: RED\nRED pieces:\nRA2:PAWN\nRED time: 120000\n"

func TestHealth(t *testing.T) {
	app := testApp()
	resp := doRequest(t, app, "GET", "/health", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var health HealthResponse
	decode(t, resp, &health)
	if health.Status != "ok" {
		t.Errorf("Status = %q, want ok", health.Status)
	}
	if health.Storage != "ok" {
		t.Errorf("Storage = %q, want ok", health.Storage)
	}
	if health.Time == 0 {
		t.Error("Time not set")
	}
	if health.Moves != 0 {
		t.Errorf("Moves = %d, want 0 before any request", health.Moves)
	}

	body, _ := json.Marshal(MoveRequest{BoardState: testBoard, CurrentColor: "RED"})
	doRequest(t, app, "POST", "/get-move", string(body))

	decode(t, doRequest(t, app, "GET", "/health", ""), &health)
	if health.Moves != 1 {
		t.Errorf("Moves = %d, want 1 after a resolved move", health.Moves)
	}
}

func TestRoot(t *testing.T) {
	app := testApp()
	resp := doRequest(t, app, "GET", "/", "")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var status StatusResponse
	decode(t, resp, &status)
	if status.Status != "ok" {
		t.Errorf("Status = %q, want ok", status.Status)
	}
}

func TestGetMove(t *testing.T) {
	app := testApp()

	body, _ := json.Marshal(MoveRequest{BoardState: testBoard, CurrentColor: "RED"})
	resp := doRequest(t, app, "POST", "/get-move", string(body))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var move MoveResponse
	decode(t, resp, &move)
	if move.Move != "RA2 RA3" {
		t.Errorf("Move = %q, want %q", move.Move, "RA2 RA3")
	}
	// The reasoning in the response is the memory log's latest record.
	if move.Reasoning != "The pawn push is safest." {
		t.Errorf("Reasoning = %q, want the think analysis", move.Reasoning)
	}
}

func TestGetMoveValidation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantDetails string
	}{
		{
			name:        "missing board state",
			body:        `{"currentColor":"RED"}`,
			wantDetails: "BoardState is required",
		},
		{
			name:        "missing color",
			body:        `{"boardState":"Current turn: RED"}`,
			wantDetails: "CurrentColor is required",
		},
		{
			name:        "unknown color",
			body:        `{"boardState":"Current turn: RED","currentColor":"PURPLE"}`,
			wantDetails: "CurrentColor must be one of",
		},
		{
			name:        "malformed json",
			body:        `{not json`,
			wantDetails: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testApp()
			resp := doRequest(t, app, "POST", "/get-move", tt.body)

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}

			var errResp ErrorResponse
			decode(t, resp, &errResp)
			if errResp.Code != ErrInvalidRequest {
				t.Errorf("Code = %q, want %q", errResp.Code, ErrInvalidRequest)
			}
			if tt.wantDetails != "" && !strings.Contains(errResp.Details, tt.wantDetails) {
				t.Errorf("Details = %q, want substring %q", errResp.Details, tt.wantDetails)
			}
		})
	}
}

func TestGetMoveContentType(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest("POST", "/get-move", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "text/plain")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}

	var errResp ErrorResponse
	decode(t, resp, &errResp)
	if errResp.Code != ErrInvalidContent {
		t.Errorf("Code = %q, want %q", errResp.Code, ErrInvalidContent)
	}
}

func TestAgentMemory(t *testing.T) {
	app := testApp()

	body, _ := json.Marshal(MoveRequest{BoardState: testBoard, CurrentColor: "RED"})
	doRequest(t, app, "POST", "/get-move", string(body))

	resp := doRequest(t, app, "GET", "/agent-memory", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var snap struct {
		Stats struct {
			TotalMoves  int            `json:"total_moves"`
			StageCounts map[string]int `json:"stage_counts"`
		} `json:"stats"`
		Moves []struct {
			Move  string `json:"move"`
			Color string `json:"color"`
		} `json:"moves"`
	}
	decode(t, resp, &snap)

	if snap.Stats.TotalMoves != 1 {
		t.Fatalf("TotalMoves = %d, want 1", snap.Stats.TotalMoves)
	}
	if snap.Stats.StageCounts["tool-call"] != 1 {
		t.Errorf("StageCounts = %v, want one tool-call", snap.Stats.StageCounts)
	}
	if snap.Moves[0].Move != "RA2 RA3" || snap.Moves[0].Color != "RED" {
		t.Errorf("Moves[0] = %+v", snap.Moves[0])
	}
}
