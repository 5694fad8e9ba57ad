package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProviderMissingKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	_, err := NewProvider("groq", "")
	if err == nil {
		t.Fatal("expected an error for a missing API key")
	}
	if !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Errorf("error = %q, want it to name the env var", err)
	}
}

func TestNewProviderUnknown(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "k")

	_, err := NewProvider("mistral", "")
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("err = %v, want unknown provider error", err)
	}
}

func TestNewProviderDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "k")
	t.Setenv("ANTHROPIC_API_KEY", "k")

	for _, tt := range []struct {
		provider  string
		wantModel string
	}{
		{"openai", "gpt-4o"},
		{"anthropic", "claude-3-5-sonnet-latest"},
	} {
		p, err := NewProvider(tt.provider, "")
		if err != nil {
			t.Fatalf("NewProvider(%s): %v", tt.provider, err)
		}
		if p.Name() != tt.provider {
			t.Errorf("Name() = %q, want %q", p.Name(), tt.provider)
		}
		if p.Model() != tt.wantModel {
			t.Errorf("Model() = %q, want %q", p.Model(), tt.wantModel)
		}
	}
}

func TestOpenAISendChat(t *testing.T) {
	var captured oaChatRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "gpt-4o-2024-08-06",
			"choices": [{"message": {
				"content": "",
				"tool_calls": [{"function": {"name": "decide_move", "arguments": "{\"move\":\"RA2 RA3\"}"}}]
			}}],
			"usage": {
				"prompt_tokens": 100, "completion_tokens": 40, "total_tokens": 140,
				"completion_tokens_details": {"reasoning_tokens": 12}
			}
		}`))
	}))
	defer srv.Close()

	c := NewOpenAI("openai", srv.URL, "test-key", "gpt-4o")
	result, err := c.SendChat(context.Background(), ChatRequest{
		System:    "system text",
		Messages:  []Message{{Role: "user", Content: "your move"}},
		Tools:     MoveTools(),
		MaxTokens: 500,
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	// System prompt travels as the leading system message.
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", captured.Messages)
	}
	if len(captured.Tools) != 2 || captured.Tools[0].Type != "function" {
		t.Errorf("tools = %+v", captured.Tools)
	}
	if captured.ToolChoice != "auto" {
		t.Errorf("tool_choice = %q, want auto", captured.ToolChoice)
	}
	if captured.MaxTokens != 500 {
		t.Errorf("max_tokens = %d, want 500", captured.MaxTokens)
	}

	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Name != "decide_move" {
		t.Fatalf("ToolCalls = %+v", result.ToolCalls)
	}
	if result.Usage.Reasoning != 12 || result.Usage.Total != 140 {
		t.Errorf("Usage = %+v", result.Usage)
	}
	if result.Model != "gpt-4o-2024-08-06" {
		t.Errorf("Model = %q", result.Model)
	}
}

func TestOpenAISendChatErrors(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewOpenAI("groq", srv.URL, "k", "m")
		_, err := c.SendChat(context.Background(), ChatRequest{})
		if err == nil || !strings.Contains(err.Error(), "status 429") {
			t.Errorf("err = %v, want status 429", err)
		}
		if !strings.Contains(err.Error(), "groq") {
			t.Errorf("err = %v, want provider name", err)
		}
	})

	t.Run("error object in 200 body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
		}))
		defer srv.Close()

		c := NewOpenAI("openai", srv.URL, "k", "m")
		_, err := c.SendChat(context.Background(), ChatRequest{})
		if err == nil || !strings.Contains(err.Error(), "model overloaded") {
			t.Errorf("err = %v, want the error message", err)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		c := NewOpenAI("openai", srv.URL, "k", "m")
		_, err := c.SendChat(context.Background(), ChatRequest{})
		if err == nil || !strings.Contains(err.Error(), "no choices") {
			t.Errorf("err = %v, want no choices", err)
		}
	})
}

func TestAnthropicSendChat(t *testing.T) {
	var captured anthropicRequest
	var gotKey, gotVersion string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "claude-3-5-sonnet-latest",
			"content": [{"type": "text", "text": "My move: "}, {"type": "text", "text": "RA2 RA3"}],
			"usage": {"input_tokens": 80, "output_tokens": 30}
		}`))
	}))
	defer srv.Close()

	c := NewAnthropic("test-key", "claude-3-5-sonnet-latest")
	c.baseURL = srv.URL

	result, err := c.SendChat(context.Background(), ChatRequest{
		System: "system text",
		Messages: []Message{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "second"},
			{Role: "user", Content: "third"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("anthropic-version = %q", gotVersion)
	}

	// The running conversation is flattened into one user message.
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
	for _, want := range []string{"user: first", "assistant: second", "user: third"} {
		if !strings.Contains(captured.Messages[0].Content, want) {
			t.Errorf("flattened message missing %q", want)
		}
	}
	if captured.System != "system text" {
		t.Errorf("system = %q", captured.System)
	}
	if captured.MaxTokens != anthropicDefaultMaxTokens {
		t.Errorf("max_tokens = %d, want default %d", captured.MaxTokens, anthropicDefaultMaxTokens)
	}

	if result.Content != "My move: RA2 RA3" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Usage.Prompt != 80 || result.Usage.Completion != 30 || result.Usage.Total != 110 {
		t.Errorf("Usage = %+v", result.Usage)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("truncate = %q", got)
	}
}
