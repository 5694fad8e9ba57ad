// Package llm provides chat-completion clients for the supported model
// providers behind a single Provider capability. One implementation exists per
// provider wire protocol (OpenAI-compatible, Anthropic messages), selected by
// configuration rather than branched inline.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a function the model may invoke.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// TokenUsage is the provider-reported token accounting for one call.
type TokenUsage struct {
	Prompt     int `json:"prompt_tokens"`
	Completion int `json:"completion_tokens"`
	Reasoning  int `json:"reasoning_tokens"`
	Total      int `json:"total_tokens"`
}

// ToolCall is a named tool invocation with its raw JSON argument object.
type ToolCall struct {
	Name      string
	Arguments string
}

// ChatRequest is a provider-independent chat-completion request.
type ChatRequest struct {
	System    string
	Messages  []Message
	Tools     []Tool
	MaxTokens int
}

// ChatResult is the provider-independent response.
type ChatResult struct {
	Content   string
	ToolCalls []ToolCall
	Usage     TokenUsage
	Model     string
}

// Provider sends chat-completion requests to one model provider.
type Provider interface {
	Name() string
	Model() string
	SendChat(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

// DefaultModels maps provider names to their default model.
var DefaultModels = map[string]string{
	"openai":     "gpt-4o",
	"anthropic":  "claude-3-5-sonnet-latest",
	"openrouter": "google/gemini-flash-1.5-8b",
	"groq":       "llama-3.3-70b-versatile",
}

// baseURLs holds the OpenAI-compatible endpoint per provider. Anthropic uses
// its own wire protocol and client.
var baseURLs = map[string]string{
	"openai":     "https://api.openai.com/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"groq":       "https://api.groq.com/openai/v1",
}

// Providers lists the supported provider names.
func Providers() []string {
	return []string{"openai", "anthropic", "openrouter", "groq"}
}

// APIKey reads the provider credential from {PROVIDER}_API_KEY.
func APIKey(provider string) string {
	return os.Getenv(strings.ToUpper(provider) + "_API_KEY")
}

// NewProvider constructs the client for the named provider. A missing or empty
// credential is a construction error; this is the only hard failure path in
// the move pipeline.
func NewProvider(name, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	key := strings.TrimSpace(APIKey(name))
	if key == "" {
		return nil, fmt.Errorf("no API key found for %s: set %s_API_KEY", name, strings.ToUpper(name))
	}

	if model == "" {
		model = DefaultModels[name]
	}

	switch name {
	case "anthropic":
		return NewAnthropic(key, model), nil
	case "openai", "openrouter", "groq":
		base := baseURLs[name]
		// Allow routing the openai provider at a compatible endpoint.
		if name == "openai" {
			if override := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); override != "" {
				base = override
			}
		}
		return NewOpenAI(name, base, key, model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: %s)", name, strings.Join(Providers(), ", "))
	}
}

// MoveTools returns the think/decide_move tool definitions offered (not
// forced) on every move request.
func MoveTools() []Tool {
	return []Tool{
		{
			Name:        "think",
			Description: "Analyze the chess position and explain your reasoning before making a move.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"analysis": map[string]any{
						"type":        "string",
						"description": "Your detailed analysis of the position, potential moves, threats, and strategy",
					},
				},
				"required": []string{"analysis"},
			},
		},
		{
			Name:        "decide_move",
			Description: "Provide your final move decision in the required format.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"move": map[string]any{
						"type":        "string",
						"description": "Your chess move in the format '{COLOR}{FILE}{RANK} {COLOR}{FILE}{RANK}' (e.g. 'RC2 RC4', 'GB1 GC3', 'BA2 BA3') - only files A-C and ranks 1-4 exist",
					},
				},
				"required": []string{"move"},
			},
		},
	}
}
