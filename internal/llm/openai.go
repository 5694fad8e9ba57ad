package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// OpenAI is a chat-completion client for any OpenAI-compatible endpoint
// (openai, openrouter, groq).
type OpenAI struct {
	provider   string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewOpenAI creates a client for an OpenAI-compatible provider.
func NewOpenAI(provider, baseURL, apiKey, model string) *OpenAI {
	return &OpenAI{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		log: logrus.WithFields(logrus.Fields{"component": "llm", "provider": provider}),
	}
}

func (c *OpenAI) Name() string { return c.provider }

func (c *OpenAI) Model() string { return c.model }

type oaFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type oaTool struct {
	Type     string     `json:"type"`
	Function oaFunction `json:"function"`
}

type oaChatRequest struct {
	Model      string    `json:"model"`
	Messages   []Message `json:"messages"`
	Tools      []oaTool  `json:"tools,omitempty"`
	ToolChoice string    `json:"tool_choice,omitempty"`
	MaxTokens  int       `json:"max_tokens,omitempty"`
}

type oaChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens            int `json:"prompt_tokens"`
		CompletionTokens        int `json:"completion_tokens"`
		TotalTokens             int `json:"total_tokens"`
		CompletionTokensDetails struct {
			ReasoningTokens int `json:"reasoning_tokens"`
		} `json:"completion_tokens_details"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// SendChat issues a single chat-completion call. Tools are offered with
// tool_choice "auto". Errors are wrapped with the provider name.
func (c *OpenAI) SendChat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	body := oaChatRequest{
		Model:     c.model,
		MaxTokens: req.MaxTokens,
	}

	if req.System != "" {
		body.Messages = append(body.Messages, Message{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, req.Messages...)

	for _, t := range req.Tools {
		body.Tools = append(body.Tools, oaTool{
			Type: "function",
			Function: oaFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = "auto"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", c.provider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.provider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.log.WithField("model", c.model).Debug("sending chat completion request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: chat completion call: %w", c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: chat completion failed: status %d: %s",
			c.provider, resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed oaChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%s: chat completion failed: %s", c.provider, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%s: chat completion returned no choices", c.provider)
	}

	result := &ChatResult{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
		Usage: TokenUsage{
			Prompt:     parsed.Usage.PromptTokens,
			Completion: parsed.Usage.CompletionTokens,
			Reasoning:  parsed.Usage.CompletionTokensDetails.ReasoningTokens,
			Total:      parsed.Usage.TotalTokens,
		},
	}
	for _, tc := range parsed.Choices[0].Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
