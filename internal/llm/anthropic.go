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

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	// Anthropic requires max_tokens; applied when the request leaves it unset.
	anthropicDefaultMaxTokens = 8000
)

// Anthropic is a client for the Anthropic messages API. The conversation is
// flattened into a single user message and no tools are offered; the
// extraction cascade absorbs the free-text output.
type Anthropic struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewAnthropic creates an Anthropic messages client.
func NewAnthropic(apiKey, model string) *Anthropic {
	return &Anthropic{
		baseURL: anthropicBaseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		log: logrus.WithFields(logrus.Fields{"component": "llm", "provider": "anthropic"}),
	}
}

func (c *Anthropic) Name() string { return "anthropic" }

func (c *Anthropic) Model() string { return c.model }

type anthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendChat issues a single messages call.
func (c *Anthropic) SendChat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	// Flatten the running conversation into one user message.
	var flattened strings.Builder
	for i, m := range req.Messages {
		if i > 0 {
			flattened.WriteString("\n\n")
		}
		flattened.WriteString(m.Role + ": " + m.Content)
	}

	body := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  []Message{{Role: "user", Content: flattened.String()}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	c.log.WithField("model", c.model).Debug("sending messages request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: messages call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic: messages call failed: status %d: %s",
			resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("anthropic: decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("anthropic: messages call failed: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("anthropic: messages call returned no content")
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &ChatResult{
		Content: text.String(),
		Model:   parsed.Model,
		Usage: TokenUsage{
			Prompt:     parsed.Usage.InputTokens,
			Completion: parsed.Usage.OutputTokens,
			Total:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}, nil
}
