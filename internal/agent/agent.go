// Package agent orchestrates a single move request: prompt assembly, the
// provider call, move extraction and validation, and telemetry recording.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"threechess/internal/board"
	"threechess/internal/coord"
	"threechess/internal/extract"
	"threechess/internal/llm"
	"threechess/internal/storage"
)

// defaultMaxTokens bounds one completion.
const defaultMaxTokens = 5000

// Agent answers move requests for the external game engine. It is stateless
// across calls except for the injected memory log; retries are driven entirely
// by the caller re-invoking with error feedback.
type Agent struct {
	provider  llm.Provider
	extractor *extract.Extractor
	memory    *Memory
	store     *storage.Store // nil when persistence disabled
	maxTokens int
	log       *logrus.Entry
}

// New creates an agent. store may be nil.
func New(provider llm.Provider, memory *Memory, store *storage.Store) *Agent {
	return &Agent{
		provider:  provider,
		extractor: extract.New(),
		memory:    memory,
		store:     store,
		maxTokens: defaultMaxTokens,
		log:       logrus.WithField("component", "agent"),
	}
}

// Memory exposes the telemetry log for the reporting endpoint.
func (a *Agent) Memory() *Memory {
	return a.memory
}

// GetMove resolves one move request. It always returns a syntactically valid
// move: provider failures and extraction failures resolve to the per-color
// fallback move, never to an error. Telemetry is recorded regardless of
// outcome.
func (a *Agent) GetMove(ctx context.Context, boardState, currentColor, errorFeedback string) (string, string) {
	requestID := uuid.New().String()
	timestamp := time.Now()

	log := a.log.WithFields(logrus.Fields{"request_id": requestID, "color": currentColor})
	log.Info("resolving move request")
	if errorFeedback != "" {
		log.WithField("feedback", errorFeedback).Info("retrying with engine feedback")
	}

	state := board.Parse(boardState)
	avgSec, haveAvg := a.memory.AverageThinkingTime(currentColor)

	req := llm.ChatRequest{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: buildUserMessage(state, currentColor, avgSec, haveAvg, errorFeedback)},
		},
		Tools:     llm.MoveTools(),
		MaxTokens: a.maxTokens,
	}

	start := time.Now()
	chat, err := a.provider.SendChat(ctx, req)
	elapsed := time.Since(start).Seconds()

	var result extract.Result
	if err != nil {
		log.WithError(err).Error("provider call failed, using fallback move")
		result = extract.Result{
			Move:      coord.FallbackMove(currentColor),
			Reasoning: "No explicit reasoning provided",
			Stage:     extract.StageFixedFallback,
		}
	} else {
		resp := extract.Response{Content: chat.Content}
		for _, tc := range chat.ToolCalls {
			resp.ToolCalls = append(resp.ToolCalls, extract.ToolCall{Name: tc.Name, Arguments: tc.Arguments})
		}
		result = a.extractor.Extract(resp, currentColor)

		usage := TokenRecord{RequestID: requestID, Timestamp: timestamp, TokenUsage: chat.Usage}
		a.memory.RecordUsage(usage)
		if a.store != nil {
			a.store.RecordTokenUsage(storage.TokenUsageRecord{
				RequestID:        requestID,
				Timestamp:        timestamp,
				PromptTokens:     chat.Usage.Prompt,
				CompletionTokens: chat.Usage.Completion,
				ReasoningTokens:  chat.Usage.Reasoning,
				TotalTokens:      chat.Usage.Total,
			})
		}

		thinking := ThinkingRecord{RequestID: requestID, Timestamp: timestamp, ElapsedTime: elapsed}
		if chat.Usage.Reasoning > 0 && chat.Usage.Completion > 0 {
			thinking.ThinkingRatio = float64(chat.Usage.Reasoning) / float64(chat.Usage.Completion)
		}
		a.memory.RecordThinking(thinking)
	}

	a.memory.RecordMove(MoveRecord{
		RequestID:    requestID,
		Timestamp:    timestamp,
		Color:        currentColor,
		Move:         result.Move,
		Reasoning:    result.Reasoning,
		Stage:        result.Stage,
		ThinkingTime: elapsed,
	})
	if a.store != nil {
		a.store.RecordMove(storage.MoveRecord{
			RequestID:  requestID,
			Timestamp:  timestamp,
			Color:      currentColor,
			Move:       result.Move,
			Stage:      result.Stage,
			Reasoning:  result.Reasoning,
			ThinkingMS: int64(elapsed * 1000),
		})
	}

	log.WithFields(logrus.Fields{"move": result.Move, "stage": result.Stage}).Info("move resolved")
	return result.Move, result.Reasoning
}
