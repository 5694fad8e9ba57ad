// Package main implements an interactive chat client for the supported LLM
// providers, useful for probing how a model talks about positions before
// putting it behind the move agent.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"threechess/internal/llm"
)

const chatMaxTokens = 2000

func main() {
	var (
		providerName = flag.String("provider", "openai", "LLM provider (openai, anthropic, openrouter, groq)")
		model        = flag.String("model", "", "Model override (empty uses the provider default)")
	)
	flag.Parse()

	godotenv.Load()

	prov, err := llm.NewProvider(*providerName, *model)
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     ".threechess_chat_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "--exit",
	})
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
	defer rl.Close()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	color.Cyan("LLM Chat Client")
	color.Cyan("Provider: %s (model: %s)", prov.Name(), prov.Model())
	fmt.Println("Commands: --switch <provider> [model], --exit")
	fmt.Println()

	var history []llm.Message

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "--exit" || line == "exit" || line == "quit" {
			break
		}

		if strings.HasPrefix(line, "--switch") {
			prov = switchProvider(line, prov)
			continue
		}

		history = append(history, llm.Message{Role: "user", Content: line})

		var sp *spinner.Spinner
		if interactive {
			sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " waiting for " + prov.Name()
			sp.Start()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		result, err := prov.SendChat(ctx, llm.ChatRequest{
			Messages:  history,
			MaxTokens: chatMaxTokens,
		})
		cancel()

		if sp != nil {
			sp.Stop()
		}

		if err != nil {
			color.Red("%v", err)
			// Drop the failed turn so a retry does not duplicate it.
			history = history[:len(history)-1]
			continue
		}

		history = append(history, llm.Message{Role: "assistant", Content: result.Content})
		color.Green("%s", result.Content)
		fmt.Println()
	}
}

// switchProvider handles "--switch <provider> [model]", keeping the running
// conversation. On failure the current provider stays active.
func switchProvider(line string, current llm.Provider) llm.Provider {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		color.Yellow("usage: --switch <provider> [model] (supported: %s)", strings.Join(llm.Providers(), ", "))
		return current
	}

	model := ""
	if len(parts) > 2 {
		model = parts[2]
	}

	next, err := llm.NewProvider(parts[1], model)
	if err != nil {
		color.Red("%v", err)
		return current
	}

	color.Cyan("Switched to %s (model: %s)", next.Name(), next.Model())
	return next
}
