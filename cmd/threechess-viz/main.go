// Package main runs the visualization server: a demo three-player game whose
// moves are fetched from a running agent service by a background mover.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"threechess/internal/client"
	"threechess/internal/sim"
	"threechess/internal/transport/viz"
)

const gracefulShutdownTimeout = time.Second * 5

// agentFetcher adapts the agent service client to the runner.
type agentFetcher struct {
	client *client.Client
}

func (f *agentFetcher) FetchMove(boardState, color string) (string, string, error) {
	resp, err := f.client.GetMove(client.MoveRequest{
		BoardState:   boardState,
		CurrentColor: color,
	})
	if err != nil {
		return "", "", err
	}
	return resp.Move, resp.Reasoning, nil
}

func main() {
	var (
		host     = flag.String("host", "localhost", "Visualization server host")
		port     = flag.Int("port", 8090, "Visualization server port")
		agentURL = flag.String("agent-url", "http://localhost:5000", "Base URL of the move agent service")
		delay    = flag.Duration("delay", 2*time.Second, "Delay between demo moves")
		verbose  = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	log := logrus.WithField("component", "main")

	game := sim.NewGame()
	api := client.New(*agentURL)
	runner := sim.NewRunner(game, &agentFetcher{client: api}, *delay)

	runnerCtx, runnerCancel := context.WithCancel(context.Background())
	defer runnerCancel()
	go runner.Run(runnerCtx)

	app := viz.NewFiberApp(game, api.AgentMemory)
	addr := fmt.Sprintf("%s:%d", *host, *port)

	go func() {
		log.Info("visualization server starting...")
		log.Infof("Listening on: http://%s", addr)
		log.Infof("Agent service: %s", *agentURL)
		log.Infof("Move delay: %s", *delay)
		log.Infof("Telemetry proxy: http://%s/telemetry", addr)
		log.Infof("Start the demo: POST http://%s/start", addr)

		if err := app.Listen(addr); err != nil {
			log.WithError(err).Error("server listen error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	runnerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Warn("server forced to shutdown")
	}

	log.Info("server exited")
}
