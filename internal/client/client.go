// Package client is a typed HTTP client for the move agent service, used by
// the visualization runner and for manual poking at a running agent.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Verbose    bool
}

// MoveRequest mirrors the agent service's /get-move body.
type MoveRequest struct {
	BoardState    string `json:"boardState"`
	CurrentColor  string `json:"currentColor"`
	ErrorFeedback string `json:"errorFeedback,omitempty"`
}

type MoveResponse struct {
	Move      string `json:"move"`
	Reasoning string `json:"reasoning"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Moves   int    `json:"moves"`
	Storage string `json:"storage,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			// Move resolution waits on an LLM round trip.
			Timeout: 180 * time.Second,
		},
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

func (c *Client) doRequest(method, path string, body interface{}, result interface{}) error {
	url := c.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.Verbose {
		color.Blue("[API] %s %s", method, path)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if c.Verbose {
			color.Red("[ERROR] %s", err.Error())
		}
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if c.Verbose {
		status := color.GreenString("[%d %s]", resp.StatusCode, http.StatusText(resp.StatusCode))
		if resp.StatusCode >= 400 {
			status = color.RedString("[%d %s]", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		fmt.Println(status)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("request failed with status %d: %s (%s)", resp.StatusCode, errResp.Error, errResp.Code)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}

// GetMove asks the agent service for a move.
func (c *Client) GetMove(req MoveRequest) (*MoveResponse, error) {
	var resp MoveResponse
	err := c.doRequest("POST", "/get-move", req, &resp)
	return &resp, err
}

// Health checks the agent service.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest("GET", "/health", nil, &resp)
	return &resp, err
}

// AgentMemory fetches the raw telemetry snapshot.
func (c *Client) AgentMemory() (json.RawMessage, error) {
	var resp json.RawMessage
	err := c.doRequest("GET", "/agent-memory", nil, &resp)
	return resp, err
}
