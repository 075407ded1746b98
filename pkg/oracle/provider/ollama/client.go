// Package ollama provides the oracle client for the Ollama local model
// runtime. Useful for running the simulation without any hosted API.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"simworld/pkg/oracle"
)

// Client wraps the Ollama API client to implement oracle.Completer.
type Client struct {
	client *api.Client
	model  string
}

// New creates a client for the Ollama server at hostURL
// (e.g. "http://localhost:11434").
func New(hostURL, model string) *Client {
	parsedURL, err := url.Parse(hostURL)
	if err != nil || hostURL == "" {
		parsedURL, _ = url.Parse("http://localhost:11434")
	}
	return &Client{
		client: api.NewClient(parsedURL, http.DefaultClient),
		model:  model,
	}
}

// Complete implements oracle.Completer.
func (c *Client) Complete(ctx context.Context, in oracle.Request) (oracle.Response, error) {
	if len(in.Messages) == 0 {
		return oracle.Response{}, oracle.NewError(oracle.ErrorTypeBadPrompt, "message list cannot be empty")
	}

	messages := make([]api.Message, 0, len(in.Messages))
	for i := range in.Messages {
		messages = append(messages, api.Message{
			Role:    string(in.Messages[i].Role),
			Content: in.Messages[i].Content,
		})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": in.Temperature,
			"num_predict": in.MaxTokens,
		},
	}

	var response api.ChatResponse
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return oracle.Response{}, classifyError(err)
	}

	return oracle.Response{
		Content:    response.Message.Content,
		StopReason: stopReason(&response),
	}, nil
}

// ModelName returns the model identifier.
func (c *Client) ModelName() string {
	return c.model
}

func stopReason(resp *api.ChatResponse) string {
	if !resp.Done {
		return "incomplete"
	}
	switch resp.DoneReason {
	case "stop", "":
		return "end_turn"
	case "length":
		return "max_tokens"
	default:
		return resp.DoneReason
	}
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return oracle.NewError(oracle.ErrorTypeTransient, "Ollama server not reachable: %v", err)
	case strings.Contains(msg, "model") && strings.Contains(msg, "not found"):
		return oracle.NewError(oracle.ErrorTypeBadPrompt, "Ollama model not found: %v", err)
	case strings.Contains(msg, "context canceled"), strings.Contains(msg, "timeout"):
		return oracle.NewError(oracle.ErrorTypeTransient, "Ollama request interrupted: %v", err)
	default:
		return oracle.NewError(oracle.ErrorTypeUnknown, "Ollama API error: %v", err)
	}
}
