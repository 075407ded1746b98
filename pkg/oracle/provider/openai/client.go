// Package openai provides the GPT-backed oracle client and the embedding
// function used for memory similarity ranking.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"simworld/pkg/oracle"
)

// Client wraps the official OpenAI client to implement oracle.Completer.
type Client struct {
	client openai.Client
	model  string
}

// New creates a raw GPT client; middleware is applied at a higher level.
func New(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Complete implements oracle.Completer.
func (c *Client) Complete(ctx context.Context, in oracle.Request) (oracle.Response, error) {
	if len(in.Messages) == 0 {
		return oracle.Response{}, oracle.NewError(oracle.ErrorTypeBadPrompt, "message list cannot be empty")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Messages))
	for i := range in.Messages {
		msg := &in.Messages[i]
		switch msg.Role {
		case oracle.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case oracle.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(in.MaxTokens)),
		Temperature:         openai.Float(float64(in.Temperature)),
	})
	if err != nil {
		return oracle.Response{}, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return oracle.Response{}, oracle.NewError(oracle.ErrorTypeEmptyResponse, "empty response from OpenAI API")
	}

	return oracle.Response{
		Content:    resp.Choices[0].Message.Content,
		StopReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// ModelName returns the model identifier.
func (c *Client) ModelName() string {
	return c.model
}

// Embedder computes embedding vectors via the OpenAI embeddings endpoint.
// It satisfies the memory package's Embedder interface.
type Embedder struct {
	client openai.Client
	model  openai.EmbeddingModel
}

// NewEmbedder creates an embedding client.
func NewEmbedder(apiKey string) *Embedder {
	return &Embedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.EmbeddingModelTextEmbedding3Small,
	}
}

// Embed returns the embedding vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return oracle.NewError(oracle.ErrorTypeRateLimit, "OpenAI API rate limited: %v", err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "api key"):
		return oracle.NewError(oracle.ErrorTypeAuth, "OpenAI API auth failure: %v", err)
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid_request"):
		return oracle.NewError(oracle.ErrorTypeBadPrompt, "OpenAI API rejected request: %v", err)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503") ||
		strings.Contains(msg, "eof") || strings.Contains(msg, "connection reset") || strings.Contains(msg, "timeout"):
		return oracle.NewError(oracle.ErrorTypeTransient, "OpenAI API transient failure: %v", err)
	default:
		return oracle.NewError(oracle.ErrorTypeUnknown, "OpenAI API error: %v", err)
	}
}
