// Package google provides the Gemini-backed oracle client.
package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"simworld/pkg/oracle"
)

// Client wraps the Google GenAI client to implement oracle.Completer.
type Client struct {
	client *genai.Client
	apiKey string
	model  string
}

// New creates a raw Gemini client. The underlying SDK client is created
// lazily on first use because its constructor requires a context.
func New(apiKey, model string) *Client {
	return &Client{apiKey: apiKey, model: model}
}

// Complete implements oracle.Completer.
func (c *Client) Complete(ctx context.Context, in oracle.Request) (oracle.Response, error) {
	if c.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return oracle.Response{}, oracle.NewError(oracle.ErrorTypeTransient, "failed to create Gemini client: %v", err)
		}
		c.client = client
	}

	contents, systemInstruction, err := convertMessages(in.Messages)
	if err != nil {
		return oracle.Response{}, oracle.NewError(oracle.ErrorTypeBadPrompt, "message conversion: %v", err)
	}

	temp := in.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(in.MaxTokens), //nolint:gosec // bounded by config validation
	}
	if systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return oracle.Response{}, classifyError(err)
	}
	if result == nil {
		return oracle.Response{}, oracle.NewError(oracle.ErrorTypeEmptyResponse, "empty response from Gemini API")
	}

	return oracle.Response{
		Content:    result.Text(),
		StopReason: stopReason(result),
	}, nil
}

// ModelName returns the model identifier.
func (c *Client) ModelName() string {
	return c.model
}

func convertMessages(messages []oracle.Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("message list cannot be empty")
	}

	var systemParts []string
	var contents []*genai.Content
	for i := range messages {
		msg := &messages[i]
		if msg.Role == oracle.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}

		role := genai.RoleUser
		if msg.Role == oracle.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	// Gemini wants at least one turn even when everything lives in the
	// system instruction.
	if len(contents) == 0 {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: "(begin)"}},
		})
	}
	return contents, strings.Join(systemParts, "\n\n"), nil
}

func stopReason(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) == 0 {
		return ""
	}
	switch result.Candidates[0].FinishReason {
	case genai.FinishReasonStop:
		return "end_turn"
	case genai.FinishReasonMaxTokens:
		return "max_tokens"
	default:
		return string(result.Candidates[0].FinishReason)
	}
}

func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted"):
		return oracle.NewError(oracle.ErrorTypeRateLimit, "Gemini API rate limited: %v", err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "api key"):
		return oracle.NewError(oracle.ErrorTypeAuth, "Gemini API auth failure: %v", err)
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid"):
		return oracle.NewError(oracle.ErrorTypeBadPrompt, "Gemini API rejected request: %v", err)
	case strings.Contains(msg, "500") || strings.Contains(msg, "503") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "unavailable"):
		return oracle.NewError(oracle.ErrorTypeTransient, "Gemini API transient failure: %v", err)
	default:
		return oracle.NewError(oracle.ErrorTypeUnknown, "Gemini API error: %v", err)
	}
}
