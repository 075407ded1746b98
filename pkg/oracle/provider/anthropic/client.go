// Package anthropic provides the Claude-backed oracle client.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"simworld/pkg/oracle"
)

// Client wraps the Anthropic API client to implement oracle.Completer.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a raw Claude client; middleware is applied at a higher level.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// prepare extracts system messages into the top-level system parameter and
// merges consecutive same-role messages; the Anthropic API requires strict
// user/assistant alternation starting and ending with user.
func prepare(messages []oracle.Message) (systemPrompt string, params []anthropic.MessageParam, err error) {
	if len(messages) == 0 {
		return "", nil, fmt.Errorf("message list cannot be empty")
	}

	var systemParts []string
	var merged []oracle.Message
	for i := range messages {
		msg := messages[i]
		if msg.Role == oracle.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].Role == msg.Role {
			merged[n-1].Content += "\n\n" + msg.Content
			continue
		}
		merged = append(merged, msg)
	}

	if len(merged) == 0 || merged[0].Role != oracle.RoleUser {
		merged = append([]oracle.Message{{Role: oracle.RoleUser, Content: "(begin)"}}, merged...)
	}
	if merged[len(merged)-1].Role != oracle.RoleUser {
		return "", nil, fmt.Errorf("last message must be user role, got %s", merged[len(merged)-1].Role)
	}

	params = make([]anthropic.MessageParam, 0, len(merged))
	for i := range merged {
		params = append(params, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(merged[i].Role),
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(merged[i].Content)},
		})
	}
	return strings.Join(systemParts, "\n\n"), params, nil
}

// Complete implements oracle.Completer.
func (c *Client) Complete(ctx context.Context, in oracle.Request) (oracle.Response, error) {
	systemPrompt, messages, err := prepare(in.Messages)
	if err != nil {
		return oracle.Response{}, oracle.NewError(oracle.ErrorTypeBadPrompt, "message preparation: %v", err)
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt, Type: "text"}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return oracle.Response{}, classifyError(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return oracle.Response{}, oracle.NewError(oracle.ErrorTypeEmptyResponse, "received empty response from Claude API")
	}

	var text strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	return oracle.Response{
		Content:    text.String(),
		StopReason: string(resp.StopReason),
	}, nil
}

// ModelName returns the model identifier.
func (c *Client) ModelName() string {
	return string(c.model)
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
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "overloaded"):
		return oracle.NewError(oracle.ErrorTypeRateLimit, "Claude API rate limited: %v", err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "authentication"):
		return oracle.NewError(oracle.ErrorTypeAuth, "Claude API auth failure: %v", err)
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid_request"):
		return oracle.NewError(oracle.ErrorTypeBadPrompt, "Claude API rejected request: %v", err)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503") ||
		strings.Contains(msg, "eof") || strings.Contains(msg, "connection reset") || strings.Contains(msg, "timeout"):
		return oracle.NewError(oracle.ErrorTypeTransient, "Claude API transient failure: %v", err)
	default:
		return oracle.NewError(oracle.ErrorTypeUnknown, "Claude API error: %v", err)
	}
}
