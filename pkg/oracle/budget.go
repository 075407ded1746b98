package oracle

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// PromptBudget truncates prompt material to a token budget before it is sent
// to a provider. Scratchpads and memory listings grow without bound over a
// long run; the budget keeps requests under the model's context window by
// dropping the oldest lines first.
type PromptBudget struct {
	maxTokens int

	once  sync.Once
	codec tokenizer.Codec
}

// NewPromptBudget creates a budget of maxTokens tokens.
func NewPromptBudget(maxTokens int) *PromptBudget {
	return &PromptBudget{maxTokens: maxTokens}
}

func (b *PromptBudget) init() {
	b.once.Do(func() {
		codec, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			b.codec = codec
		}
	})
}

// CountTokens returns the token count of text. Falls back to a bytes/4
// estimate if the tokenizer is unavailable.
func (b *PromptBudget) CountTokens(text string) int {
	b.init()
	if b.codec != nil {
		if n, err := b.codec.Count(text); err == nil {
			return n
		}
	}
	return len(text) / 4
}

// TrimLines drops whole lines from the front of text until it fits the
// budget. The newest material (the tail) is always preserved.
func (b *PromptBudget) TrimLines(text string) string {
	if b.maxTokens <= 0 || b.CountTokens(text) <= b.maxTokens {
		return text
	}

	lines := strings.Split(text, "\n")
	for len(lines) > 1 {
		lines = lines[1:]
		candidate := strings.Join(lines, "\n")
		if b.CountTokens(candidate) <= b.maxTokens {
			return candidate
		}
	}
	return lines[0]
}
