package tools

import (
	"context"
	"fmt"
	"strings"
)

// SearchTool answers a free-text query via an external search provider.
// Authorization-gated: only agents granted research capability may use it.
type SearchTool struct{}

func (t *SearchTool) Name() string { return "search" }

func (t *SearchTool) Description() string {
	return "look up information on a topic; input is the query text"
}

func (t *SearchTool) RequiresAuthorization() bool { return true }
func (t *SearchTool) Worldwide() bool             { return true }

func (t *SearchTool) Run(ctx context.Context, input string, tc *Context) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "You searched for nothing and found nothing. Provide a query.", nil
	}
	if tc.Search == nil {
		return "Search is not available right now.", nil
	}

	result, err := tc.Search.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("search for %q failed: %w", query, err)
	}
	if strings.TrimSpace(result) == "" {
		return fmt.Sprintf("You searched for %q but found nothing useful.", query), nil
	}
	return result, nil
}
