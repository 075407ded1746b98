package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SaveDocumentTool writes a titled document to shared storage. Saving under
// an existing title overwrites it.
type SaveDocumentTool struct{}

func (t *SaveDocumentTool) Name() string { return "save-document" }

func (t *SaveDocumentTool) Description() string {
	return `save a document for later; input must be JSON {"title": "...", "content": "..."}`
}

func (t *SaveDocumentTool) RequiresAuthorization() bool { return true }
func (t *SaveDocumentTool) Worldwide() bool             { return true }

func (t *SaveDocumentTool) Run(_ context.Context, input string, tc *Context) (string, error) {
	var in struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("save-document input must be JSON with title and content: %w", err)
	}
	if strings.TrimSpace(in.Title) == "" {
		return "A document needs a title. Provide one and try again.", nil
	}
	if err := tc.Documents.SaveDocument(tc.AgentID, in.Title, in.Content); err != nil {
		return "", fmt.Errorf("failed to save document %q: %w", in.Title, err)
	}
	return fmt.Sprintf("Saved document %q.", in.Title), nil
}

// ReadDocumentTool fetches a document by title.
type ReadDocumentTool struct{}

func (t *ReadDocumentTool) Name() string { return "read-document" }

func (t *ReadDocumentTool) Description() string {
	return "read a saved document; input is the document title"
}

func (t *ReadDocumentTool) RequiresAuthorization() bool { return true }
func (t *ReadDocumentTool) Worldwide() bool             { return true }

func (t *ReadDocumentTool) Run(_ context.Context, input string, tc *Context) (string, error) {
	title := strings.TrimSpace(input)
	if title == "" {
		return "Which document? Provide a title.", nil
	}
	content, ok, err := tc.Documents.GetDocument(title)
	if err != nil {
		return "", fmt.Errorf("failed to read document %q: %w", title, err)
	}
	if !ok {
		return fmt.Sprintf("There is no document titled %q.", title), nil
	}
	return content, nil
}

// SearchDocumentsTool finds saved documents matching a query.
type SearchDocumentsTool struct{}

func (t *SearchDocumentsTool) Name() string { return "search-documents" }

func (t *SearchDocumentsTool) Description() string {
	return "search saved documents by keyword; input is the query text"
}

func (t *SearchDocumentsTool) RequiresAuthorization() bool { return true }
func (t *SearchDocumentsTool) Worldwide() bool             { return true }

func (t *SearchDocumentsTool) Run(_ context.Context, input string, tc *Context) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "Provide a query to search documents.", nil
	}
	titles, err := tc.Documents.SearchDocuments(query, 10)
	if err != nil {
		return "", fmt.Errorf("failed to search documents for %q: %w", query, err)
	}
	if len(titles) == 0 {
		return fmt.Sprintf("No documents match %q.", query), nil
	}
	return "Matching documents: " + strings.Join(titles, ", "), nil
}
