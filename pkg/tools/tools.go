// Package tools provides the fixed catalog of capabilities the plan
// executor can dispatch to: speaking, waiting, searching, and document I/O.
package tools

import (
	"context"

	"github.com/google/uuid"

	"simworld/pkg/conversation"
	"simworld/pkg/world"
)

// Tool is one named capability available to a plan executor.
type Tool interface {
	Name() string
	Description() string
	// RequiresAuthorization gates the tool behind an explicit per-agent
	// grant in addition to registry membership.
	RequiresAuthorization() bool
	// Worldwide tools are usable from any location.
	Worldwide() bool
	Run(ctx context.Context, input string, tc *Context) (string, error)
}

// AgentResolver maps agent names to identities. Implemented by the world
// seed; tools use it to validate recipients.
type AgentResolver interface {
	ResolveAgent(name string) (uuid.UUID, string, bool)
	AgentNames() []string
}

// DocumentStore is the persistence surface document tools need.
type DocumentStore interface {
	SaveDocument(authorID uuid.UUID, title, content string) error
	GetDocument(title string) (content string, ok bool, err error)
	SearchDocuments(query string, limit int) ([]string, error)
}

// SearchProvider answers free-text queries from an external source.
type SearchProvider interface {
	Search(ctx context.Context, query string) (string, error)
}

// Context carries the world surfaces a tool may touch during one Run call.
// Built per agent per tick by the step loop.
type Context struct {
	AgentID    uuid.UUID
	AgentName  string
	LocationID uuid.UUID

	World     *world.World
	Tracker   *conversation.Tracker
	Agents    AgentResolver
	Humans    AgentResolver // human participants (operator console); may be nil
	Documents DocumentStore
	Search    SearchProvider
}
