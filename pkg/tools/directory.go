package tools

import (
	"context"
	"fmt"
	"strings"
)

// DirectoryTool lists who and where exists in the world, so an agent can
// discover valid recipients and locations.
type DirectoryTool struct{}

func (t *DirectoryTool) Name() string { return "directory" }

func (t *DirectoryTool) Description() string {
	return "list the people you can talk to and the places you can go"
}

func (t *DirectoryTool) RequiresAuthorization() bool { return false }
func (t *DirectoryTool) Worldwide() bool             { return true }

func (t *DirectoryTool) Run(_ context.Context, _ string, tc *Context) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "People: %s\n", strings.Join(tc.Agents.AgentNames(), ", "))
	fmt.Fprintf(&b, "Places: %s\n", strings.Join(tc.World.Directory.Names(), ", "))
	return b.String(), nil
}
