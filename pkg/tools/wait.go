package tools

import "context"

// WaitTool does nothing for a beat. Useful when the agent is waiting for a
// reply or for something to happen around it.
type WaitTool struct{}

func (t *WaitTool) Name() string { return "wait" }

func (t *WaitTool) Description() string {
	return "do nothing and observe your surroundings; use this while waiting for a reply"
}

func (t *WaitTool) RequiresAuthorization() bool { return false }
func (t *WaitTool) Worldwide() bool             { return true }

func (t *WaitTool) Run(context.Context, string, *Context) (string, error) {
	return "You waited and kept an eye on your surroundings.", nil
}
