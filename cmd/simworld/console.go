package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"simworld/pkg/agent"
	"simworld/pkg/conversation"
	"simworld/pkg/logx"
	"simworld/pkg/world"
)

// Console is the human operator's presence in the world. Agents can address
// it through the speak tool; lines typed on stdin become human-reply events.
// It implements tools.AgentResolver for its single participant.
type Console struct {
	id      uuid.UUID
	name    string
	roster  *agent.Roster
	w       *world.World
	tracker *conversation.Tracker
	logger  *logx.Logger
}

// NewConsole creates the operator participant.
func NewConsole(name string, roster *agent.Roster, w *world.World, tracker *conversation.Tracker) *Console {
	return &Console{
		id:      uuid.New(),
		name:    name,
		roster:  roster,
		w:       w,
		tracker: tracker,
		logger:  logx.NewLogger("console"),
	}
}

// ResolveAgent implements tools.AgentResolver for the operator.
func (c *Console) ResolveAgent(name string) (uuid.UUID, string, bool) {
	if strings.EqualFold(strings.TrimSpace(name), c.name) {
		return c.id, c.name, true
	}
	return uuid.Nil, "", false
}

// AgentNames implements tools.AgentResolver.
func (c *Console) AgentNames() []string { return []string{c.name} }

// Run reads "Agent Name: message" lines from stdin until EOF or ctx
// cancellation, injecting each as a human reply addressed to that agent.
func (c *Console) Run(ctx context.Context) {
	c.logger.Info("operator console ready; address agents as \"Name: message\"")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, message, ok := strings.Cut(line, ":")
		if !ok {
			c.logger.Warn("could not parse line; use \"Name: message\"")
			continue
		}

		target, fullName, found := c.roster.ResolveAgent(strings.TrimSpace(name))
		if !found {
			c.logger.Warn("no agent named %q; agents: %s", strings.TrimSpace(name), strings.Join(c.roster.AgentNames(), ", "))
			continue
		}
		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}

		c.deliver(target, fullName, message)
	}
}

// deliver reopens the operator's thread with the agent and commits the
// message as a human-reply event at the agent's location, so the agent
// witnesses it on its next tick.
func (c *Console) deliver(target uuid.UUID, fullName, message string) {
	locationID := c.locateAgent(target)

	c.tracker.RecordResponse(c.id, &target)
	if !c.tracker.RecordMessage(c.id, &target) {
		c.logger.Warn("still waiting on %s; message dropped", fullName)
		return
	}
	c.w.Log.Append(world.NewMessageEvent(
		world.SubtypeHumanReply,
		fmt.Sprintf("%s said to %s: %q", c.name, fullName, message),
		locationID, c.id, &target,
	))
}

func (c *Console) locateAgent(id uuid.UUID) uuid.UUID {
	for _, a := range c.roster.All() {
		if a.ID() == id {
			return a.LocationID()
		}
	}
	return uuid.Nil
}
