package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"simworld/pkg/world"
)

// SpeakInput is the canonical input for the speak tool. The executor
// normalizes the oracle's free-form output into this shape before dispatch.
type SpeakInput struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// BroadcastRecipients are recipient names that address everyone present.
var BroadcastRecipients = map[string]struct{}{
	"": {}, "everyone": {}, "all": {}, "everybody": {}, "broadcast": {},
}

// SpeakTool sends a message to another agent or broadcasts to the room. The
// conversation tracker is consulted before the event is committed; a
// disallowed send returns an explanatory observation, not an error.
type SpeakTool struct{}

func (t *SpeakTool) Name() string { return "speak" }

func (t *SpeakTool) Description() string {
	return `say something out loud; input must be JSON {"recipient": "<name or everyone>", "message": "<what to say>"}`
}

func (t *SpeakTool) RequiresAuthorization() bool { return false }
func (t *SpeakTool) Worldwide() bool             { return false }

func (t *SpeakTool) Run(_ context.Context, input string, tc *Context) (string, error) {
	var in SpeakInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return "", fmt.Errorf("speak input must be JSON with recipient and message: %w", err)
	}
	if strings.TrimSpace(in.Message) == "" {
		return "You said nothing, so nothing happened. Provide a message to speak.", nil
	}

	var recipientID *uuid.UUID
	var recipientName string
	subtype := world.SubtypeBroadcast

	key := strings.ToLower(strings.TrimSpace(in.Recipient))
	if _, broadcast := BroadcastRecipients[key]; !broadcast {
		id, name, ok := tc.Agents.ResolveAgent(in.Recipient)
		subtype = world.SubtypeAgentToAgent
		if !ok && tc.Humans != nil {
			id, name, ok = tc.Humans.ResolveAgent(in.Recipient)
			subtype = world.SubtypeAgentToHuman
		}
		if !ok {
			known := tc.Agents.AgentNames()
			if tc.Humans != nil {
				known = append(known, tc.Humans.AgentNames()...)
			}
			return fmt.Sprintf(
				"%q is not someone you can talk to. You know of: %s.",
				in.Recipient, strings.Join(known, ", "),
			), nil
		}
		recipientID = &id
		recipientName = name
	}

	// Check-then-commit runs atomically inside the tracker.
	if !tc.Tracker.RecordMessage(tc.AgentID, recipientID) {
		who := recipientName
		if recipientID == nil {
			who = "the room"
		}
		return fmt.Sprintf(
			"You have already spoken to %s and are waiting for a reply. Wait for a response before speaking to them again.",
			who,
		), nil
	}

	var description string
	if recipientID == nil {
		description = fmt.Sprintf("%s said to everyone: %q", tc.AgentName, in.Message)
	} else {
		description = fmt.Sprintf("%s said to %s: %q", tc.AgentName, recipientName, in.Message)
	}
	tc.World.Log.Append(world.NewMessageEvent(subtype, description, tc.LocationID, tc.AgentID, recipientID))

	if recipientID == nil {
		return fmt.Sprintf("You said to everyone: %q", in.Message), nil
	}
	return fmt.Sprintf("You said to %s: %q. Wait for their reply before speaking to them again.", recipientName, in.Message), nil
}
