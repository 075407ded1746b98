// Package world holds the shared simulation state: locations, the event
// log agents observe from, and the scheduler that drives agent ticks.
package world

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType distinguishes communication events from everything else.
type EventType string

const (
	EventTypeMessage    EventType = "message"
	EventTypeNonMessage EventType = "non_message"
)

// MessageSubtype narrows message events by their transport.
type MessageSubtype string

const (
	SubtypeAgentToAgent MessageSubtype = "agent_to_agent"
	SubtypeAgentToHuman MessageSubtype = "agent_to_human"
	SubtypeHumanReply   MessageSubtype = "human_reply"
	SubtypeBroadcast    MessageSubtype = "broadcast"
)

// Event is a single immutable occurrence in the world. Events are append-only:
// once in the log they are never modified or removed.
type Event struct {
	ID          uuid.UUID      `json:"id"`
	Type        EventType      `json:"type"`
	Subtype     MessageSubtype `json:"subtype,omitempty"`
	Description string         `json:"description"`
	LocationID  uuid.UUID      `json:"location_id"`
	SenderID    *uuid.UUID     `json:"sender_id,omitempty"`
	RecipientID *uuid.UUID     `json:"recipient_id,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`

	// WitnessIDs is fixed at append time from the agents present at the
	// event's location plus the explicit recipient.
	WitnessIDs []uuid.UUID `json:"witness_ids,omitempty"`
}

// NewEvent creates a non-message event at a location.
func NewEvent(description string, locationID uuid.UUID) Event {
	return Event{
		ID:          uuid.New(),
		Type:        EventTypeNonMessage,
		Description: description,
		LocationID:  locationID,
		Timestamp:   time.Now(),
	}
}

// NewMessageEvent creates a message event between a sender and an optional
// recipient. A nil recipient with SubtypeBroadcast addresses everyone at the
// location.
func NewMessageEvent(subtype MessageSubtype, description string, locationID uuid.UUID, sender uuid.UUID, recipient *uuid.UUID) Event {
	return Event{
		ID:          uuid.New(),
		Type:        EventTypeMessage,
		Subtype:     subtype,
		Description: description,
		LocationID:  locationID,
		SenderID:    &sender,
		RecipientID: recipient,
		Timestamp:   time.Now(),
	}
}

// WitnessedBy reports whether agentID may observe this event.
func (e *Event) WitnessedBy(agentID uuid.UUID) bool {
	for _, id := range e.WitnessIDs {
		if id == agentID {
			return true
		}
	}
	return false
}

// ToJSON serializes the event for the archive.
func (e *Event) ToJSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize event %s: %w", e.ID, err)
	}
	return data, nil
}

// EventFromJSON parses an archived event line.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	return &e, nil
}
