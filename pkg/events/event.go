package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "FEEDBACK_RECEIVED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Event type codes published by the chat backend.
const (
	TypeFeedbackReceived = "FEEDBACK_RECEIVED"
	TypeTurnCompleted    = "TURN_COMPLETED"
)

// NewTurnCompleted builds the event emitted after a chat turn finishes.
func NewTurnCompleted(sessionId, language string, isVoice bool, confidence float64) Event {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"language":   language,
			"is_voice":   isVoice,
			"confidence": confidence,
		},
		OccurredAt: time.Now(),
	}
}

// NewFeedbackReceived builds the event emitted when a caller rates a bot
// message.
func NewFeedbackReceived(messageId, sessionId string, helpful *bool, rating *int) Event {
	data := map[string]interface{}{
		"message_id": messageId,
		"session_id": sessionId,
	}
	if helpful != nil {
		data["helpful"] = *helpful
	}
	if rating != nil {
		data["rating"] = *rating
	}
	return BaseEvent{
		Type:       TypeFeedbackReceived,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
