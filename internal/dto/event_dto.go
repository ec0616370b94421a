package dto

import "time"

// PublishTurnCompletedMessage is the payload published on the in-process
// bus after each chat turn.
type PublishTurnCompletedMessage struct {
	SessionId    string    `json:"session_id"`
	UserText     string    `json:"user_text"`
	Language     string    `json:"language"`
	IsVoice      bool      `json:"is_voice"`
	Confidence   float64   `json:"confidence"`
	ProcessingMs int64     `json:"processing_ms"`
	CompletedAt  time.Time `json:"completed_at"`
}
