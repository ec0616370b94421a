package entity

import (
	"time"

	"github.com/google/uuid"
)

// FarmContext is the structured snapshot taken when a message is written.
// Immutable after creation.
type FarmContext struct {
	Location          string   `json:"location,omitempty"`
	CropType          string   `json:"crop_type,omitempty"`
	Season            string   `json:"season,omitempty"`
	FarmSizeAcres     *float64 `json:"farm_size_acres,omitempty"`
	PriorMessageCount int      `json:"prior_message_count"`
}

// GenerationMetadata carries generation diagnostics for bot messages.
type GenerationMetadata struct {
	ProcessingMs    int64   `json:"processing_ms"`
	Model           string  `json:"model"`
	InputTokensEst  int     `json:"input_tokens_est"`
	OutputTokensEst int     `json:"output_tokens_est"`
	Confidence      float64 `json:"confidence"`
	FailureReason   string  `json:"failure_reason,omitempty"`
}

// MessageFeedback is the only part of a message mutable after creation.
type MessageFeedback struct {
	Helpful *bool   `json:"helpful,omitempty"`
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// MergeFeedback applies partial-update semantics: fields the update omits
// keep their prior values.
func MergeFeedback(prior, update *MessageFeedback) *MessageFeedback {
	if prior == nil {
		prior = &MessageFeedback{}
	}
	if update == nil {
		return prior
	}
	merged := *prior
	if update.Helpful != nil {
		merged.Helpful = update.Helpful
	}
	if update.Rating != nil {
		merged.Rating = update.Rating
	}
	if update.Comment != nil {
		merged.Comment = update.Comment
	}
	return &merged
}

type ChatMessage struct {
	Id        uuid.UUID
	SessionId string
	Role      string
	Text      string
	Language  string
	Context   *FarmContext
	Metadata  *GenerationMetadata
	Feedback  *MessageFeedback
	CreatedAt time.Time
	UpdatedAt *time.Time
}
