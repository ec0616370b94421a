package dto

import (
	"time"

	"agri-assist-be/internal/entity"

	"github.com/google/uuid"
)

// FarmHintsDTO carries caller-declared context hints for one turn.
type FarmHintsDTO struct {
	Location      string   `json:"location,omitempty"`
	CropType      string   `json:"crop_type,omitempty"`
	Season        string   `json:"season,omitempty"`
	FarmSizeAcres *float64 `json:"farm_size_acres,omitempty"`
}

type SendMessageRequest struct {
	Message   string        `json:"message" validate:"required"`
	SessionId string        `json:"session_id,omitempty"`
	Language  string        `json:"language,omitempty" validate:"omitempty,max=8"`
	Context   *FarmHintsDTO `json:"context,omitempty"`
	IsVoice   bool          `json:"is_voice,omitempty"`
}

type ChatMessageDTO struct {
	Id        uuid.UUID                  `json:"id"`
	SessionId string                     `json:"session_id"`
	Role      string                     `json:"role"`
	Text      string                     `json:"text"`
	Language  string                     `json:"language"`
	Context   *entity.FarmContext        `json:"context,omitempty"`
	Metadata  *entity.GenerationMetadata `json:"metadata,omitempty"`
	Feedback  *entity.MessageFeedback    `json:"feedback,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
}

type SendMessageResponse struct {
	SessionId   string              `json:"session_id"`
	UserMessage *ChatMessageDTO     `json:"user_message"`
	BotMessage  *ChatMessageDTO     `json:"bot_message"`
	Context     *entity.FarmContext `json:"context,omitempty"`
	Durable     bool                `json:"durable"`
}

type CreateSessionRequest struct {
	Message  string        `json:"message,omitempty"`
	Language string        `json:"language,omitempty" validate:"omitempty,max=8"`
	Context  *FarmHintsDTO `json:"context,omitempty"`
}

type CreateSessionResponse struct {
	SessionId   string          `json:"session_id"`
	UserMessage *ChatMessageDTO `json:"user_message,omitempty"`
	BotMessage  *ChatMessageDTO `json:"bot_message,omitempty"`
}

type SubmitFeedbackRequest struct {
	Helpful *bool   `json:"helpful,omitempty"`
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

type SessionActivityResponse struct {
	SessionId     string     `json:"session_id"`
	Turns         int        `json:"turns"`
	LastQuery     string     `json:"last_query,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// ChatMessageToDTO converts a stored message for API responses.
func ChatMessageToDTO(m *entity.ChatMessage) *ChatMessageDTO {
	if m == nil {
		return nil
	}
	return &ChatMessageDTO{
		Id:        m.Id,
		SessionId: m.SessionId,
		Role:      m.Role,
		Text:      m.Text,
		Language:  m.Language,
		Context:   m.Context,
		Metadata:  m.Metadata,
		Feedback:  m.Feedback,
		CreatedAt: m.CreatedAt,
	}
}
