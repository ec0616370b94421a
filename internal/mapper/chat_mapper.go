package mapper

import (
	"encoding/json"
	"time"

	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	e := &entity.ChatMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Text:      msg.Text,
		Language:  msg.Language,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: updatedAt,
	}

	if len(msg.Context) > 0 {
		var c entity.FarmContext
		if err := json.Unmarshal(msg.Context, &c); err == nil {
			e.Context = &c
		}
	}
	if len(msg.Metadata) > 0 {
		var md entity.GenerationMetadata
		if err := json.Unmarshal(msg.Metadata, &md); err == nil {
			e.Metadata = &md
		}
	}
	if len(msg.Feedback) > 0 {
		var f entity.MessageFeedback
		if err := json.Unmarshal(msg.Feedback, &f); err == nil {
			e.Feedback = &f
		}
	}

	return e
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	out := &model.ChatMessage{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Text:      msg.Text,
		Language:  msg.Language,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: updatedAt,
	}
	if msg.Context != nil {
		out.Context = toJSON(msg.Context)
	}
	if msg.Metadata != nil {
		out.Metadata = toJSON(msg.Metadata)
	}
	if msg.Feedback != nil {
		out.Feedback = toJSON(msg.Feedback)
	}

	return out
}

func (m *ChatMapper) FarmerToEntity(f *model.Farmer) *entity.Farmer {
	if f == nil {
		return nil
	}

	var updatedAt *time.Time
	if !f.UpdatedAt.IsZero() {
		t := f.UpdatedAt
		updatedAt = &t
	}

	return &entity.Farmer{
		Id:         f.Id,
		Name:       f.Name,
		Location:   f.Location,
		TotalAcres: f.TotalAcres,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
