package contract

import (
	"context"

	"agri-assist-be/internal/entity"

	"github.com/google/uuid"
)

// MessageRepository is the message store contract shared by the durable
// (Postgres) and degraded (in-memory) implementations.
type MessageRepository interface {
	// Append validates and persists a message, assigning Id and CreatedAt.
	Append(ctx context.Context, message *entity.ChatMessage) error

	// ListBySession returns up to limit messages oldest first.
	// An unknown session yields an empty slice.
	ListBySession(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error)

	// Recent returns the most recent limit messages in chronological order.
	Recent(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error)

	// UpdateFeedback merges the given feedback into an existing message.
	UpdateFeedback(ctx context.Context, messageId uuid.UUID, feedback *entity.MessageFeedback) (*entity.ChatMessage, error)

	// CountBySession returns the number of messages in a session.
	CountBySession(ctx context.Context, sessionId string) (int64, error)

	// Durable reports whether writes survive a process restart.
	Durable() bool
}
