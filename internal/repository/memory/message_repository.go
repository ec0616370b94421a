package memory

import (
	"context"
	"sync"
	"time"

	"agri-assist-be/internal/apperror"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MessageRepository is the degraded, non-durable message store used when the
// database is unreachable at startup. Messages live only in process memory.
type MessageRepository struct {
	mu       sync.Mutex
	sessions *cache.Cache // sessionId -> []*entity.ChatMessage
	index    *cache.Cache // messageId -> sessionId
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		sessions: cache.New(cache.NoExpiration, 10*time.Minute),
		index:    cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

var _ contract.MessageRepository = (*MessageRepository)(nil)

func (r *MessageRepository) Append(ctx context.Context, message *entity.ChatMessage) error {
	if message.SessionId == "" {
		return apperror.Validation("session id is required")
	}
	if message.Text == "" {
		return apperror.Validation("message text is required")
	}

	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if message.Language == "" {
		message.Language = "en"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *message
	msgs := r.messagesLocked(message.SessionId)
	msgs = append(msgs, &stored)
	r.sessions.Set(message.SessionId, msgs, cache.NoExpiration)
	r.index.Set(message.Id.String(), message.SessionId, cache.NoExpiration)
	return nil
}

func (r *MessageRepository) ListBySession(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.messagesLocked(sessionId)
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return copyMessages(msgs), nil
}

func (r *MessageRepository) Recent(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	if limit <= 0 {
		limit = 5
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.messagesLocked(sessionId)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return copyMessages(msgs), nil
}

func (r *MessageRepository) UpdateFeedback(ctx context.Context, messageId uuid.UUID, feedback *entity.MessageFeedback) (*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionId, found := r.index.Get(messageId.String())
	if !found {
		return nil, apperror.NotFound("message", messageId.String())
	}

	msgs := r.messagesLocked(sessionId.(string))
	for _, msg := range msgs {
		if msg.Id == messageId {
			msg.Feedback = entity.MergeFeedback(msg.Feedback, feedback)
			now := time.Now()
			msg.UpdatedAt = &now
			out := *msg
			return &out, nil
		}
	}
	return nil, apperror.NotFound("message", messageId.String())
}

func (r *MessageRepository) CountBySession(ctx context.Context, sessionId string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.messagesLocked(sessionId))), nil
}

func (r *MessageRepository) Durable() bool {
	return false
}

func (r *MessageRepository) messagesLocked(sessionId string) []*entity.ChatMessage {
	if x, found := r.sessions.Get(sessionId); found {
		return x.([]*entity.ChatMessage)
	}
	return nil
}

func copyMessages(msgs []*entity.ChatMessage) []*entity.ChatMessage {
	out := make([]*entity.ChatMessage, len(msgs))
	for i, m := range msgs {
		c := *m
		out[i] = &c
	}
	return out
}
