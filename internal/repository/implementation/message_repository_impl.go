package implementation

import (
	"context"
	"errors"
	"time"

	"agri-assist-be/internal/apperror"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/mapper"
	"agri-assist-be/internal/model"
	"agri-assist-be/internal/repository/contract"
	"agri-assist-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) Append(ctx context.Context, message *entity.ChatMessage) error {
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

	m := r.mapper.ChatMessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ChatMessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) ListBySession(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	var models []*model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
		specification.Limit{N: limit},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entities := make([]*entity.ChatMessage, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChatMessageToEntity(m)
	}
	return entities, nil
}

// Recent fetches newest-first and reverses so callers always see
// chronological order. The context assembler depends on this.
func (r *MessageRepositoryImpl) Recent(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	if limit <= 0 {
		limit = 5
	}

	var models []*model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: limit},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entities := make([]*entity.ChatMessage, len(models))
	for i := range models {
		entities[len(models)-1-i] = r.mapper.ChatMessageToEntity(models[i])
	}
	return entities, nil
}

func (r *MessageRepositoryImpl) UpdateFeedback(ctx context.Context, messageId uuid.UUID, feedback *entity.MessageFeedback) (*entity.ChatMessage, error) {
	var m model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: messageId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("message", messageId.String())
		}
		return nil, err
	}

	existing := r.mapper.ChatMessageToEntity(&m)
	existing.Feedback = entity.MergeFeedback(existing.Feedback, feedback)

	updated := r.mapper.ChatMessageToModel(existing)
	if err := r.db.WithContext(ctx).Model(&model.ChatMessage{}).
		Where("id = ?", messageId).
		Update("feedback", updated.Feedback).Error; err != nil {
		return nil, err
	}

	return existing, nil
}

func (r *MessageRepositoryImpl) CountBySession(ctx context.Context, sessionId string) (int64, error) {
	var count int64
	query := r.applySpecifications(
		r.db.WithContext(ctx).Model(&model.ChatMessage{}),
		specification.BySessionID{SessionID: sessionId},
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepositoryImpl) Durable() bool {
	return true
}
