package service

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"agri-assist-be/internal/apperror"
	"agri-assist-be/internal/constant"
	"agri-assist-be/internal/dto"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/pkg/logger"
	"agri-assist-be/internal/pkg/mailer"
	"agri-assist-be/internal/repository/contract"
	"agri-assist-be/internal/repository/memory"
	"agri-assist-be/pkg/chat/assembler"
	"agri-assist-be/pkg/chat/generate"
	"agri-assist-be/pkg/chat/voice"
	"agri-assist-be/pkg/events"
	pktNats "agri-assist-be/pkg/nats"

	"github.com/google/uuid"
)

// IChatService is the per-turn orchestrator plus the feedback/history API.
type IChatService interface {
	ProcessTextTurn(ctx context.Context, userId *uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	ProcessVoiceTurn(ctx context.Context, userId *uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	CreateSession(ctx context.Context, userId *uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetHistory(ctx context.Context, sessionId string, limit int) ([]*dto.ChatMessageDTO, error)
	SubmitFeedback(ctx context.Context, messageId uuid.UUID, request *dto.SubmitFeedbackRequest) (*dto.ChatMessageDTO, error)
	PopularQuestions(language string) []constant.PopularQuestionCategory
	SessionActivity(sessionId string) *dto.SessionActivityResponse
}

type chatService struct {
	messageRepo contract.MessageRepository
	farmerRepo  contract.FarmerRepository
	sessionRepo *memory.SessionRepository

	assembler *assembler.Assembler
	generator *generate.Generator

	quota     IQuotaService
	publisher IPublisherService
	eventBus  pktNats.EventPublisher
	alerter   mailer.IFeedbackAlerter

	sysLogger logger.ILogger
	llmLogger *log.Logger
}

func NewChatService(
	messageRepo contract.MessageRepository,
	farmerRepo contract.FarmerRepository,
	sessionRepo *memory.SessionRepository,
	asm *assembler.Assembler,
	gen *generate.Generator,
	quota IQuotaService,
	publisher IPublisherService,
	eventBus pktNats.EventPublisher,
	alerter mailer.IFeedbackAlerter,
	sysLogger logger.ILogger,
	llmLogger *log.Logger,
) IChatService {
	return &chatService{
		messageRepo: messageRepo,
		farmerRepo:  farmerRepo,
		sessionRepo: sessionRepo,
		assembler:   asm,
		generator:   gen,
		quota:       quota,
		publisher:   publisher,
		eventBus:    eventBus,
		alerter:     alerter,
		sysLogger:   sysLogger,
		llmLogger:   llmLogger,
	}
}

// InitLLMLogger opens the isolated diagnostics log for generator traffic.
func InitLLMLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "llm_chat.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[LLM-CHAT] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (cs *chatService) ProcessTextTurn(ctx context.Context, userId *uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	return cs.processTurn(ctx, userId, request, false)
}

func (cs *chatService) ProcessVoiceTurn(ctx context.Context, userId *uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	return cs.processTurn(ctx, userId, request, true)
}

// processTurn runs one request through the pipeline:
// assemble context -> persist user message -> generate -> persist bot
// message -> respond. Context assembly deliberately precedes the user-message
// write so the recent window holds only prior turns, never the in-flight
// text. The user-message write is the only fatal step.
func (cs *chatService) processTurn(ctx context.Context, userId *uuid.UUID, request *dto.SendMessageRequest, isVoice bool) (*dto.SendMessageResponse, error) {
	sessionId := request.SessionId
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	quotaKey := sessionId
	if userId != nil {
		quotaKey = userId.String()
	}
	if err := cs.quota.Allow(ctx, quotaKey); err != nil {
		return nil, err
	}

	farmer := cs.lookupFarmer(ctx, userId)

	hints := assembler.Hints{Language: request.Language}
	if request.Context != nil {
		hints.Location = request.Context.Location
		hints.CropType = request.Context.CropType
		hints.Season = request.Context.Season
		hints.FarmSizeAcres = request.Context.FarmSizeAcres
	}

	// The window is read before the user message is written so it holds
	// only prior turns, never the in-flight text.
	actx, err := cs.assembler.Build(ctx, sessionId, hints, farmer, isVoice)
	if err != nil {
		cs.sysLogger.Warn("chat", "context assembly degraded to empty window", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		actx = &assembler.AssembledContext{
			SessionId: sessionId,
			Language:  orDefault(request.Language),
			IsVoice:   isVoice,
		}
	}

	now := time.Now()
	farmSnapshot := actx.Farm

	userMessage := &entity.ChatMessage{
		SessionId: sessionId,
		Role:      constant.ChatMessageRoleUser,
		Text:      request.Message,
		Language:  actx.Language,
		Context:   &farmSnapshot,
		CreatedAt: now,
	}
	if err := cs.messageRepo.Append(ctx, userMessage); err != nil {
		return nil, wrapPersistence("failed to persist user message", err)
	}

	generated := cs.generator.Generate(ctx, request.Message, actx)

	botText := generated.Text
	if isVoice {
		botText = voice.ForSpeech(botText)
	}

	botMessage := &entity.ChatMessage{
		SessionId: sessionId,
		Role:      constant.ChatMessageRoleBot,
		Text:      botText,
		Language:  actx.Language,
		Context:   &farmSnapshot,
		Metadata:  &generated.Metadata,
		CreatedAt: now.Add(1 * time.Millisecond),
	}
	if err := cs.messageRepo.Append(ctx, botMessage); err != nil {
		// Best-effort persistence: the caller still gets the answer
		cs.sysLogger.Error("chat", "failed to persist bot message", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}

	if err := cs.publisher.PublishTurnCompleted(ctx, &dto.PublishTurnCompletedMessage{
		SessionId:    sessionId,
		UserText:     request.Message,
		Language:     actx.Language,
		IsVoice:      isVoice,
		Confidence:   generated.Metadata.Confidence,
		ProcessingMs: generated.Metadata.ProcessingMs,
		CompletedAt:  time.Now(),
	}); err != nil {
		cs.llmLogger.Printf("[WARN] turn event publish failed: %v", err)
	}

	if err := cs.eventBus.Publish(ctx, events.NewTurnCompleted(
		sessionId, actx.Language, isVoice, generated.Metadata.Confidence,
	)); err != nil {
		cs.sysLogger.Warn("chat", "turn event publish failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}

	return &dto.SendMessageResponse{
		SessionId:   sessionId,
		UserMessage: dto.ChatMessageToDTO(userMessage),
		BotMessage:  dto.ChatMessageToDTO(botMessage),
		Context:     &farmSnapshot,
		Durable:     cs.messageRepo.Durable(),
	}, nil
}

func (cs *chatService) CreateSession(ctx context.Context, userId *uuid.UUID, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	sessionId := uuid.NewString()

	if request == nil || request.Message == "" {
		return &dto.CreateSessionResponse{SessionId: sessionId}, nil
	}

	turn, err := cs.ProcessTextTurn(ctx, userId, &dto.SendMessageRequest{
		Message:   request.Message,
		SessionId: sessionId,
		Language:  request.Language,
		Context:   request.Context,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{
		SessionId:   turn.SessionId,
		UserMessage: turn.UserMessage,
		BotMessage:  turn.BotMessage,
	}, nil
}

func (cs *chatService) GetHistory(ctx context.Context, sessionId string, limit int) ([]*dto.ChatMessageDTO, error) {
	messages, err := cs.messageRepo.ListBySession(ctx, sessionId, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ChatMessageDTO, len(messages))
	for i, m := range messages {
		out[i] = dto.ChatMessageToDTO(m)
	}
	return out, nil
}

func (cs *chatService) SubmitFeedback(ctx context.Context, messageId uuid.UUID, request *dto.SubmitFeedbackRequest) (*dto.ChatMessageDTO, error) {
	updated, err := cs.messageRepo.UpdateFeedback(ctx, messageId, &entity.MessageFeedback{
		Helpful: request.Helpful,
		Rating:  request.Rating,
		Comment: request.Comment,
	})
	if err != nil {
		return nil, err
	}

	if err := cs.eventBus.Publish(ctx, events.NewFeedbackReceived(
		messageId.String(), updated.SessionId, request.Helpful, request.Rating,
	)); err != nil {
		cs.sysLogger.Warn("feedback", "event publish failed", map[string]interface{}{
			"message_id": messageId.String(),
			"error":      err.Error(),
		})
	}

	if request.Rating != nil && *request.Rating <= 2 {
		comment := ""
		if request.Comment != nil {
			comment = *request.Comment
		}
		go func(sessionId string, rating int) {
			if err := cs.alerter.SendLowRatingAlert(sessionId, messageId.String(), rating, comment); err != nil {
				cs.sysLogger.Warn("feedback", "rating alert failed", map[string]interface{}{
					"message_id": messageId.String(),
					"error":      err.Error(),
				})
			}
		}(updated.SessionId, *request.Rating)
	}

	return dto.ChatMessageToDTO(updated), nil
}

func (cs *chatService) PopularQuestions(language string) []constant.PopularQuestionCategory {
	return constant.PopularQuestions(language)
}

func (cs *chatService) SessionActivity(sessionId string) *dto.SessionActivityResponse {
	activity, found := cs.sessionRepo.Get(sessionId)
	if !found {
		return &dto.SessionActivityResponse{SessionId: sessionId}
	}
	at := activity.LastMessageAt
	return &dto.SessionActivityResponse{
		SessionId:     activity.SessionId,
		Turns:         activity.Turns,
		LastQuery:     activity.LastQuery,
		LastMessageAt: &at,
	}
}

func (cs *chatService) lookupFarmer(ctx context.Context, userId *uuid.UUID) *entity.Farmer {
	if userId == nil || cs.farmerRepo == nil {
		return nil
	}
	farmer, err := cs.farmerRepo.FindById(ctx, *userId)
	if err != nil {
		cs.sysLogger.Warn("chat", "farmer profile lookup failed", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return nil
	}
	return farmer
}

func orDefault(language string) string {
	if language == "" {
		return constant.DefaultLanguage
	}
	return language
}

// wrapPersistence keeps validation failures as-is (no side effect happened)
// and marks everything else as a fatal store failure.
func wrapPersistence(message string, err error) error {
	if apperror.IsValidation(err) {
		return err
	}
	return apperror.Persistence(message, err)
}
