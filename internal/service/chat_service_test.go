package service

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"agri-assist-be/internal/apperror"
	"agri-assist-be/internal/constant"
	"agri-assist-be/internal/dto"
	"agri-assist-be/internal/entity"
	"agri-assist-be/internal/pkg/mailer"
	"agri-assist-be/internal/repository/contract"
	"agri-assist-be/internal/repository/memory"
	"agri-assist-be/pkg/chat/assembler"
	"agri-assist-be/pkg/chat/generate"
	"agri-assist-be/pkg/events"
	"agri-assist-be/pkg/llm"
	pktNats "agri-assist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.response, s.err
}

func (s *stubProvider) ModelName() string { return "stub" }

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func newTestService(provider llm.LLMProvider, quota IQuotaService) IChatService {
	return newTestServiceWith(provider, quota, memory.NewMessageRepository(), pktNats.NullPublisher{})
}

func newTestServiceWith(provider llm.LLMProvider, quota IQuotaService, messageRepo contract.MessageRepository, eventBus pktNats.EventPublisher) IChatService {
	sessionRepo := memory.NewSessionRepository()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	if quota == nil {
		quota = NewNullQuotaService()
	}

	return NewChatService(
		messageRepo,
		nil,
		sessionRepo,
		assembler.NewAssembler(messageRepo),
		generate.NewGenerator(provider, time.Second, log.New(io.Discard, "", 0)),
		quota,
		NewPublisherService("TEST_TURNS", pubSub),
		eventBus,
		mailer.NullFeedbackAlerter{},
		noopLogger{},
		log.New(io.Discard, "", 0),
	)
}

// brokenAppendRepo fails the nth Append call and delegates everything else.
type brokenAppendRepo struct {
	contract.MessageRepository
	failOn  int
	appends int
}

func (r *brokenAppendRepo) Append(ctx context.Context, message *entity.ChatMessage) error {
	r.appends++
	if r.appends == r.failOn {
		return errors.New("store down")
	}
	return r.MessageRepository.Append(ctx, message)
}

// captureBus records every published event.
type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Close() {}

func (b *captureBus) typesSeen() []string {
	out := make([]string, len(b.published))
	for i, e := range b.published {
		out[i] = e.EventType()
	}
	return out
}

func TestProcessTextTurnFirstTurn(t *testing.T) {
	svc := newTestService(&stubProvider{response: "Sow wheat in early November."}, nil)

	res, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{
		Message: "when should I sow wheat?",
	})
	if err != nil {
		t.Fatalf("ProcessTextTurn: %v", err)
	}

	if res.SessionId == "" {
		t.Errorf("a session id should be generated")
	}
	if res.UserMessage == nil || res.UserMessage.Role != constant.ChatMessageRoleUser {
		t.Fatalf("user message missing from response")
	}
	if res.UserMessage.Text != "when should I sow wheat?" {
		t.Errorf("UserMessage.Text = %q, want the submitted text verbatim", res.UserMessage.Text)
	}
	if res.BotMessage == nil || res.BotMessage.Role != constant.ChatMessageRoleBot {
		t.Fatalf("bot message missing from response")
	}
	if res.BotMessage.Text != "Sow wheat in early November." {
		t.Errorf("BotMessage.Text = %q", res.BotMessage.Text)
	}
	if res.Durable {
		t.Errorf("memory store turns must report durable=false")
	}
	// First turn sees no prior messages
	if res.UserMessage.Context == nil || res.UserMessage.Context.PriorMessageCount != 0 {
		t.Errorf("first turn window should be empty")
	}

	history, err := svc.GetHistory(context.Background(), res.SessionId, 0)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d messages, want paired user+bot", len(history))
	}
	if history[0].Role != constant.ChatMessageRoleUser || history[1].Role != constant.ChatMessageRoleBot {
		t.Errorf("history should be user first, bot second")
	}
}

func TestProcessTextTurnExplicitSession(t *testing.T) {
	svc := newTestService(&stubProvider{response: "Water every 10 days after sowing."}, nil)

	res, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{
		Message:   "When to water wheat?",
		SessionId: "s1",
	})
	if err != nil {
		t.Fatalf("ProcessTextTurn: %v", err)
	}

	if res.SessionId != "s1" {
		t.Errorf("SessionId = %q, want s1", res.SessionId)
	}
	if res.UserMessage.SessionId != "s1" || res.BotMessage.SessionId != "s1" {
		t.Errorf("both messages must share the caller's session id")
	}
	if res.UserMessage.Text != "When to water wheat?" {
		t.Errorf("UserMessage.Text = %q", res.UserMessage.Text)
	}

	// History is stable across reads with no intervening writes
	first, err := svc.GetHistory(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	second, err := svc.GetHistory(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("history length changed between reads")
	}
	for i := range first {
		if first[i].Id != second[i].Id {
			t.Errorf("history order changed between reads at %d", i)
		}
	}
}

func TestProcessTextTurnCarriesContextForward(t *testing.T) {
	svc := newTestService(&stubProvider{response: "ok"}, nil)

	first, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{
		Message: "first question",
		Context: &dto.FarmHintsDTO{Location: "Nashik", CropType: "grapes"},
	})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}

	second, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{
		Message:   "second question",
		SessionId: first.SessionId,
	})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if second.SessionId != first.SessionId {
		t.Errorf("session id should be preserved")
	}
	if second.Context == nil || second.Context.Location != "Nashik" || second.Context.CropType != "grapes" {
		t.Errorf("stored context should carry into the next turn, got %+v", second.Context)
	}
	if second.Context.PriorMessageCount != 2 {
		t.Errorf("PriorMessageCount = %d, want the first turn's pair", second.Context.PriorMessageCount)
	}
}

func TestProcessVoiceTurnNormalizesText(t *testing.T) {
	svc := newTestService(&stubProvider{response: "Step 1.\n\nStep 2."}, nil)

	res, err := svc.ProcessVoiceTurn(context.Background(), nil, &dto.SendMessageRequest{
		Message: "how do I transplant rice?",
	})
	if err != nil {
		t.Fatalf("ProcessVoiceTurn: %v", err)
	}

	if res.BotMessage.Text != "Step 1. Step 2." {
		t.Errorf("voice text = %q, want flattened sentences", res.BotMessage.Text)
	}
}

func TestProcessTurnProviderFailure(t *testing.T) {
	svc := newTestService(&stubProvider{err: errors.New("model offline")}, nil)

	res, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{
		Message: "hello",
	})
	if err != nil {
		t.Fatalf("a provider failure must not fail the turn: %v", err)
	}

	if res.BotMessage.Text != constant.FallbackResponse {
		t.Errorf("BotMessage.Text = %q, want fallback", res.BotMessage.Text)
	}
	if res.BotMessage.Metadata == nil || res.BotMessage.Metadata.Confidence != 0 {
		t.Errorf("fallback replies carry confidence 0")
	}
}

func TestProcessTurnUserPersistFailureIsFatal(t *testing.T) {
	store := memory.NewMessageRepository()
	repo := &brokenAppendRepo{MessageRepository: store, failOn: 1}
	svc := newTestServiceWith(&stubProvider{response: "ok"}, nil, repo, pktNats.NullPublisher{})

	_, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{
		Message:   "hello",
		SessionId: "s1",
	})
	if apperror.KindOf(err) != apperror.KindPersistence {
		t.Fatalf("failed user-message write must be fatal persistence, got %v", err)
	}

	count, err := store.CountBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("CountBySession: %v", err)
	}
	if count != 0 {
		t.Errorf("no message should be stored after a fatal user write, got %d", count)
	}
}

func TestProcessTurnBotPersistFailureStillAnswers(t *testing.T) {
	store := memory.NewMessageRepository()
	repo := &brokenAppendRepo{MessageRepository: store, failOn: 2}
	svc := newTestServiceWith(&stubProvider{response: "Mulch keeps the soil moist."}, nil, repo, pktNats.NullPublisher{})

	res, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{
		Message:   "how do I retain soil moisture?",
		SessionId: "s1",
	})
	if err != nil {
		t.Fatalf("a failed bot-message write must not fail the turn: %v", err)
	}

	if res.UserMessage == nil || res.BotMessage == nil {
		t.Fatalf("caller must still get the paired result")
	}
	if res.BotMessage.Text != "Mulch keeps the soil moist." {
		t.Errorf("BotMessage.Text = %q, want the generated answer", res.BotMessage.Text)
	}

	// Only the user message made it into the store
	count, err := store.CountBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("CountBySession: %v", err)
	}
	if count != 1 {
		t.Errorf("stored messages = %d, want only the user message", count)
	}
}

func TestTurnAndFeedbackEventsPublished(t *testing.T) {
	bus := &captureBus{}
	svc := newTestServiceWith(&stubProvider{response: "ok"}, nil, memory.NewMessageRepository(), bus)

	res, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{Message: "q"})
	if err != nil {
		t.Fatalf("ProcessTextTurn: %v", err)
	}

	helpful := true
	if _, err := svc.SubmitFeedback(context.Background(), res.BotMessage.Id, &dto.SubmitFeedbackRequest{Helpful: &helpful}); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}

	seen := bus.typesSeen()
	wantOrder := []string{events.TypeTurnCompleted, events.TypeFeedbackReceived}
	if len(seen) != len(wantOrder) {
		t.Fatalf("published events = %v, want %v", seen, wantOrder)
	}
	for i, want := range wantOrder {
		if seen[i] != want {
			t.Errorf("event[%d] = %q, want %q", i, seen[i], want)
		}
	}

	payload := bus.published[1].Payload()
	if payload["session_id"] != res.SessionId {
		t.Errorf("feedback event session = %v, want %s", payload["session_id"], res.SessionId)
	}
}

func TestProcessTurnQuotaExceeded(t *testing.T) {
	svc := newTestService(&stubProvider{response: "ok"}, NewMemoryQuotaService(1))

	first, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{Message: "one"})
	if err != nil {
		t.Fatalf("first turn within quota: %v", err)
	}

	_, err = svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{
		Message:   "two",
		SessionId: first.SessionId,
	})
	if apperror.KindOf(err) != apperror.KindQuota {
		t.Errorf("second turn should exceed quota, got %v", err)
	}
}

func TestSubmitFeedback(t *testing.T) {
	svc := newTestService(&stubProvider{response: "ok"}, nil)

	res, err := svc.ProcessTextTurn(context.Background(), nil, &dto.SendMessageRequest{Message: "q"})
	if err != nil {
		t.Fatalf("ProcessTextTurn: %v", err)
	}

	helpful := false
	rating := 2
	updated, err := svc.SubmitFeedback(context.Background(), res.BotMessage.Id, &dto.SubmitFeedbackRequest{
		Helpful: &helpful,
		Rating:  &rating,
	})
	if err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}

	if updated.Feedback == nil || updated.Feedback.Rating == nil || *updated.Feedback.Rating != 2 {
		t.Errorf("rating not stored: %+v", updated.Feedback)
	}

	_, err = svc.SubmitFeedback(context.Background(), uuid.New(), &dto.SubmitFeedbackRequest{Helpful: &helpful})
	if !apperror.IsNotFound(err) {
		t.Errorf("unknown message should be not found, got %v", err)
	}
}

func TestCreateSession(t *testing.T) {
	svc := newTestService(&stubProvider{response: "ok"}, nil)

	bare, err := svc.CreateSession(context.Background(), nil, &dto.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if bare.SessionId == "" {
		t.Errorf("session id should be generated")
	}
	if bare.UserMessage != nil || bare.BotMessage != nil {
		t.Errorf("bare session should carry no messages")
	}

	seeded, err := svc.CreateSession(context.Background(), nil, &dto.CreateSessionRequest{
		Message: "what fertilizer for maize?",
	})
	if err != nil {
		t.Fatalf("CreateSession with message: %v", err)
	}
	if seeded.UserMessage == nil || seeded.BotMessage == nil {
		t.Errorf("seeded session should run a full first turn")
	}
}

func TestPopularQuestionsLanguageFallback(t *testing.T) {
	svc := newTestService(&stubProvider{response: "ok"}, nil)

	en := svc.PopularQuestions("en")
	if len(en) == 0 {
		t.Fatalf("english catalog should not be empty")
	}

	unknown := svc.PopularQuestions("sw")
	if len(unknown) != len(en) {
		t.Errorf("unknown language should fall back to the english catalog")
	}
}
