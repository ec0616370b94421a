package bootstrap

import (
	"context"
	"log"
	"time"

	"agri-assist-be/internal/config"
	"agri-assist-be/internal/controller"
	"agri-assist-be/internal/pkg/logger"
	"agri-assist-be/internal/pkg/mailer"
	"agri-assist-be/internal/repository/contract"
	"agri-assist-be/internal/repository/implementation"
	"agri-assist-be/internal/repository/memory"
	"agri-assist-be/internal/service"
	"agri-assist-be/pkg/chat/assembler"
	"agri-assist-be/pkg/chat/generate"
	"agri-assist-be/pkg/llm/factory"

	pktNats "agri-assist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

// NewContainer wires the whole dependency graph. db may be nil; the store
// then degrades to the in-memory repository and responses carry durable=false.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	var messageRepo contract.MessageRepository
	var farmerRepo contract.FarmerRepository
	if db != nil {
		messageRepo = implementation.NewMessageRepository(db)
		farmerRepo = implementation.NewFarmerRepository(db)
	} else {
		log.Printf("[WARN] Database unavailable, using in-memory message store (non-durable)")
		messageRepo = memory.NewMessageRepository()
		farmerRepo = nil
	}

	sessionRepo := memory.NewSessionRepository()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.Provider,
		cfg.Ai.Model,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	// 2.5 Optional Infrastructure
	// NATS
	var eventBus pktNats.EventPublisher = pktNats.NullPublisher{}
	if cfg.App.NatsEnabled {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			eventBus = natsPub
		}
	}

	// Quota guard: redis when reachable, in-process counter otherwise
	var quota service.IQuotaService = service.NewNullQuotaService()
	if cfg.Quota.DailyLimit > 0 {
		quota = service.NewMemoryQuotaService(cfg.Quota.DailyLimit)
		if cfg.App.RedisEnabled {
			opt, err := redis.ParseURL(cfg.App.RedisURL)
			if err != nil {
				log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
				opt = &redis.Options{
					Addr: cfg.App.RedisURL,
				}
			}
			rdb := redis.NewClient(opt)
			if _, err := rdb.Ping(context.Background()).Result(); err != nil {
				log.Printf("[WARN] Failed to connect to Redis: %v. Quota falls back to memory", err)
			} else {
				quota = service.NewRedisQuotaService(rdb, cfg.Quota.DailyLimit)
			}
		}
	}

	// Mailer
	var alerter mailer.IFeedbackAlerter = mailer.NullFeedbackAlerter{}
	if cfg.SMTP.Enabled {
		alerter = mailer.NewFeedbackAlerter(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
			cfg.SMTP.AlertEmail,
		)
	}

	// 3. Pipeline Components
	asm := assembler.NewAssembler(messageRepo)
	llmLogger := service.InitLLMLogger()
	gen := generate.NewGenerator(
		llmProvider,
		time.Duration(cfg.Ai.TimeoutSeconds)*time.Second,
		llmLogger,
	)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.App.TurnTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.TurnTopic, sessionRepo)

	chatService := service.NewChatService(
		messageRepo,
		farmerRepo,
		sessionRepo,
		asm,
		gen,
		quota,
		publisherService,
		eventBus,
		alerter,
		sysLogger,
		llmLogger,
	)

	// Websocket traffic gets its own file log, kept out of the main stream
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")

	return &Container{
		ChatController: controller.NewChatController(chatService, wsLogger),

		ConsumerService: consumerService,
	}
}
