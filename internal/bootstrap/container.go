package bootstrap

import (
	"context"
	"fmt"
	"log"

	"heritage-archive-be/internal/config"
	"heritage-archive-be/internal/controller"
	"heritage-archive-be/internal/metrics"
	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/internal/pkg/serverutils"
	"heritage-archive-be/internal/repository/implementation"
	"heritage-archive-be/internal/repository/memory"
	redisRepo "heritage-archive-be/internal/repository/redis"
	"heritage-archive-be/internal/repository/unitofwork"
	"heritage-archive-be/internal/service"
	"heritage-archive-be/internal/websocket"
	"heritage-archive-be/pkg/embedding"
	"heritage-archive-be/pkg/embedding/jina"
	"heritage-archive-be/pkg/ingest"
	"heritage-archive-be/pkg/llm"
	"heritage-archive-be/pkg/llm/factory"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/executor"
	"heritage-archive-be/pkg/rag/intent"
	"heritage-archive-be/pkg/rag/search"
	"heritage-archive-be/pkg/rag/session"
	"heritage-archive-be/pkg/rag/state"
	"heritage-archive-be/pkg/storage"

	pktNats "heritage-archive-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SearchController  controller.ISearchController
	ArchiveController controller.IArchiveController
	AdminController   controller.IAdminController
	HealthController  controller.IHealthController
	JwtMiddleware     fiber.Handler

	// Services (the CLI drives these directly)
	SearchService  service.ISearchService
	ArchiveService service.IArchiveService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	WebSocketHub *websocket.Hub
	Logger       logger.ILogger
	InstanceID   string

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	ctx := context.Background()
	instanceID := uuid.NewString()

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	settings := cfg.Search.Settings()

	c := &Container{Logger: sysLogger, InstanceID: instanceID}

	// 2. Metrics
	var observer rag.Observer = rag.NopObserver{}
	var ingestObserver service.IngestObserver
	var gatherer prometheus.Gatherer
	if cfg.App.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := metrics.New(registry)
		observer, ingestObserver, gatherer = m, m, registry
	}

	// 3. Model providers
	var genaiClient *genai.Client
	if cfg.Keys.GoogleGenAI != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Keys.GoogleGenAI,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("genai client: %w", err)
		}
		genaiClient = client
	}

	embeddingProvider, err := newEmbeddingProvider(cfg, genaiClient)
	if err != nil {
		return nil, err
	}

	llmModel := cfg.Ai.OllamaModel
	if cfg.Ai.LLMProvider == "genai" || cfg.Ai.LLMProvider == "gemini" {
		llmModel = cfg.Ai.AnalysisModel
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, llmModel, cfg.Ai.OllamaBaseURL, genaiClient)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s, LLM Provider: %s", cfg.Ai.EmbeddingProvider, cfg.Ai.LLMProvider)

	// 4. Retrieval core
	archiveRepo := implementation.NewArchiveRepository(db)
	similarityTool := search.NewSimilarityTool(embeddingProvider, archiveRepo, cfg.Search.CacheTTL, sysLogger)
	filterTool := search.NewFilterTool(archiveRepo, sysLogger)

	classifier, reformulator := newIntentComponents(llmProvider, settings)
	retrievalExecutor := executor.NewRetrievalExecutor(
		similarityTool,
		filterTool,
		rag.NewAggregator(settings),
		settings,
		sysLogger,
		observer,
	)

	states := state.NewManager(memory.NewConversationRepository(cfg.Thread.TTL), sysLogger)
	turnLock, closeLock, err := newTurnLock(ctx, cfg.Thread, sysLogger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeLock)

	searchService := service.NewSearchService(service.SearchComponents{
		Classifier: classifier,
		Planner:    rag.NewPlanner(settings, reformulator),
		Executor:   retrievalExecutor,
		States:     states,
		Lock:       turnLock,
		Settings:   settings,
		Observer:   observer,
	}, sysLogger)

	// 5. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	consumerDeps := service.ConsumerDeps{
		Subscriber: pubSub,
		TopicName:  cfg.Ingest.TopicName,
		InstanceID: instanceID,
		Cache:      similarityTool,
	}
	if cfg.Events.NatsURL != "" {
		nc, err := pktNats.Connect(cfg.Events.NatsURL, "heritage-archive-"+instanceID[:8])
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS: %v (cross-instance events disabled)", err)
		} else {
			natsPub := pktNats.NewPublisher(nc, cfg.Events.SubjectPrefix)
			natsSub := pktNats.NewSubscriber(nc, cfg.Events.SubjectPrefix, sysLogger)
			consumerDeps.Relay = natsPub
			consumerDeps.Remote = natsSub
			c.closers = append(c.closers, natsSub.Close, natsPub.Close)
		}
	}

	// WebSocket Hub
	wsHub := websocket.NewHub(sysLogger)
	go wsHub.Run()
	consumerDeps.Broadcaster = wsHub

	publisherService := service.NewPublisherService(cfg.Ingest.TopicName, pubSub)
	consumerService := service.NewConsumerService(consumerDeps, sysLogger)

	// 6. Ingest
	objectStore, err := newObjectStore(ctx, cfg.Storage, sysLogger)
	if err != nil {
		return nil, err
	}
	var analyzer service.ArchiveAnalyzer
	if genaiClient != nil {
		analyzer = ingest.NewAnalyzer(genaiClient, embeddingProvider, ingest.Config{
			Model:        cfg.Ai.AnalysisModel,
			PollInterval: cfg.Ingest.PollInterval,
			MaxWait:      cfg.Ingest.MaxWait,
		}, sysLogger)
	} else {
		analyzer = unavailableAnalyzer{}
		log.Printf("[WARN] GOOGLE_GENAI_API_KEY is empty, archive ingest is disabled")
	}

	archiveService := service.NewArchiveService(
		uowFactory,
		objectStore,
		analyzer,
		publisherService,
		instanceID,
		ingestObserver,
		sysLogger,
	)

	// 7. Controllers
	c.SearchController = controller.NewSearchController(searchService, wsHub, sysLogger)
	c.ArchiveController = controller.NewArchiveController(archiveService)
	c.AdminController = controller.NewAdminController(sysLogger)
	c.HealthController = controller.NewHealthController(instanceID, wsHub, gatherer)
	c.JwtMiddleware = serverutils.JwtMiddleware(cfg.App.JwtSecret)

	c.SearchService = searchService
	c.ArchiveService = archiveService
	c.ConsumerService = consumerService
	c.WebSocketHub = wsHub

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func newEmbeddingProvider(cfg *config.Config, genaiClient *genai.Client) (embedding.EmbeddingProvider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel), nil
	case "jina":
		if cfg.Keys.Jina == "" {
			return nil, fmt.Errorf("EMBEDDING_PROVIDER=jina needs JINA_API_KEY")
		}
		return jina.NewJinaProvider(cfg.Keys.Jina), nil
	default:
		if genaiClient == nil {
			return nil, fmt.Errorf("EMBEDDING_PROVIDER=%s needs GOOGLE_GENAI_API_KEY", cfg.Ai.EmbeddingProvider)
		}
		return embedding.NewGeminiProvider(genaiClient, cfg.Ai.EmbeddingModel), nil
	}
}

// newIntentComponents picks the model-backed classifier and reformulator when an LLM is configured.
func newIntentComponents(provider llm.LLMProvider, settings rag.Settings) (rag.Classifier, rag.Reformulator) {
	if provider == nil {
		return intent.NewRuleClassifier(), rag.KeywordReformulator{}
	}
	return intent.NewModelClassifier(provider, settings.ToolTimeout),
		intent.NewModelReformulator(provider, settings.ToolTimeout)
}

// newTurnLock returns the lock and a closer for whatever connection backs it.
func newTurnLock(ctx context.Context, cfg config.ThreadConfig, sysLogger logger.ILogger) (session.TurnLock, func(), error) {
	mode := session.ParseLockMode(cfg.LockMode)
	if cfg.RedisURL == "" {
		return session.NewLocalTurnLock(mode), func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sysLogger.Warn("STATE", "Failed to parse Redis URL, using it as an address", map[string]interface{}{
			"error": err.Error(),
		})
		opt = &redis.Options{Addr: cfg.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	closeRedis := func() { _ = rdb.Close() }
	return redisRepo.NewTurnLease(rdb, mode, cfg.LeaseTTL, sysLogger), closeRedis, nil
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig, sysLogger logger.ILogger) (storage.ObjectStore, error) {
	if cfg.Driver == "s3" {
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		}, sysLogger)
	}
	return storage.NewLocalStore(cfg.LocalDir)
}
