package bootstrap

import (
	"context"
	"log"
	"time"

	"oreza-assistant-be/internal/config"
	"oreza-assistant-be/internal/controller"
	"oreza-assistant-be/internal/pkg/logger"
	"oreza-assistant-be/internal/pkg/serverutils"
	"oreza-assistant-be/internal/repository/memory"
	"oreza-assistant-be/internal/service"
	"oreza-assistant-be/pkg/ai/autosearch"
	"oreza-assistant-be/pkg/ai/classifier"
	"oreza-assistant-be/pkg/ai/orchestrator"
	"oreza-assistant-be/pkg/assistant/prompt"
	"oreza-assistant-be/pkg/calendar"
	"oreza-assistant-be/pkg/calendar/intent"
	"oreza-assistant-be/pkg/llm"
	"oreza-assistant-be/pkg/llm/factory"
	mem "oreza-assistant-be/pkg/memory"
	"oreza-assistant-be/pkg/search"

	pktNats "oreza-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	SessionController  controller.ISessionController
	CalendarController controller.ICalendarController
	SearchController   controller.ISearchController
	AdminController    controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	eventLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)
	auth := serverutils.JwtMiddleware(cfg.App.JwtSecret)

	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		log.Printf("[WARN] Unknown timezone %q, falling back to UTC: %v", cfg.Calendar.Timezone, err)
		loc = time.UTC
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	c := &Container{Logger: sysLogger}

	// NATS relay is optional; the in-process bus works without it
	var relay service.EventRelay
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, eventLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		relay = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	// Redis backs the search cache
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	// 3. Generators
	providers := make(map[string]llm.LLMProvider)
	var generators []orchestrator.Generator
	for _, g := range cfg.OrderedGenerators() {
		p, err := factory.NewLLMProvider(ctx, factory.ProviderConfig{
			Provider: g.Provider,
			Model:    g.Model,
			BaseURL:  g.BaseURL,
			APIKey:   g.APIKey,
		})
		if err != nil {
			sysLogger.Warn("Bootstrap", "Generator disabled", map[string]interface{}{
				"generator": g.ID,
				"error":     err.Error(),
			})
			continue
		}
		providers[g.ID] = p
		generators = append(generators, orchestrator.NewLLMGenerator(g.ID, p, g.Confidence, g.Reasoning))
	}
	if len(generators) == 0 {
		sysLogger.Warn("Bootstrap", "No generators configured; every chat turn will fail", nil)
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithTimeout(time.Duration(cfg.Orchestrator.TimeoutSeconds) * time.Second),
		orchestrator.WithPersona(prompt.Persona),
	}
	for _, g := range generators {
		if g.ID() == cfg.Orchestrator.JudgeID {
			orchOpts = append(orchOpts, orchestrator.WithJudge(g))
			break
		}
	}
	orch := orchestrator.New(sysLogger, generators, orchOpts...)

	analysis := providers[cfg.Analysis.GeneratorID]
	moodClassifier := classifier.New(analysis, sysLogger)

	// 4. Search
	var searchProvider search.Provider = search.NewGoogleProvider(cfg.Search.GoogleAPIKey, cfg.Search.GoogleCSEID, sysLogger)
	searchProvider = search.NewCachedProvider(searchProvider, rdb, time.Duration(cfg.Search.CacheTTLMinutes)*time.Minute, sysLogger)
	var searcher service.AutoSearcher
	if cfg.Search.AutoSearch {
		searcher = autosearch.New(analysis, searchProvider, search.NewHTTPFetcher(cfg.Search.PageCharLimit, sysLogger), sysLogger)
	}

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.EventTopic, pubSub, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.EventTopic, relay, eventLogger)

	sessionRepo := memory.NewSessionRepository(
		time.Duration(cfg.Session.IdleTTLMinutes)*time.Minute,
		time.Duration(cfg.Session.CleanupIntervalMinutes)*time.Minute,
	)
	defaults := mem.DefaultTierConfigs()
	tierOpt := func(name mem.TierName, capacity int) mem.Option {
		tc := defaults[name]
		tc.Capacity = capacity
		return mem.WithTier(name, tc)
	}
	sessionService := service.NewSessionService(sessionRepo, publisherService, sysLogger,
		tierOpt(mem.Immediate, cfg.Memory.ImmediateCapacity),
		tierOpt(mem.ShortTerm, cfg.Memory.ShortTermCapacity),
		tierOpt(mem.LongTerm, cfg.Memory.LongTermCapacity),
		tierOpt(mem.Meta, cfg.Memory.MetaCapacity),
	)

	calendarService := service.NewCalendarService(
		intent.NewLLMTranslator(analysis, loc, sysLogger),
		calendar.NewMemoryStore(),
		sessionRepo,
		publisherService,
		loc,
		sysLogger,
	)
	var chatCalendar service.ICalendarService
	if cfg.Session.CalendarSync {
		chatCalendar = calendarService
	}

	strategy, err := orchestrator.ParseStrategy(cfg.Orchestrator.Strategy)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Unknown default strategy, using concurrent-race", map[string]interface{}{"strategy": cfg.Orchestrator.Strategy})
		strategy = orchestrator.ConcurrentRace
	}
	chatService := service.NewChatService(
		sessionService,
		orch,
		moodClassifier,
		searcher,
		chatCalendar,
		publisherService,
		service.ChatSettings{
			Strategy:           strategy,
			HistoryWindow:      cfg.Session.HistoryWindow,
			PromptWindow:       cfg.Session.PromptWindow,
			AnalysisInterval:   cfg.Session.AnalysisInterval,
			AnalysisWindow:     cfg.Session.AnalysisWindow,
			ContextTokenBudget: cfg.Memory.ContextTokenBudget,
		},
		sysLogger,
	)
	searchService := service.NewSearchService(searchProvider, analysis, sessionService, sysLogger)
	adminService := service.NewAdminService(sessionService, orch.Generators(), sysLogger)

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatService, auth)
	c.SessionController = controller.NewSessionController(sessionService, auth)
	c.CalendarController = controller.NewCalendarController(calendarService, auth)
	c.SearchController = controller.NewSearchController(searchService, auth)
	c.AdminController = controller.NewAdminController(adminService, auth)

	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	return c
}

// Close releases external connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
