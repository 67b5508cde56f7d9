package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/terramar-app/terramar-backend/app/db"
	"github.com/terramar-app/terramar-backend/app/observability/metrics"
	"github.com/terramar-app/terramar-backend/config"
	"github.com/terramar-app/terramar-backend/internal/api/auth"
	"github.com/terramar-app/terramar-backend/internal/api/chat"
	"github.com/terramar-app/terramar-backend/internal/api/dashboard"
	"github.com/terramar-app/terramar-backend/internal/api/events"
	generativeAI "github.com/terramar-app/terramar-backend/internal/api/generative_ai"
	"github.com/terramar-app/terramar-backend/internal/api/guides"
	"github.com/terramar-app/terramar-backend/internal/api/items"
	"github.com/terramar-app/terramar-backend/internal/api/partners"
	"github.com/terramar-app/terramar-backend/internal/api/profiles"
	"github.com/terramar-app/terramar-backend/internal/api/tools"
	"github.com/terramar-app/terramar-backend/internal/cache"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	Cache  *cache.Layer

	AuthHandler      *auth.HandlerImpl
	ProfileService   profiles.Service
	ProfileHandler   *profiles.HandlerImpl
	EventHandler     *events.HandlerImpl
	GuideHandler     *guides.HandlerImpl
	PartnerHandler   *partners.HandlerImpl
	ItemHandler      *items.HandlerImpl
	ChatHandler      *chat.HandlerImpl
	DashboardHandler *dashboard.HandlerImpl
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger, metrics.Get())
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	cacheLayer := cache.New(logger).WithMetrics(metrics.Get())

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, cfg.Auth, logger)
	authHandler := auth.NewAuthHandlerImpl(authService, cfg.Auth, logger)

	profileRepo := profiles.NewPostgresProfileRepo(pool, logger)
	profileService := profiles.NewProfileService(profileRepo, cacheLayer, logger)
	profileHandler := profiles.NewHandlerImpl(profileService, logger)

	eventRepo := events.NewPostgresEventRepo(pool, logger)
	eventService := events.NewEventService(eventRepo, cacheLayer, logger)
	eventHandler := events.NewHandlerImpl(eventService, logger)

	guideRepo := guides.NewPostgresGuideRepo(pool, logger)
	guideService := guides.NewGuideService(guideRepo, cacheLayer, logger)
	guideHandler := guides.NewHandlerImpl(guideService, logger)

	partnerRepo := partners.NewPostgresPartnerRepo(pool, logger)
	partnerService := partners.NewPartnerService(partnerRepo, cacheLayer, logger)
	partnerHandler := partners.NewHandlerImpl(partnerService, logger)

	itemRepo := items.NewPostgresItemRepo(pool, logger)
	itemService := items.NewItemService(itemRepo, cacheLayer, logger)
	itemHandler := items.NewHandlerImpl(itemService, logger)

	dashboardRepo := dashboard.NewPostgresDashboardRepo(pool, logger)
	dashboardHandler := dashboard.NewHandlerImpl(dashboardRepo, logger)

	aiClient, err := generativeAI.NewAIClient(ctx)
	if err != nil {
		logger.Error("Failed to initialize AI client", slog.Any("error", err))
		pool.Close()
		return nil, err
	}

	weatherClient := tools.NewWeatherClient(cfg.Weather.BaseURL, cfg.Weather.Latitude, cfg.Weather.Longitude, logger)

	registry := tools.NewRegistry()
	registry.Register(tools.NewWeatherTool(weatherClient))
	registry.Register(tools.NewEventsTool(eventService))
	registry.Register(tools.NewItemsTool(itemService))
	registry.Register(tools.NewGuidesTool(guideService))
	registry.Register(tools.NewPartnersTool(partnerService))

	chatRepo := chat.NewPostgresChatRepo(pool, logger)
	chatService := chat.NewChatService(chatRepo, aiClient, registry, cacheLayer, logger, chat.Options{
		Model:        cfg.AI.Model,
		TitleModel:   cfg.AI.TitleModel,
		MaxToolSteps: cfg.AI.MaxToolSteps,
	}).WithMetrics(metrics.Get())
	chatHandler := chat.NewHandlerImpl(chatService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		Cache:            cacheLayer,
		AuthHandler:      authHandler,
		ProfileService:   profileService,
		ProfileHandler:   profileHandler,
		EventHandler:     eventHandler,
		GuideHandler:     guideHandler,
		PartnerHandler:   partnerHandler,
		ItemHandler:      itemHandler,
		ChatHandler:      chatHandler,
		DashboardHandler: dashboardHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Logger.Info("Closing database connection pool")
		c.Pool.Close()
	}
}
