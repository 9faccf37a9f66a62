package app

import (
	"soulcertify-backend/internal/assistant"
	"soulcertify-backend/internal/config"
	"soulcertify-backend/internal/database"
	"soulcertify-backend/internal/documents"
	"soulcertify-backend/internal/health"
	"soulcertify-backend/internal/issuance"
	"soulcertify-backend/internal/ledger"
	"soulcertify-backend/internal/middleware"
	"soulcertify-backend/internal/requests"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration. Returns the DB and Redis handles for startup checks.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
		app.Use(middleware.HealthMarker(rdb))
	}

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Identity())

	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "soulcertify.db"
	}
	db, err := database.Open(dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}

	// Health module (no auth beyond admin key)
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	if sqlDB, err := db.DB(); err == nil {
		healthHandlers.DB = sqlDB
	}
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/errors", healthHandlers.Errors)
	app.Get("/reset", healthHandlers.Reset)

	// Credential ledger
	ledgerService := &ledger.Service{DB: db, Owner: cfg.OwnerAddress}
	ledgerHandlers := &ledger.Handlers{Service: ledgerService}
	certGroup := app.Group("/api/v1/certificates")
	certGroup.Get("/owner", ledgerHandlers.Owner)
	certGroup.Get("/student/:address", ledgerHandlers.ListByStudent)
	certGroup.Get("/:id", ledgerHandlers.Get)
	certGroup.Post("/", middleware.RequireIdentity(), ledgerHandlers.Issue)
	certGroup.Post("/:id/approve", middleware.RequireIdentity(), ledgerHandlers.Approve)
	certGroup.Post("/:id/revoke", middleware.RequireIdentity(), ledgerHandlers.Revoke)

	// Request queue
	queueService := &requests.Service{DB: db}
	queueHandlers := &requests.Handlers{Service: queueService}
	reqGroup := app.Group("/api/v1/certificate-requests")
	reqGroup.Post("/", queueHandlers.Submit)
	reqGroup.Get("/", queueHandlers.List)

	// Issuance coordinator (owner decisions)
	coordinator := &issuance.Service{Queue: queueService, Ledger: ledgerService}
	coordinatorHandlers := &issuance.Handlers{
		Service: coordinator,
		Finder:  &issuance.GormCertificateFinder{DB: db},
		Owner:   cfg.OwnerAddress,
	}
	reqGroup.Post("/reconcile", middleware.RequireIdentity(), coordinatorHandlers.Reconcile)
	reqGroup.Get("/:id", queueHandlers.Get)
	reqGroup.Post("/:id/approve", middleware.RequireIdentity(), coordinatorHandlers.Approve)
	reqGroup.Post("/:id/reject", middleware.RequireIdentity(), coordinatorHandlers.Reject)

	// Assistant intake
	completer := &assistant.VeniceClient{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
	}
	assistantService := &assistant.Service{Completer: completer}
	assistantHandlers := &assistant.Handlers{Service: assistantService}
	aiGroup := app.Group("/api/v1/assistant", middleware.RequireIdentity())
	aiGroup.Post("/chat", assistantHandlers.Chat)
	aiGroup.Post("/extract", assistantHandlers.Extract)
	aiGroup.Post("/suggest-skills", assistantHandlers.SuggestSkills)
	aiGroup.Post("/analyze", assistantHandlers.Analyze)

	// Documents
	docService := &documents.Service{
		UploadsDir: cfg.UploadsDir,
		GatewayURL: cfg.PinataGateway,
	}
	if cfg.PinataAPIKey != "" && cfg.PinataAPISecret != "" {
		docService.Pinner = &documents.PinataClient{
			APIKey:    cfg.PinataAPIKey,
			APISecret: cfg.PinataAPISecret,
		}
	}
	docHandlers := &documents.Handlers{Service: docService}
	app.Post("/api/v1/documents/upload", middleware.RequireIdentity(), docHandlers.Upload)

	return app, db, rdb, nil
}
