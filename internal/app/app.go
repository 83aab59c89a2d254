package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/velo/server/internal/module/auth"
	"github.com/velo/server/internal/module/billing"
	"github.com/velo/server/internal/module/edit"
	"github.com/velo/server/internal/module/quota"
	"github.com/velo/server/internal/module/template"
	"github.com/velo/server/internal/module/user"
	sharedcache "github.com/velo/server/internal/shared/cache"
	"github.com/velo/server/internal/shared/config"
	"github.com/velo/server/internal/shared/database"
	"github.com/velo/server/internal/shared/logger"
	"github.com/velo/server/internal/shared/metrics"
	"github.com/velo/server/internal/shared/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires the modules together and owns their lifecycle.
type App struct {
	config  *config.Config
	db      *gorm.DB
	redis   redis.UniversalClient
	router  *gin.Engine
	logger  *zap.Logger
	metrics *metrics.Metrics

	jwtManager *auth.JWTManager

	// Handlers
	userHandler     *user.Handler
	editHandler     *edit.Handler
	billingHandler  *billing.Handler
	templateHandler *template.Handler
	webhookHandler  *billing.WebhookHandler

	// Background components
	editRecorder *edit.Recorder
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{
		config:  cfg,
		logger:  log,
		metrics: metrics.New("velo"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	// Redis is optional: rate limiting and idempotency degrade to
	// pass-through without it.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Warn("redis connection failed, continuing without it", zap.Error(err))
		} else {
			app.redis = redisClient
		}
	}

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// initModules builds all module services and handlers.
func (a *App) initModules() error {
	a.jwtManager = auth.NewJWTManager(&auth.JWTConfig{
		Secret:             a.config.Auth.JWTSecret,
		AccessTokenExpiry:  a.config.Auth.AccessTokenExpiry,
		RefreshTokenExpiry: a.config.Auth.RefreshTokenExpiry,
		Issuer:             "velo",
	})

	// User module
	userRepo := user.NewRepository(a.db)
	tokenRepo := auth.NewRefreshTokenRepository(a.db)

	var oauthProvider user.OAuthProvider
	if a.config.Auth.GoogleClientID != "" {
		oauthProvider = auth.NewGoogleProvider(&auth.OAuthConfig{
			ClientID:     a.config.Auth.GoogleClientID,
			ClientSecret: a.config.Auth.GoogleClientSecret,
			RedirectURL:  a.config.Auth.GoogleRedirectURL,
		})
	}

	userService := user.NewService(userRepo, tokenRepo, a.jwtManager, oauthProvider, a.logger)
	a.userHandler = user.NewHandler(userService)

	// Billing module
	billingRepo := billing.NewRepository(a.db)
	a.billingHandler = billing.NewHandler(billingRepo)
	a.webhookHandler = billing.NewWebhookHandler(
		billingRepo,
		userService,
		a.config.Billing.StripeWebhookSecret,
		a.logger,
	)

	// Quota ledger
	ledger := quota.NewLedger(a.db)

	// Edit module
	gateway := edit.NewHTTPGateway(&a.config.Gateway, a.metrics, a.logger)

	store, err := edit.NewS3ResultStore(&a.config.Storage)
	if err != nil {
		return fmt.Errorf("init result store: %w", err)
	}

	editRepo := edit.NewRepository(a.db)
	a.editRecorder = edit.NewRecorder(editRepo, a.logger, 1000)

	editService := edit.NewService(userRepo, ledger, gateway, store, a.editRecorder, a.metrics, a.logger)
	a.editHandler = edit.NewHandler(editService)

	// Template module
	a.templateHandler = template.NewHandler(template.NewRepository(a.db))

	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	return r
}

// registerRoutes registers routes for all modules.
func (a *App) registerRoutes() {
	validator := &jwtValidator{jwt: a.jwtManager}

	v1 := a.router.Group("/api/v1")

	public := v1.Group("")

	protected := v1.Group("")
	protected.Use(middleware.RequireAuth(validator))

	// Webhooks verify their own signatures instead of bearer tokens.
	webhooks := a.router.Group("/webhooks")

	a.userHandler.RegisterRoutes(public)
	a.billingHandler.RegisterRoutes(public)
	a.templateHandler.RegisterRoutes(public)
	a.webhookHandler.RegisterRoutes(webhooks)

	a.userHandler.RegisterProtectedRoutes(protected)

	// Edits are billed work: rate limited per user and deduplicated
	// by Idempotency-Key so client retries never trigger a second
	// upstream call.
	edits := protected.Group("")
	edits.Use(middleware.RateLimit(a.redis, middleware.RateLimitConfig{
		Limit:  30,
		Window: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return middleware.GetUserID(c).String()
		},
	}))
	edits.Use(middleware.Idempotency(a.redis, middleware.IdempotencyConfig{}))
	a.editHandler.RegisterRoutes(edits)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop stops the application and releases resources.
func (a *App) Stop() {
	if a.editRecorder != nil {
		a.editRecorder.Close()
	}

	if a.logger != nil {
		_ = a.logger.Sync()
	}

	if a.redis != nil {
		_ = sharedcache.Close(a.redis)
	}

	if a.db != nil {
		_ = database.Close(a.db)
	}
}

// jwtValidator adapts the JWT manager to the middleware's validator.
type jwtValidator struct {
	jwt *auth.JWTManager
}

func (v *jwtValidator) Validate(token string) (*middleware.TokenClaims, error) {
	claims, err := v.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{UserID: claims.UserID, Email: claims.Email}, nil
}
