package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/feedsphere/internal/app/controllers"
	appMigrations "github.com/yigit/feedsphere/internal/app/migrations"
	appRepos "github.com/yigit/feedsphere/internal/app/repositories"
	appRoutes "github.com/yigit/feedsphere/internal/app/routes"
	appServices "github.com/yigit/feedsphere/internal/app/services"
	"github.com/yigit/feedsphere/internal/config"
	"github.com/yigit/feedsphere/internal/db"
	appMiddleware "github.com/yigit/feedsphere/internal/middleware"
	pkgAuth "github.com/yigit/feedsphere/internal/pkg/auth"
	"github.com/yigit/feedsphere/internal/pkg/filestorage"
	"github.com/yigit/feedsphere/internal/pkg/helpers"
	"github.com/yigit/feedsphere/internal/pkg/logger"
	"github.com/yigit/feedsphere/internal/pkg/sentiment"
	"github.com/yigit/feedsphere/internal/pkg/vision"
	"github.com/yigit/feedsphere/internal/pkg/websocket"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	MessageService appServices.MessageService
	CommentService appServices.CommentService
	FeedService    appServices.FeedService
	MarkerService  appServices.MarkerService
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Repos          *appRepos.Repositories
	Database       *db.PostgresDB
	JWTService     *pkgAuth.JWTService
	FileStorage    *filestorage.LocalStorage
	Hub            *websocket.Hub
	Logger         zerolog.Logger
}

// ConfigPath returns the configuration file location, overridable with CONFIG_PATH
func ConfigPath() string {
	return config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrator"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// BuildDependencies initializes application repositories, clients, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Database = database
	deps.Repos = appRepos.NewRepositories(database)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Storage.Path, cfg.UploadsURL())
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}
	retriever := filestorage.NewRetriever(deps.FileStorage, cfg.Storage.ChunkSize, cfg.Storage.MaxUploadBytes)

	scorer := sentiment.NewClient(cfg.Sentiment, logger.Component("sentiment"))
	analyzer := vision.NewClient(cfg.Vision, logger.Component("vision"))

	deps.Hub = websocket.NewHub(logger.Component("livefeed"))
	publisher := websocket.NewPublisher(deps.Hub, logger.Component("livefeed"))

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.MessageService = appServices.NewMessageService(
		deps.Repos.MessageRepository,
		deps.Repos.MarkerRepository,
		retriever,
		deps.FileStorage,
		scorer,
		analyzer,
		publisher,
		logger.Component("messages"),
	)
	deps.CommentService = appServices.NewCommentService(deps.Repos.CommentRepository, scorer, publisher, logger.Component("comments"))
	deps.FeedService = appServices.NewFeedService(deps.Repos.MessageRepository, logger.Component("feed"))
	deps.MarkerService = appServices.NewMarkerService(deps.Repos.MarkerRepository)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Message: appControllers.NewMessageController(
			deps.MessageService,
			deps.FileStorage,
			appControllers.Pages{LoginPage: cfg.Frontend.LoginPage, UserPage: cfg.Frontend.UserPage},
			cfg.Storage.MaxUploadBytes,
			logger.Component("messages"),
		),
		Comment:  appControllers.NewCommentController(deps.CommentService),
		Feed:     appControllers.NewFeedController(deps.FeedService),
		Marker:   appControllers.NewMarkerController(deps.MarkerService),
		LiveFeed: websocket.NewHandler(deps.Hub, logger.Component("livefeed")),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.Metrics(),
	)

	router.Static("/uploads", cfg.Storage.Path)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.Database)

	return router
}
