package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"mastery/internal/api/v1/handler"
	"mastery/internal/config"
	"mastery/internal/keystore"
	"mastery/internal/media"
	"mastery/internal/middleware"
	"mastery/internal/pubsub"
	"mastery/internal/repository"
	"mastery/internal/service"
	"mastery/internal/signedurl"

	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// Open DB connection (connection pooling)
	dsn := cfg.DBConnectionString
	// In a development environment, ensure SSL is disabled for local testing.
	// In production, the connection string should carry its own SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}
	// Behind a transaction pooler like pgbouncer, use the simple query
	// protocol to avoid issues with server-side prepared statements.
	if cfg.Environment != "development" && !strings.Contains(dsn, "prefer_simple_protocol") {
		separator := "&"
		if !strings.Contains(dsn, "?") {
			separator = "?"
		}
		dsn += separator + "prefer_simple_protocol=true"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// Object storage client and store
	s3Client, err := media.NewClient(context.Background(), cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create S3 client")
		return nil, nil, err
	}
	mediaStore := media.NewStore(s3Client, cfg.S3Bucket, logger)

	// Durable per-asset key store
	keys, err := keystore.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis keystore")
		return nil, nil, err
	}

	// Pub/Sub publisher for media lifecycle events
	publisher, err := pubsub.NewPublisher(context.Background(), cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
		return nil, nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	// Signed-URL engine backed by the provider's authoritative versions
	engine := signedurl.NewEngine(mediaStore, cfg.MediaBaseURL, cfg.URLSigningSecret, cfg.EncryptURLs, logger)

	// Repositories, services, handlers
	userRepo := repository.NewUserRepo(db)
	courseRepo := repository.NewCourseRepo(db, logger)
	registryRepo := repository.NewRegistryRepo(db, logger)
	progressRepo := repository.NewProgressRepo(db)

	authSvc := service.NewAuthService(userRepo, cfg, logger)
	userSvc := service.NewUserService(userRepo, logger)
	courseSvc := service.NewCourseService(courseRepo, registryRepo, mediaStore, keys, logger)
	contentSvc := service.NewContentService(courseRepo, registryRepo, mediaStore, keys, publisher, cfg, logger)
	playbackSvc := service.NewPlaybackService(registryRepo, engine, keys, cfg, logger)
	progressSvc := service.NewProgressService(progressRepo, registryRepo, logger)

	authHandler := handler.NewAuthHandler(authSvc, playbackSvc, validate, cfg)
	userHandler := handler.NewUserHandler(userSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, playbackSvc, validate)
	contentHandler := handler.NewContentHandler(contentSvc, validate)
	progressHandler := handler.NewProgressHandler(progressSvc, validate)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTAccessSecret)

	// ServeMux router with API v1 under /v1
	mux := http.NewServeMux()
	apiV1Mux := http.NewServeMux()
	authHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	courseHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	contentHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	progressHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), db, nil
}
