package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/sentimentpulse-backend/internal/config"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/database"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/handlers"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/repository"
	"github.com/AnshRaj112/sentimentpulse-backend/internal/services"
)

// app holds the wired services and the shutdown hooks of every backend that
// was connected.
type app struct {
	store    repository.Store
	redis    *redis.Client
	users    *services.UserService
	forms    *services.FormRegistry
	pipeline *services.Pipeline
	importer *services.Importer
	summary  *services.Aggregator
	feed     *services.ReviewFeed
	archive  *services.ImportArchive

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// openStore connects the relational store selected by STORE_DRIVER.
func (a *app) openStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn().Msg("⚠️ Using in-memory store, data is lost on restart")
		a.store = repository.NewMemory()
		return nil
	case "postgres", "":
		log.Info().Msg("Connecting to PostgreSQL...")
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = database.DisconnectPostgres() })
		if err := database.InitPostgresTables(ctx, database.PostgresDB); err != nil {
			return fmt.Errorf("init postgres tables: %w", err)
		}
		a.store = repository.NewPostgres(database.PostgresDB)
		return nil
	}
	return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func (a *app) openRedis(cfg *config.Config) error {
	if cfg.RedisURI == "" {
		log.Warn().Msg("⚠️ REDIS_URI not set: sessions, classifier cache and live feed stay in-process")
		return nil
	}
	log.Info().Msg("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = database.DisconnectRedis() })
	a.redis = database.RedisClient
	return nil
}

func (a *app) classifier(ctx context.Context, cfg *config.Config) (services.Classifier, error) {
	var c services.Classifier
	switch cfg.Classifier {
	case "gemini":
		g, err := services.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ClassifierTimeout)
		if err != nil {
			return nil, fmt.Errorf("init gemini classifier: %w", err)
		}
		log.Info().Msg("✅ Gemini sentiment classifier initialized")
		c = g
	case "lexicon", "":
		c = services.NewLexiconClassifier()
	default:
		return nil, fmt.Errorf("unknown CLASSIFIER %q", cfg.Classifier)
	}

	if a.redis != nil {
		c = services.NewCachedClassifier(c, a.redis, cfg.ClassifierCacheTTL)
	}
	return c, nil
}

// openArchive connects MongoDB and, when configured, Cloudinary for the
// import history. Both are optional; failures only disable the feature.
func (a *app) openArchive(ctx context.Context, cfg *config.Config) {
	if cfg.MongoURI == "" {
		log.Info().Msg("MONGODB_URI not set, import history disabled")
		return
	}
	log.Info().Msg("Connecting to MongoDB...")
	if err := database.ConnectMongo(cfg.MongoURI); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to connect to MongoDB, import history disabled")
		return
	}
	a.closers = append(a.closers, func() { _ = database.DisconnectMongo() })

	var uploader services.RawUploader
	if cfg.CloudinaryEnabled() {
		svc, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Failed to initialize Cloudinary, import files will not be kept")
		} else {
			log.Info().Msg("✅ Cloudinary service initialized")
			uploader = svc
		}
	}

	a.archive = services.NewImportArchive(database.MongoDB, uploader)
	if err := a.archive.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️ failed to ensure MongoDB import indexes")
	} else {
		log.Info().Msg("✅ MongoDB import indexes ensured")
	}
}

// newApp wires every service. full=false skips the optional backends that
// only the HTTP server needs.
func newApp(ctx context.Context, cfg *config.Config, full bool) (*app, error) {
	a := &app{}
	if err := a.openStore(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}

	var sessions services.Sessions = services.NewMemorySessions(cfg.SessionTTL)
	if full {
		if err := a.openRedis(cfg); err != nil {
			a.Close()
			return nil, err
		}
		if a.redis != nil {
			sessions = services.NewRedisSessions(a.redis, cfg.SessionTTL)
		}
	}
	a.users = services.NewUserService(a.store, sessions)
	if !full {
		return a, nil
	}

	classifier, err := a.classifier(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	if a.redis != nil {
		a.feed = services.NewReviewFeed(a.redis)
	} else {
		a.feed = services.NewReviewFeed(nil)
	}
	a.forms = services.NewFormRegistry(a.store)
	a.pipeline = services.NewPipeline(a.store, a.forms, classifier).WithPublisher(a.feed)
	a.importer = services.NewImporter(a.pipeline, services.ImportOptions{
		Concurrency: cfg.ImportConcurrency,
		MaxRows:     cfg.ImportMaxRows,
		MaxBytes:    cfg.ImportMaxBytes,
	})
	a.summary = services.NewAggregator(a.store, a.forms)

	a.openArchive(ctx, cfg)
	if a.archive != nil {
		a.importer.WithArchive(a.archive)
	}
	return a, nil
}

func (a *app) handlers(cfg *config.Config) *handlers.Handler {
	deps := handlers.Deps{
		Users:          a.users,
		Forms:          a.forms,
		Pipeline:       a.pipeline,
		Importer:       a.importer,
		Summary:        a.summary,
		Feed:           a.feed,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if a.archive != nil {
		deps.Imports = a.archive
	}
	return handlers.New(deps)
}
