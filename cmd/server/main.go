package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/skillora/instructor-os/internal/api"
	"github.com/skillora/instructor-os/internal/assistant"
	"github.com/skillora/instructor-os/internal/config"
	"github.com/skillora/instructor-os/internal/database"
	"github.com/skillora/instructor-os/internal/documents"
	"github.com/skillora/instructor-os/internal/localstore"
	"github.com/skillora/instructor-os/internal/logger"
	"github.com/skillora/instructor-os/internal/migrator"
	"github.com/skillora/instructor-os/internal/nats"
	"github.com/skillora/instructor-os/internal/publisher"
	"github.com/skillora/instructor-os/internal/remote"
	"github.com/skillora/instructor-os/internal/repository"
	"github.com/skillora/instructor-os/internal/store"
	"github.com/skillora/instructor-os/internal/verification"
	"github.com/skillora/instructor-os/internal/web"
	"github.com/skillora/instructor-os/migrations"
)

func main() {
	// 1. Load config
	_ = godotenv.Load() // .env is optional
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting instructor verification service")

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Run migrations and connect to database
	mig, err := migrator.NewWithFS(migrations.FS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init migrator")
	}
	if err := mig.Up(ctx, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to database")

	// 5. Connect to NATS
	natsClient, err := nats.New(ctx, cfg.NatsURL)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to nats, events disabled")
	} else {
		defer natsClient.Close()
	}

	var pub store.EventPublisher
	if natsClient != nil {
		pub = publisher.NewNATSPublisher(natsClient.Conn)
	}

	// 6. Initialize repositories
	bookingsRepo := repository.NewBookingsRepository(db.Pool, log)
	submissionsRepo, err := repository.NewSubmissionsRepository(db.GORM, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init submissions archive")
	}

	// 7. Remote verification backend client
	remoteClient := remote.NewHTTPClient(remote.Config{
		BaseURL: cfg.RemoteBaseURL,
		Timeout: time.Duration(cfg.RemoteTimeoutSec) * time.Second,
		RPS:     cfg.RemoteRPS,
		Burst:   cfg.RemoteBurst,
	})

	// 8. WebSocket hub, then the per-user application stores that warn through it
	hub := web.NewHub()
	go hub.Run()

	local := localstore.New(cfg.StorageDir)
	manager := store.NewManager(store.Deps{
		Local:  local,
		Remote: remoteClient,
		Slots:  documents.MustSlotConfig(),
		Blobs: func(userID string) documents.BlobStore {
			return documents.NewDiskBlobStore(cfg.BlobDir, userID)
		},
		Thumb:  documents.NewPreviewGenerator(),
		Events: pub,
		NotifyStorage: func(userID, message string) {
			hub.Broadcast(web.StorageWarningEvent(userID, message))
		},
		Autosave:   store.AutosavePolicy{MinInterval: time.Duration(cfg.AutosaveIntervalMSec) * time.Millisecond},
		WarnKB:     cfg.StorageWarnKB,
		CriticalKB: cfg.StorageCriticalKB,
		Log:        log,
	}, time.Duration(cfg.StorageCheckSec)*time.Second)
	go manager.Run(ctx)

	// 9. Verification status feed
	if natsClient != nil {
		consumer := verification.NewConsumer(natsClient, manager, hub, &log.Logger)
		if err := consumer.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("verification feed unavailable")
		}
	}

	// 10. AI writing assistant
	llmClient := assistant.NewClient(assistant.Config{
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: float32(cfg.LLMTemperature),
		Timeout:     time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})
	assistantSvc := assistant.NewService(llmClient, local, log)

	// 11. REST API server
	apiServer := api.NewServer(&api.Config{
		Port:        cfg.HTTPPort,
		Title:       "Instructor Verification API",
		Description: "Multi-step instructor verification wizard: application state, documents, bookings and the writing assistant",
		Version:     "1.0.0",
	}, &api.Dependencies{
		Stores:      manager,
		Bookings:    bookingsRepo,
		Submissions: submissionsRepo,
		Assistant:   assistantSvc,
		Hub:         hub,
	})

	log.Info().Int("port", cfg.HTTPPort).Msg("starting api server")
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("api server error")
		}
	}()

	// 12. Frontend + websocket server
	webServer := web.NewServer(&web.Config{
		Port:      cfg.WebPort,
		StaticDir: cfg.StorageDir,
	}, hub)
	webServer.SetupSPAFallback()

	log.Info().Int("port", cfg.WebPort).Msg("starting web server")
	go func() {
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("web server stopped")
		}
	}()

	// 13. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := webServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("web server shutdown error")
	}
	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("api server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}
