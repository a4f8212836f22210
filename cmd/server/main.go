package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/internal/assessment"
	"github.com/windfall/kidspeech_service/internal/audio"
	"github.com/windfall/kidspeech_service/internal/client"
	"github.com/windfall/kidspeech_service/internal/config"
	"github.com/windfall/kidspeech_service/internal/handler/http"
	"github.com/windfall/kidspeech_service/internal/logger"
	"github.com/windfall/kidspeech_service/internal/observability"
	"github.com/windfall/kidspeech_service/internal/repository"
	"github.com/windfall/kidspeech_service/internal/server"
	"github.com/windfall/kidspeech_service/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("env", cfg.Environment).Msg("Starting kidspeech_service")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creds := assessment.Credentials{
		SubscriptionKey: cfg.AzureSubscriptionKey,
		Region:          cfg.AzureServiceRegion,
	}
	if err := assessment.ValidateCredentials(creds); err != nil {
		log.Warn().Msg("Azure Speech Service credentials not set, evaluations will fail until AZURE_SUBSCRIPTION_KEY and AZURE_SERVICE_REGION are configured")
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	// Speech engine
	var engine assessment.Engine
	switch cfg.SpeechEngine {
	case config.EngineSDK:
		sdkEngine, err := client.NewAzureSpeechSDKEngine(log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Azure Speech SDK engine")
		}
		engine = sdkEngine
	default:
		var opts []client.AzureSpeechOption
		if cfg.AzureSpeechEndpoint != "" {
			opts = append(opts, client.WithEndpoint(cfg.AzureSpeechEndpoint))
		}
		engine = client.NewAzureSpeechClient(log, opts...)
	}
	log.Info().Str("engine", cfg.SpeechEngine).Str("language", cfg.SpeechLanguage).Msg("Speech engine initialized")

	var fallback assessment.WordFallback
	if cfg.WordFallbackMode == config.FallbackStrict {
		fallback = assessment.StrictFallback{}
	} else {
		fallback = assessment.NewJitterFallback()
	}

	invokerOpts := []assessment.InvokerOption{assessment.WithTimeout(cfg.RecognitionTimeout)}
	if metrics != nil {
		invokerOpts = append(invokerOpts, assessment.WithObserver(metrics.ObserveRecognition))
	}
	invoker := assessment.NewInvoker(engine, assessment.NewNormalizer(fallback, log), log, invokerOpts...)

	evalOpts := []service.EvaluationOption{}
	if metrics != nil {
		evalOpts = append(evalOpts, service.WithMetrics(metrics))
	}

	// Attempt history
	var (
		redisClient    *client.RedisClient
		postgresClient *client.PostgresClient
	)
	switch cfg.HistoryBackend {
	case config.BackendMemory:
		evalOpts = append(evalOpts, service.WithAttempts(repository.NewInMemoryAttemptRepository(cfg.HistoryLimit)))
		log.Info().Msg("In-memory attempt history enabled")
	case config.BackendRedis:
		redisClient, err = client.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Redis client")
		}
		evalOpts = append(evalOpts, service.WithAttempts(repository.NewRedisAttemptRepository(redisClient, cfg.HistoryLimit, cfg.HistoryTTL)))
		log.Info().Msg("Redis attempt history enabled")
	case config.BackendPostgres:
		postgresClient, err = client.NewPostgresClient(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Postgres client")
		}
		evalOpts = append(evalOpts, service.WithAttempts(repository.NewPostgresAttemptRepository(postgresClient)))
		log.Info().Msg("Postgres attempt history enabled")
	}

	// Google Cloud credentials shared by GCS and Pub/Sub
	var googleCreds *client.GoogleCredentials
	if cfg.AudioArchiveBackend == config.BackendGCS || cfg.EventsTopic != "" {
		googleCreds, err = client.NewGoogleCredentials(ctx, cfg.GCPSABase64)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load Google Cloud credentials")
		}
	}

	// Audio archive
	var storageClient *client.StorageClient
	switch cfg.AudioArchiveBackend {
	case config.BackendR2:
		cloudflareClient, err := client.NewCloudflareClient(ctx,
			cfg.CloudflareAccessKeyID,
			cfg.CloudflareSecretKey,
			cfg.CloudflareR2Endpoint,
			cfg.CloudflareBucketName,
			cfg.CloudflarePublicURL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Cloudflare client")
		}
		evalOpts = append(evalOpts, service.WithArchive(cloudflareClient))
		log.Info().Msg("Cloudflare R2 audio archive enabled")
	case config.BackendGCS:
		storageClient, err = client.NewStorageClient(ctx, cfg.GCSBucket, googleCreds.Options...)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize GCS client")
		}
		evalOpts = append(evalOpts, service.WithArchive(storageClient))
		log.Info().Msg("GCS audio archive enabled")
	}

	// Evaluation events
	var pubsubClient *client.PubSubClient
	if cfg.EventsTopic != "" {
		pubsubClient, err = client.NewPubSubClient(ctx, googleCreds.Project(cfg.GCPProjectID), cfg.EventsTopic, googleCreds.Options...)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Pub/Sub client, events disabled")
		} else {
			evalOpts = append(evalOpts, service.WithEvents(pubsubClient))
			log.Info().Str("topic", cfg.EventsTopic).Msg("Evaluation events enabled")
		}
	}

	// Practice sentences
	sentences := service.DefaultSentences
	if cfg.PracticeSentencesFile != "" {
		loaded, err := service.LoadSentences(cfg.PracticeSentencesFile)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.PracticeSentencesFile).Msg("Failed to load practice sentences, using defaults")
		} else if len(loaded) > 0 {
			sentences = loaded
		}
	}

	// Initialize services
	evaluationService := service.NewEvaluationService(
		audio.NewResolver(log),
		invoker,
		creds,
		cfg.SpeechLanguage,
		log,
		evalOpts...,
	)
	sentenceService := service.NewSentenceService(sentences)

	// Initialize handlers
	handlers := server.Handlers{
		Health: http.NewHealthHandler(log, evaluationService),
		Evaluate: http.NewEvaluateHandler(log, evaluationService, http.EvaluateOptions{
			MaxUploadBytes:       cfg.MaxUploadBytes,
			DefaultReferenceText: cfg.DefaultReferenceText,
			Development:          cfg.IsDevelopment(),
		}),
		Sentences: http.NewSentenceHandler(sentenceService),
		Attempts:  http.NewAttemptHandler(log, evaluationService, cfg.HistoryLimit),
	}

	// Initialize HTTP server
	httpServer := server.NewHTTPServer(cfg, log, handlers, metrics)

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	log.Info().
		Str("http_addr", cfg.HTTPAddress()).
		Msg("Servers started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down servers...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	closeClients(log, redisClient, postgresClient, storageClient, pubsubClient)

	log.Info().Msg("Server stopped")
}

func closeClients(log zerolog.Logger, redisClient *client.RedisClient, postgresClient *client.PostgresClient, storageClient *client.StorageClient, pubsubClient *client.PubSubClient) {
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	if postgresClient != nil {
		postgresClient.Close()
	}
	if storageClient != nil {
		storageClient.Close()
	}
	if pubsubClient != nil {
		pubsubClient.Close()
	}
}
