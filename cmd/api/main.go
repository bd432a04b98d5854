package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ananta-systems/ai-inbox/cmd/mainconfig"
	"github.com/ananta-systems/ai-inbox/internal/api/router"
	"github.com/ananta-systems/ai-inbox/internal/audit"
	"github.com/ananta-systems/ai-inbox/internal/booking"
	"github.com/ananta-systems/ai-inbox/internal/business"
	"github.com/ananta-systems/ai-inbox/internal/channels/instagram"
	"github.com/ananta-systems/ai-inbox/internal/config"
	"github.com/ananta-systems/ai-inbox/internal/dialogue"
	"github.com/ananta-systems/ai-inbox/internal/http/handlers"
	"github.com/ananta-systems/ai-inbox/internal/oracle"
	"github.com/ananta-systems/ai-inbox/internal/setmore"
	"github.com/ananta-systems/ai-inbox/internal/square"
	"github.com/ananta-systems/ai-inbox/internal/turn"
	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	businesses, err := business.NewSheetsLoader(ctx, cfg.SheetsCredentialsFile, logger.Component("business"))
	if err != nil {
		logger.Error("failed to create sheets loader", "error", err.Error())
		os.Exit(1)
	}

	oracleClient, closeOracle, err := buildOracle(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create oracle client", "error", err.Error())
		os.Exit(1)
	}
	defer closeOracle()

	store := buildDialogueStore(cfg, logger)

	providers := []booking.Provider{
		setmore.NewClient(logger.Component("setmore")),
		square.NewClient(logger.Component("square")),
	}
	bookingRouter := booking.NewRouter(logger.Component("booking"), providers,
		booking.WithCallTimeout(cfg.ProviderTimeout),
	)

	var auditLog *audit.Log
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()
		auditLog = audit.NewLog(pool, logger.Component("audit"))
	}

	engine := turn.NewEngine(oracleClient, store, bookingRouter, logger.Component("turn"),
		turn.WithOracleTimeout(cfg.OracleTimeout),
	)

	dispatcher, err := buildDispatcher(ctx, cfg, engine, logger)
	if err != nil {
		logger.Error("failed to create dispatcher", "error", err.Error())
		os.Exit(1)
	}

	processHandler := handlers.NewProcessMessageHandler(
		businesses,
		dispatcher,
		instagram.NewClient(),
		auditLog,
		logger.Component("handlers"),
	)
	adminHandler := handlers.NewAdminConversationsHandler(store, logger.Component("handlers"))

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(&router.Config{
			Logger:             logger,
			ProcessMessage:     processHandler,
			AdminConversations: adminHandler,
			InternalAPIKey:     cfg.InternalAPIKey,
			AdminAuthSecret:    cfg.AdminJWTSecret,
			MetricsHandler:     promhttp.Handler(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err.Error())
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatcher shutdown failed", "error", err.Error())
	}
}

// buildOracle wires Bedrock as the primary decision model with an optional
// Gemini fallback.
func buildOracle(ctx context.Context, cfg *config.Config, logger *logging.Logger) (oracle.Client, func(), error) {
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	primary := oracle.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)

	closeFn := func() {}
	var fallback oracle.Client
	if cfg.GeminiAPIKey != "" {
		gemini, err := oracle.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, nil, err
		}
		fallback = gemini
		closeFn = func() { _ = gemini.Close() }
	}

	return oracle.NewFallbackClient(primary, fallback, logger.Component("oracle")), closeFn, nil
}

func buildDialogueStore(cfg *config.Config, logger *logging.Logger) dialogue.Store {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, dialogue history is in-memory only")
		return dialogue.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return dialogue.NewRedisStore(client)
}

func buildDispatcher(ctx context.Context, cfg *config.Config, engine *turn.Engine, logger *logging.Logger) (*turn.Dispatcher, error) {
	opts := []turn.DispatcherOption{turn.WithWorkerCount(cfg.WorkerCount)}

	if cfg.UseMemoryQueue {
		return turn.NewDispatcher(engine, turn.NewMemoryQueue(256), logger.Component("dispatcher"), opts...), nil
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	queue := turn.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.TurnQueueURL)
	return turn.NewDispatcher(engine, queue, logger.Component("dispatcher"), opts...), nil
}
