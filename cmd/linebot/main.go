// cmd/linebot/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"line-parking-bot/internal/common/agent"
	"line-parking-bot/internal/common/cards"
	"line-parking-bot/internal/common/config"
	"line-parking-bot/internal/common/database"
	apperrors "line-parking-bot/internal/common/errors"
	httpclient "line-parking-bot/internal/common/http"
	"line-parking-bot/internal/common/line"
	"line-parking-bot/internal/common/logger"
	"line-parking-bot/internal/common/observability"
	"line-parking-bot/internal/common/push"
	"line-parking-bot/internal/common/rating"
	"line-parking-bot/internal/common/workerpool"
	"line-parking-bot/internal/webhook"

	answerlocation "line-parking-bot/internal/workers/conversation/answer-location"
	answertext "line-parking-bot/internal/workers/conversation/answer-text"
	ratingleaderboard "line-parking-bot/internal/workers/rating/rating-leaderboard"
	ratingsetup "line-parking-bot/internal/workers/rating/rating-setup"
	ratingsubmit "line-parking-bot/internal/workers/rating/rating-submit"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// connectWithRetry dials and pings until ping succeeds. A client whose ping
// failed is closed before the next attempt, and no client is left open on error.
func connectWithRetry[C io.Closer](dial func() (C, error), ping func(C) error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) (C, error) {
	var (
		client C
		open   bool
	)
	err := retryWithBackoff(func() error {
		if open {
			_ = client.Close()
			open = false
		}
		c, err := dial()
		if err != nil {
			return err
		}
		client, open = c, true
		return ping(c)
	}, maxRetries, initialDelay, log, operationName)
	if err != nil {
		if open {
			_ = client.Close()
		}
		var zero C
		return zero, err
	}
	return client, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting line bot...",
		zap.String("environment", cfg.App.Environment),
		zap.String("ratingBackend", cfg.Rating.Backend),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()
	readiness := map[string]webhook.ReadinessCheck{}

	// --- Shared outbound HTTP client ---
	httpClient := httpclient.NewClient(httpclient.Options{
		ConnectTimeout:        config.GetDuration(cfg.HTTP.ConnectTimeout),
		TLSHandshakeTimeout:   config.GetDuration(cfg.HTTP.TLSHandshakeTimeout),
		ResponseHeaderTimeout: config.GetDuration(cfg.HTTP.ResponseHeaderTimeout),
		MaxIdleConns:          cfg.HTTP.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.HTTP.MaxIdleConnsPerHost,
	})
	defer httpClient.CloseIdle()

	lineClient, err := line.NewClient(line.Config{
		BaseURL:     cfg.Line.APIBaseURL,
		AccessToken: cfg.Line.ChannelAccessToken,
		Timeout:     config.GetDuration(cfg.Line.Timeout),
	}, httpClient.HTTPClient(), log)
	if err != nil {
		zapLog.Fatal("line client setup failed", zap.Error(err))
	}

	agentClient := agent.NewClient(agent.Config{
		BaseURL: cfg.Agent.BaseURL,
		Timeout: config.GetDuration(cfg.Agent.Timeout),
	}, httpClient.HTTPClient(), log)

	// --- Optional Redis: rating cache and webhook dedup ---
	var redisClient *goredis.Client
	if cfg.Database.Redis.Enabled() {
		rc, err := connectWithRetry(func() (*database.RedisClient, error) {
			return database.NewRedis(cfg.Database.Redis)
		}, func(c *database.RedisClient) error {
			return c.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, continuing without cache and dedup", zap.Error(err))
		} else {
			defer rc.Close()
			redisClient = rc.Client
			readiness["redis"] = rc.Ping
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Rating store ---
	var store rating.Store
	switch cfg.Rating.Backend {
	case config.RatingBackendPostgres:
		pg, err := connectWithRetry(func() (*database.PostgresClient, error) {
			return database.NewPostgres(cfg.Database.Postgres)
		}, func(c *database.PostgresClient) error {
			return c.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgStore := rating.NewPostgresStore(pg.DB, log)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("rating schema setup failed", zap.Error(err))
		}
		store = pgStore
		readiness["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL rating store ready")

	default:
		tokens, err := rating.LoadSheetCredentials(ctx, cfg.Rating.Sheet.CredentialsPath)
		if err != nil {
			zapLog.Fatal("sheet credentials failed", zap.Error(err))
		}
		sheetStore, err := rating.NewSheetStore(ctx, rating.SheetConfig{
			BaseURL:       cfg.Rating.Sheet.APIBaseURL,
			SheetKey:      cfg.Rating.Sheet.SheetKey,
			WorksheetName: cfg.Rating.Sheet.WorksheetName,
			Timeout:       config.GetDuration(cfg.Rating.Sheet.Timeout),
		}, tokens, httpClient.HTTPClient(), log)
		if err != nil {
			zapLog.Fatal("sheet client setup failed", zap.Error(err))
		}
		if err := sheetStore.EnsureHeader(ctx); err != nil {
			zapLog.Warn("sheet header check failed", zap.Error(err))
		}
		store = sheetStore
		zapLog.Info("Google Sheets rating store ready")
	}

	ratings := rating.NewService(store, redisClient, config.GetDuration(cfg.Rating.CacheTTL), log)

	// --- Rendering and delivery ---
	renderer := cards.NewRenderer(cards.Config{
		ParkingImageURL: cfg.Cards.ParkingImageURL,
		ToiletImageURL:  cfg.Cards.ToiletImageURL,
	}, ratings, log)
	pusher := push.NewPusher(lineClient, renderer, log)

	// --- Worker pool ---
	pool := workerpool.New(workerpool.Config{
		Workers:   cfg.WorkerPool.Workers,
		QueueSize: cfg.WorkerPool.QueueSize,
		Timeout:   config.GetDuration(cfg.WorkerPool.Timeout),
	}, apperrors.NewErrorHandler(log, pusher, push.ErrorMessage), obs, log)
	pool.Start()
	zapLog.Info("worker pool started", zap.Int("workers", cfg.WorkerPool.Workers))

	// --- Handlers ---
	handlers := webhook.Handlers{
		AnswerText:        answertext.NewHandler(answertext.LoadConfig(), agentClient, pusher, log),
		AnswerLocation:    answerlocation.NewHandler(answerlocation.LoadConfig(), agentClient, pusher, log),
		RatingSetup:       ratingsetup.NewHandler(ratingsetup.LoadConfig(), lineClient, log),
		RatingSubmit:      ratingsubmit.NewHandler(ratingsubmit.LoadConfig(), ratings, lineClient, log),
		RatingLeaderboard: ratingleaderboard.NewHandler(ratingleaderboard.LoadConfig(), ratings, renderer, lineClient, log),
	}

	dispatcher := webhook.NewDispatcher(webhook.DispatcherConfig{
		LoadingSeconds: cfg.Line.LoadingSeconds,
		Location:       agent.LoadLocation(cfg.Session.Timezone),
	}, lineClient, pusher, pool, handlers, log)

	dedup := webhook.NewDeduper(redisClient, config.GetDuration(cfg.Webhook.DedupTTL), log)
	callback := webhook.NewHandler(line.NewVerifier(cfg.Line.ChannelSecret), dedup, dispatcher, log)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := webhook.NewRouter(callback, readiness, log)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("Webhook server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("webhook server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down webhook server", zap.Error(err))
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Worker pool did not drain in time", zap.Error(err))
	}

	zapLog.Info("Line bot stopped gracefully")
}
