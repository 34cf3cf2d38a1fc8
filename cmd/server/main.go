// Command server starts the Dutch chat tutor HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ai "github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/ai"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/ai/openrouter"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/ai/tokencount"
	httpserver "github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/httpserver"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/observability"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/adapter/topicstore"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/app"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/config"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/domain"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/service/guard"
	"github.com/biurak/dutch-chat-app-mvp-new-sub000/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so that /metrics
	// exposes HTTP, AI and guard instrumentation.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Topic store: load once at boot, hot-reload on file changes when enabled.
	store := topicstore.New(cfg.TopicsDir)
	if err := store.Load(); err != nil {
		slog.Error("topic load failed", slog.String("dir", cfg.TopicsDir), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("topics loaded", slog.Int("count", store.Count()), slog.String("dir", cfg.TopicsDir))
	if cfg.TopicsWatch {
		go func() {
			if err := store.Watch(ctx); err != nil {
				slog.Error("topic watcher stopped", slog.Any("error", err))
			}
		}()
	}

	// AI client: the real OpenRouter client when a key is configured, the
	// deterministic mock otherwise. Prod refuses to run on the mock.
	var (
		aiClient domain.AIClient
		upstream app.Pinger
	)
	if cfg.OpenRouterAPIKey == "" {
		if cfg.IsProd() {
			slog.Error("OPENROUTER_API_KEY is required in prod")
			os.Exit(1)
		}
		slog.Warn("no OPENROUTER_API_KEY set, using deterministic mock AI client")
		aiClient = ai.NewMockClient()
	} else {
		orc := openrouter.New(cfg)
		aiClient = orc
		upstream = orc
	}

	counter := tokencount.NewCounter()

	// Request guard: one sliding-window limiter per endpoint, one breaker
	// shared by every endpoint that spends upstream quota.
	breaker := guard.NewBreaker(cfg.BreakerFailureThreshold, cfg.BreakerResetTimeout)
	chatGuard := guard.New("chat", guard.NewSlidingWindow(cfg.ChatRateLimit, cfg.RateLimitWindow, cfg.RateLimitClientCap), breaker)
	correctGuard := guard.New("correct", guard.NewSlidingWindow(cfg.CorrectRateLimit, cfg.RateLimitWindow, cfg.RateLimitClientCap), breaker)
	translateGuard := guard.New("translate", guard.NewSlidingWindow(cfg.TranslateRateLimit, cfg.RateLimitWindow, cfg.RateLimitClientCap), breaker)
	vocabLimiter := guard.NewSlidingWindow(cfg.VocabRateLimit, cfg.RateLimitWindow, cfg.RateLimitClientCap)

	// Usecases
	chatSvc := usecase.NewChatService(aiClient, store, counter, cfg.ChatModel, "openrouter", cfg.MaxReplyTokens, cfg.MaxPromptTokens)
	correctSvc := usecase.NewCorrectService(aiClient, cfg.ChatModel)
	translateSvc := usecase.NewTranslateService(aiClient, cfg.ChatModel)
	vocabSvc := usecase.NewVocabService()

	// Readiness checks: topics on disk plus, with a real client, the upstream.
	topicCount, aiCheck := app.BuildReadinessChecks(store, upstream)

	// HTTP server
	srv := httpserver.NewServer(cfg, chatSvc, correctSvc, translateSvc, vocabSvc, store,
		chatGuard, correctGuard, translateGuard, vocabLimiter, topicCount, aiCheck)

	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancelShutdown()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
