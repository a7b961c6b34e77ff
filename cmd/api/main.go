package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/wolfman30/whatsapp-ai-concierge/internal/api/router"
	"github.com/wolfman30/whatsapp-ai-concierge/internal/assistant"
	appconfig "github.com/wolfman30/whatsapp-ai-concierge/internal/config"
	"github.com/wolfman30/whatsapp-ai-concierge/internal/conversation"
	"github.com/wolfman30/whatsapp-ai-concierge/internal/dedup"
	"github.com/wolfman30/whatsapp-ai-concierge/internal/messaging"
	"github.com/wolfman30/whatsapp-ai-concierge/internal/messaging/whatsappclient"
	"github.com/wolfman30/whatsapp-ai-concierge/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-ai-concierge/internal/webhook"
	"github.com/wolfman30/whatsapp-ai-concierge/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting whatsapp-ai-concierge",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	relayMetrics := metrics.NewRelayMetrics(prometheus.DefaultRegisterer)

	var tracker dedup.Tracker
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		tracker = dedup.NewRedisTracker(redis.NewClient(opts), cfg.DedupTTL)
		logger.Info("using redis dedup tracker", "addr", cfg.RedisAddr, "ttl", cfg.DedupTTL)
	} else {
		tracker = dedup.NewMemoryTracker(cfg.DedupCapacity)
		logger.Info("using in-memory dedup tracker", "capacity", cfg.DedupCapacity)
	}

	orchestrator := assistant.New(assistant.Config{
		Client:          openai.NewClient(cfg.OpenAIAPIKey),
		AssistantID:     cfg.OpenAIAssistantID,
		KnowledgeBaseID: cfg.AssistantKnowledgeBaseID,
		PollInterval:    cfg.AssistantPollInterval,
		MaxPollAttempts: cfg.AssistantMaxPollAttempts,
		Logger:          logger,
		Metrics:         relayMetrics,
	})

	waClient, err := whatsappclient.New(whatsappclient.Config{
		BaseURL:       cfg.WhatsAppAPIBaseURL,
		AccessToken:   cfg.WhatsAppAccessToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		Logger:        logger.Logger,
	})
	if err != nil {
		logger.Error("failed to build whatsapp client", "error", err)
		os.Exit(1)
	}
	dispatcher := messaging.NewDispatcher(waClient, cfg.MaxSegmentLength, logger, relayMetrics)

	guard := conversation.NewReplyGuard(cfg.FallbackMessage)
	service := conversation.NewService(orchestrator, guard, dispatcher, logger, relayMetrics)

	webhookHandler := webhook.NewHandler(webhook.Config{
		VerifyToken: cfg.WhatsAppVerifyToken,
		Processed:   tracker,
		Responder:   service,
		Logger:      logger,
		Metrics:     relayMetrics,
	})

	r := router.New(&router.Config{
		Logger:         logger,
		WebhookHandler: webhookHandler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
