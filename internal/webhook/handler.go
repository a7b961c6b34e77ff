package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/whatsapp-ai-concierge/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-ai-concierge/pkg/logging"
)

var handlerTracer = otel.Tracer("concierge.internal.webhook")

// responder runs the reply pipeline for one inbound message.
type responder interface {
	Respond(ctx context.Context, sender, text string) error
}

// processedTracker gates duplicate deliveries.
type processedTracker interface {
	AlreadyProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string) (bool, error)
}

// Handler handles WhatsApp webhook verification and delivery requests.
type Handler struct {
	verifyToken string
	processed   processedTracker
	responder   responder
	logger      *logging.Logger
	metrics     *metrics.RelayMetrics
}

// Config holds handler collaborators.
type Config struct {
	VerifyToken string
	Processed   processedTracker
	Responder   responder
	Logger      *logging.Logger
	Metrics     *metrics.RelayMetrics
}

// NewHandler creates a webhook Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Processed == nil {
		panic("webhook: processed tracker cannot be nil")
	}
	if cfg.Responder == nil {
		panic("webhook: responder cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		verifyToken: cfg.VerifyToken,
		processed:   cfg.Processed,
		responder:   cfg.Responder,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Verify handles GET /webhook, the platform's subscription handshake.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		h.logger.Warn("webhook verification rejected", "mode", mode)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	h.logger.Info("webhook verified")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// Receive handles POST /webhook deliveries. Only an unparseable top-level
// shape is reported back as a client error; once the payload is parseable
// the response is always success so the platform never retry-storms an
// event whose downstream handling failed.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx, span := handlerTracer.Start(r.Context(), "webhook.receive")
	defer span.End()
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.metrics.ObserveInbound("invalid")
		writeStatus(w, http.StatusBadRequest, "error", "Invalid payload")
		return
	}
	env, err := ParseEnvelope(body)
	if err != nil {
		h.logger.Warn("invalid webhook payload", "error", err)
		h.metrics.ObserveInbound("invalid")
		span.RecordError(err)
		writeStatus(w, http.StatusBadRequest, "error", "Invalid payload")
		return
	}
	events, err := Normalize(env, h.logger)
	if err != nil {
		h.logger.Warn("malformed webhook message", "error", err)
		h.metrics.ObserveInbound("invalid")
		span.RecordError(err)
		writeStatus(w, http.StatusBadRequest, "error", "Invalid payload")
		return
	}
	span.SetAttributes(attribute.Int("concierge.inbound_events", len(events)))

	if len(events) == 0 {
		h.metrics.ObserveInbound("ignored")
	}
	for _, evt := range events {
		h.process(ctx, evt)
	}

	h.metrics.ObserveWebhookLatency(time.Since(start).Seconds())
	writeStatus(w, http.StatusOK, "success", "")
}

// process runs one event through the dedup gate and the reply pipeline.
// The event is marked processed only after its reply was dispatched, so a
// crash mid-flight re-delivers rather than silently drops.
func (h *Handler) process(ctx context.Context, evt InboundEvent) {
	duplicate, err := h.processed.AlreadyProcessed(ctx, evt.MessageID)
	if err != nil {
		h.logger.Error("processed lookup failed", "error", err, "message_id", evt.MessageID)
		h.metrics.ObserveInbound("failed")
		return
	}
	if duplicate {
		h.logger.Info("dropping duplicate delivery", "message_id", evt.MessageID)
		h.metrics.ObserveInbound("duplicate")
		return
	}

	h.logger.Info("inbound message", "message_id", evt.MessageID, "sender", evt.Sender)
	if err := h.responder.Respond(ctx, evt.Sender, evt.Text); err != nil {
		// Reply not dispatched, so the id stays unmarked and a later
		// redelivery gets another chance.
		h.logger.Error("reply delivery failed", "error", err, "message_id", evt.MessageID)
		h.metrics.ObserveInbound("failed")
		return
	}
	if _, err := h.processed.MarkProcessed(ctx, evt.MessageID); err != nil {
		h.logger.Error("failed to mark message processed", "error", err, "message_id", evt.MessageID)
	}
	h.metrics.ObserveInbound("processed")
}

// HealthCheck returns a simple health check response.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeStatus(w http.ResponseWriter, code int, status, message string) {
	resp := map[string]string{"status": status}
	if message != "" {
		resp["message"] = message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
