package conversation

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/whatsapp-ai-concierge/internal/assistant"
	"github.com/wolfman30/whatsapp-ai-concierge/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-ai-concierge/pkg/logging"
)

var serviceTracer = otel.Tracer("concierge.internal.conversation")

// replyProducer generates an assistant reply for one user prompt.
type replyProducer interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

// ReplyMessenger delivers a finished reply back to the end user.
type ReplyMessenger interface {
	SendReply(ctx context.Context, to, body string) error
}

// Service runs the reply pipeline for one inbound message: ask the
// orchestrator, absorb its failure taxonomy into the fallback text, apply
// the reply guard, and hand the result to the messenger. Backend failures
// never propagate past this boundary; only delivery failures do.
type Service struct {
	producer  replyProducer
	guard     *ReplyGuard
	messenger ReplyMessenger
	logger    *logging.Logger
	metrics   *metrics.RelayMetrics
}

// NewService creates a conversation Service.
func NewService(producer replyProducer, guard *ReplyGuard, messenger ReplyMessenger, logger *logging.Logger, m *metrics.RelayMetrics) *Service {
	if producer == nil {
		panic("conversation: reply producer cannot be nil")
	}
	if guard == nil {
		panic("conversation: reply guard cannot be nil")
	}
	if messenger == nil {
		panic("conversation: messenger cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		producer:  producer,
		guard:     guard,
		messenger: messenger,
		logger:    logger,
		metrics:   m,
	}
}

// Respond generates and delivers the reply for one inbound text message.
func (s *Service) Respond(ctx context.Context, sender, text string) error {
	ctx, span := serviceTracer.Start(ctx, "conversation.respond")
	defer span.End()
	span.SetAttributes(attribute.String("concierge.sender", sender))

	candidate, err := s.producer.Reply(ctx, text)
	s.metrics.ObserveCompletion(completionOutcome(err))
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("assistant reply failed, using fallback", "error", err, "sender", sender)
		candidate = ""
	}

	final := s.guard.Finalize(text, candidate)
	if err := s.messenger.SendReply(ctx, sender, final); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: deliver reply: %w", err)
	}
	return nil
}

func completionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, assistant.ErrRunFailed):
		return "run_failed"
	case errors.Is(err, assistant.ErrTimedOut):
		return "timed_out"
	case errors.Is(err, assistant.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, assistant.ErrBackendUnavailable):
		return "backend_unavailable"
	default:
		return "error"
	}
}
