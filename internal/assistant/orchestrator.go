package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/whatsapp-ai-concierge/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-ai-concierge/pkg/logging"
)

var tracer = otel.Tracer("concierge.internal.assistant")

const (
	defaultPollInterval    = 3 * time.Second
	defaultMaxPollAttempts = 7
)

// threadAPI is the slice of the OpenAI Assistants surface the orchestrator
// drives. *openai.Client satisfies it.
type threadAPI interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order *string, after *string, before *string, runID *string) (openai.MessagesList, error)
}

// Config controls how the orchestrator behaves.
type Config struct {
	Client          threadAPI
	AssistantID     string
	KnowledgeBaseID string
	PollInterval    time.Duration
	MaxPollAttempts int
	Logger          *logging.Logger
	Metrics         *metrics.RelayMetrics
}

// Orchestrator drives the thread/run protocol against the Assistants
// backend: open a thread, submit the prompt, start a run, poll until a
// terminal status, then extract the newest message text. Polling is
// strictly sequential; the attempt budget is the only cancellation beyond
// the caller's context.
type Orchestrator struct {
	client          threadAPI
	assistantID     string
	knowledgeBaseID string
	pollInterval    time.Duration
	maxPollAttempts int
	logger          *logging.Logger
	metrics         *metrics.RelayMetrics
}

// New creates an Orchestrator with sane defaults.
func New(cfg Config) *Orchestrator {
	if cfg.Client == nil {
		panic("assistant: client cannot be nil")
	}
	if strings.TrimSpace(cfg.AssistantID) == "" {
		panic("assistant: assistant id cannot be empty")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = defaultMaxPollAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Orchestrator{
		client:          cfg.Client,
		assistantID:     cfg.AssistantID,
		knowledgeBaseID: cfg.KnowledgeBaseID,
		pollInterval:    cfg.PollInterval,
		maxPollAttempts: cfg.MaxPollAttempts,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
	}
}

// Reply generates an assistant reply for one user prompt. On failure the
// returned text is empty and the error carries the taxonomy cause.
func (o *Orchestrator) Reply(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "assistant.reply")
	defer span.End()

	thread, err := o.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: create thread: %v", ErrBackendUnavailable, err)
	}
	if thread.ID == "" {
		return "", fmt.Errorf("%w: create thread returned no id", ErrBackendUnavailable)
	}
	span.SetAttributes(attribute.String("concierge.thread_id", thread.ID))

	if _, err := o.client.CreateMessage(ctx, thread.ID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: o.composePrompt(prompt),
	}); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: submit prompt: %v", ErrBackendUnavailable, err)
	}

	run, err := o.client.CreateRun(ctx, thread.ID, openai.RunRequest{
		AssistantID: o.assistantID,
	})
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: start run: %v", ErrBackendUnavailable, err)
	}
	if run.ID == "" {
		return "", fmt.Errorf("%w: start run returned no id", ErrBackendUnavailable)
	}
	span.SetAttributes(attribute.String("concierge.run_id", run.ID))

	status, err := o.pollRun(ctx, thread.ID, run.ID)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("concierge.run_status", string(status)))

	text, err := o.latestMessageText(ctx, thread.ID)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return text, nil
}

// pollRun checks run status on a fixed interval until it reaches a terminal
// status or the attempt budget is spent. One outstanding check at a time.
func (o *Orchestrator) pollRun(ctx context.Context, threadID, runID string) (openai.RunStatus, error) {
	for attempt := 1; attempt <= o.maxPollAttempts; attempt++ {
		if err := o.wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		run, err := o.client.RetrieveRun(ctx, threadID, runID)
		o.metrics.ObserveRunPoll()
		if err != nil {
			// A flaky status check consumes an attempt; the budget
			// bounds the total wait either way.
			o.logger.Warn("run status check failed", "error", err, "run_id", runID, "attempt", attempt)
			continue
		}
		switch run.Status {
		case openai.RunStatusCompleted:
			return run.Status, nil
		case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired:
			return "", fmt.Errorf("%w: status %s after %d checks", ErrRunFailed, run.Status, attempt)
		default:
			o.logger.Debug("run still in progress", "run_id", runID, "status", string(run.Status), "attempt", attempt)
		}
	}
	return "", fmt.Errorf("%w: %d status checks", ErrTimedOut, o.maxPollAttempts)
}

// latestMessageText fetches the newest thread message and extracts its text.
// The content arrives as typed blocks; anything without a usable text block
// is reported as malformed rather than propagated as a panic or raw shape.
func (o *Orchestrator) latestMessageText(ctx context.Context, threadID string) (string, error) {
	limit := 1
	order := "desc"
	list, err := o.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("%w: fetch messages: %v", ErrBackendUnavailable, err)
	}
	if len(list.Messages) == 0 {
		return "", fmt.Errorf("%w: thread has no messages", ErrMalformedResponse)
	}
	for _, block := range list.Messages[0].Content {
		if block.Type != "text" || block.Text == nil {
			continue
		}
		if value := strings.TrimSpace(block.Text.Value); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in latest message", ErrMalformedResponse)
}

func (o *Orchestrator) composePrompt(prompt string) string {
	if o.knowledgeBaseID == "" {
		return prompt
	}
	return fmt.Sprintf("Answer the customer message below using knowledge base %s when relevant.\n\n%s", o.knowledgeBaseID, prompt)
}

// wait blocks for one poll interval or until ctx is done.
func (o *Orchestrator) wait(ctx context.Context) error {
	timer := time.NewTimer(o.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
