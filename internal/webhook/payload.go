package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wolfman30/whatsapp-ai-concierge/pkg/logging"
)

// ErrInvalidPayload marks a webhook body the platform should not redeliver:
// either the top-level shape is missing or a message inside a well-shaped
// envelope lacks required fields.
var ErrInvalidPayload = errors.New("webhook: invalid payload")

// Envelope mirrors the WhatsApp Cloud API webhook body.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue may describe inbound messages or status/delivery receipts;
// only the former produce events.
type ChangeValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Messages         []Message         `json:"messages"`
	Statuses         []json.RawMessage `json:"statuses"`
}

type Message struct {
	ID        string       `json:"id"`
	From      string       `json:"from"`
	Type      string       `json:"type"`
	Timestamp string       `json:"timestamp"`
	Text      *MessageText `json:"text"`
}

type MessageText struct {
	Body string `json:"body"`
}

// InboundEvent is one normalized inbound text message, ready for the
// reply pipeline.
type InboundEvent struct {
	Sender    string
	MessageID string
	Text      string
}

// ParseEnvelope decodes a webhook body. A body that is not JSON or lacks
// the top-level entry collection is an invalid payload.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if env.Entry == nil {
		return nil, fmt.Errorf("%w: missing entry collection", ErrInvalidPayload)
	}
	return &env, nil
}

// Normalize walks every change node and yields zero or one InboundEvent
// per node. Status-only and non-text changes are dropped with an info log;
// a message missing its id, sender, or text body fails the whole envelope.
func Normalize(env *Envelope, logger *logging.Logger) ([]InboundEvent, error) {
	if logger == nil {
		logger = logging.Default()
	}
	var events []InboundEvent
	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) == 0 {
				logger.Info("skipping change without messages", "entry_id", entry.ID, "field", change.Field)
				continue
			}
			msg := change.Value.Messages[0]
			if msg.Type != "text" {
				logger.Info("skipping non-text message", "entry_id", entry.ID, "type", msg.Type, "message_id", msg.ID)
				continue
			}
			if msg.ID == "" || msg.From == "" || msg.Text == nil {
				return nil, fmt.Errorf("%w: text message missing required fields", ErrInvalidPayload)
			}
			events = append(events, InboundEvent{
				Sender:    msg.From,
				MessageID: msg.ID,
				Text:      msg.Text.Body,
			})
		}
	}
	return events, nil
}
