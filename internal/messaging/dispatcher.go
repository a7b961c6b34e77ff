package messaging

import (
	"context"
	"fmt"

	"github.com/wolfman30/whatsapp-ai-concierge/internal/messaging/whatsappclient"
	"github.com/wolfman30/whatsapp-ai-concierge/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-ai-concierge/pkg/logging"
)

const defaultMaxSegmentLength = 4096

// textSender is the channel-send primitive the dispatcher drives.
type textSender interface {
	SendText(ctx context.Context, to, body string) (*whatsappclient.MessageResponse, error)
}

// Dispatcher delivers a reply to a recipient, splitting it into
// size-bounded segments sent strictly in order. A segment failure halts
// the sequence; nothing is retried or resumed.
type Dispatcher struct {
	client           textSender
	maxSegmentLength int
	logger           *logging.Logger
	metrics          *metrics.RelayMetrics
}

// NewDispatcher creates a Dispatcher sending segments of up to maxSegmentLength runes.
func NewDispatcher(client textSender, maxSegmentLength int, logger *logging.Logger, m *metrics.RelayMetrics) *Dispatcher {
	if client == nil {
		panic("messaging: send client cannot be nil")
	}
	if maxSegmentLength <= 0 {
		maxSegmentLength = defaultMaxSegmentLength
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		client:           client,
		maxSegmentLength: maxSegmentLength,
		logger:           logger,
		metrics:          m,
	}
}

// SendReply delivers body to the recipient as ordered segments.
func (d *Dispatcher) SendReply(ctx context.Context, to, body string) error {
	segments := SplitSegments(body, d.maxSegmentLength)
	for i, segment := range segments {
		resp, err := d.client.SendText(ctx, to, segment)
		if err != nil {
			d.metrics.ObserveOutboundSegment("failed")
			d.logger.Error("segment send failed, halting reply",
				"error", err,
				"to", to,
				"segment", i+1,
				"segments", len(segments),
			)
			return fmt.Errorf("messaging: send segment %d/%d: %w", i+1, len(segments), err)
		}
		d.metrics.ObserveOutboundSegment("sent")
		d.logger.Info("segment sent",
			"to", to,
			"segment", i+1,
			"segments", len(segments),
			"message_id", resp.MessageID(),
		)
	}
	return nil
}

// SplitSegments splits body into chunks of at most maxLen runes, preserving
// order. Splits may fall mid-word; that is accepted behavior for this
// channel, not something to paper over.
func SplitSegments(body string, maxLen int) []string {
	if body == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = defaultMaxSegmentLength
	}
	runes := []rune(body)
	segments := make([]string, 0, (len(runes)+maxLen-1)/maxLen)
	for start := 0; start < len(runes); start += maxLen {
		end := start + maxLen
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}
