package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wolfman30/whatsapp-ai-concierge/internal/messaging/whatsappclient"
)

type fakeSender struct {
	sent    []string
	failAt  int // 1-based segment index to fail on, 0 = never
	callNum int
}

func (f *fakeSender) SendText(_ context.Context, _, body string) (*whatsappclient.MessageResponse, error) {
	f.callNum++
	if f.failAt != 0 && f.callNum == f.failAt {
		return nil, errors.New("provider rejected segment")
	}
	f.sent = append(f.sent, body)
	return &whatsappclient.MessageResponse{}, nil
}

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		maxLen  int
		lengths []int
	}{
		{"empty body", "", 10, nil},
		{"single short segment", "hello", 10, []int{5}},
		{"exact boundary", strings.Repeat("a", 10), 10, []int{10}},
		{"long reply", strings.Repeat("x", 9000), 4096, []int{4096, 4096, 808}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := SplitSegments(tt.body, tt.maxLen)
			if len(segments) != len(tt.lengths) {
				t.Fatalf("expected %d segments, got %d", len(tt.lengths), len(segments))
			}
			for i, want := range tt.lengths {
				if got := len([]rune(segments[i])); got != want {
					t.Errorf("segment %d: expected length %d, got %d", i, want, got)
				}
			}
			if strings.Join(segments, "") != tt.body {
				t.Error("segments do not reassemble into the original body")
			}
		})
	}
}

func TestSplitSegmentsCountsRunes(t *testing.T) {
	body := strings.Repeat("é", 7)
	segments := SplitSegments(body, 3)

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[2] != "é" {
		t.Errorf("expected final segment of one rune, got %q", segments[2])
	}
}

func TestSendReplyOrderedSegments(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, 4096, nil, nil)

	body := strings.Repeat("x", 9000)
	if err := d.SendReply(context.Background(), "15551234567", body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.sent) != 3 {
		t.Fatalf("expected 3 segments sent, got %d", len(sender.sent))
	}
	if len(sender.sent[0]) != 4096 || len(sender.sent[1]) != 4096 || len(sender.sent[2]) != 808 {
		t.Errorf("unexpected segment lengths %d, %d, %d",
			len(sender.sent[0]), len(sender.sent[1]), len(sender.sent[2]))
	}
}

func TestSendReplyFailsFast(t *testing.T) {
	sender := &fakeSender{failAt: 2}
	d := NewDispatcher(sender, 4096, nil, nil)

	body := strings.Repeat("x", 9000)
	err := d.SendReply(context.Background(), "15551234567", body)
	if err == nil {
		t.Fatal("expected error when a segment fails")
	}

	if len(sender.sent) != 1 {
		t.Errorf("expected only the first segment delivered, got %d", len(sender.sent))
	}
	if sender.callNum != 2 {
		t.Errorf("expected sending to halt after the failed segment, got %d calls", sender.callNum)
	}
}

func TestSendReplyEmptyBodyIsNoop(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, 4096, nil, nil)

	if err := d.SendReply(context.Background(), "15551234567", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.callNum != 0 {
		t.Errorf("expected no sends for empty body, got %d", sender.callNum)
	}
}
