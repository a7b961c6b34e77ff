package conversation

import "strings"

// DefaultClarifyingMessage replaces replies that merely echo the user.
const DefaultClarifyingMessage = "I understand your message — how can I help specifically?"

// ReplyGuard applies the outbound reply policy: a blank candidate becomes
// the fallback text, an echo of the user's own words becomes a clarifying
// prompt, anything else passes through untouched.
type ReplyGuard struct {
	fallback string
	clarify  string
}

// NewReplyGuard creates a ReplyGuard with the configured fallback text.
func NewReplyGuard(fallback string) *ReplyGuard {
	if strings.TrimSpace(fallback) == "" {
		panic("conversation: fallback message cannot be empty")
	}
	return &ReplyGuard{
		fallback: fallback,
		clarify:  DefaultClarifyingMessage,
	}
}

// Finalize returns the text that should actually be sent for candidate.
// The blank check runs before the echo check: echo detection is only
// meaningful once a real candidate exists.
func (g *ReplyGuard) Finalize(original, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return g.fallback
	}
	if strings.EqualFold(trimmed, strings.TrimSpace(original)) {
		return g.clarify
	}
	return candidate
}
