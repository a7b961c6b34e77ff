package whatsappclient

import (
	"errors"
	"strings"
)

// SendTextRequest is one outbound text message.
type SendTextRequest struct {
	To   string
	Body string
}

func (r SendTextRequest) validate() error {
	if strings.TrimSpace(r.To) == "" {
		return errors.New("whatsappclient: recipient required")
	}
	if r.Body == "" {
		return errors.New("whatsappclient: body required")
	}
	return nil
}

// sendTextPayload is the Graph API wire shape for a text message.
type sendTextPayload struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	Body string `json:"body"`
}

// MessageResponse is the Graph API acknowledgement for a send.
type MessageResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// MessageID returns the id of the accepted message, if any.
func (r *MessageResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}
