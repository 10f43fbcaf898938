package model

import "encoding/json"

type WebhookText struct {
	Body string `json:"body"`
}

type WebhookMessage struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	ChatID    string          `json:"chat_id"`
	Text      *WebhookText    `json:"text,omitempty"`
	FromMe    bool            `json:"from_me"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	Type      string          `json:"type"`
}

// Body returns the text body, or "" for non-text messages.
func (m WebhookMessage) Body() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}

// WebhookPayload is a gateway delivery carrying either a list of messages or a single one.
type WebhookPayload struct {
	Messages []WebhookMessage `json:"messages"`
	Message  *WebhookMessage  `json:"message"`
}

// All flattens the delivery into one ordered slice: the list first, then the single message.
func (p WebhookPayload) All() []WebhookMessage {
	all := make([]WebhookMessage, 0, len(p.Messages)+1)
	all = append(all, p.Messages...)
	if p.Message != nil {
		all = append(all, *p.Message)
	}
	return all
}

type BatchResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
