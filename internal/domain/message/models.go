package message

import (
	"context"
	"encoding/json"
	"fmt"
)

// Message is a submitted message as listed by the external API.
type Message struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// UnmarshalJSON accepts the id as a JSON string or number. The id is an
// opaque key, so numbers keep their literal form ("1", not "1.0").
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID   json.RawMessage `json:"id"`
		Text string          `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}

	m.ID = id
	m.Text = raw.Text
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}

	return "", fmt.Errorf("message id must be a string or a number, got %s", raw)
}

// API is the external message collaborator consumed by the page.
type API interface {
	// List returns all messages in display order.
	List(ctx context.Context) ([]Message, error)
	// Submit creates a payment preference for text on the given marketplace
	// and returns the checkout URL the client should be sent to.
	Submit(ctx context.Context, text, marketplaceID string) (string, error)
}
