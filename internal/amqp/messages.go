package amqp

import (
	"encoding/json"
	"time"
)

// SessionSummaryMessage describes what a closed ATM session added to the
// account. It is published once, after the state has been saved.
type SessionSummaryMessage struct {
	SessionID    string    `json:"session_id"`
	BalanceCents int64     `json:"balance_cents"`
	Entries      []string  `json:"entries"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewSessionSummaryMessage creates a summary stamped with the current time.
func NewSessionSummaryMessage(sessionID string, balanceCents int64, entries []string) *SessionSummaryMessage {
	if entries == nil {
		entries = []string{}
	}
	return &SessionSummaryMessage{
		SessionID:    sessionID,
		BalanceCents: balanceCents,
		Entries:      entries,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SessionSummaryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SessionSummaryMessageFromJSON decodes a message published by ToJSON.
func SessionSummaryMessageFromJSON(data []byte) (*SessionSummaryMessage, error) {
	var msg SessionSummaryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
