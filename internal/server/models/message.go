package models

import "time"

// Message is a directed communication between two users. FromUsername,
// ToUsername, and Body are immutable after creation; ReadAt is nil until the
// recipient marks the message read, and is set exactly once.
type Message struct {
	ID           string     `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

// Read reports whether the recipient has marked the message read.
func (m *Message) Read() bool {
	return m.ReadAt != nil
}

// MessageWithProfile is a message joined with the counterparty's public
// profile, as returned by the inbox/outbox listings.
type MessageWithProfile struct {
	Message
	FromUser *PublicProfile `json:"from_user,omitempty"`
	ToUser   *PublicProfile `json:"to_user,omitempty"`
}
