package domain

import "time"

// InboundMessage is one message as received from a transport channel.
// Immutable once published to the bus.
type InboundMessage struct {
	Channel   string
	ChatID    int64
	SenderID  int64
	MessageID int
	Username  string
	FirstName string
	LastName  string
	Content   string
	Timestamp time.Time
}

// DisplayName returns the best available sender name for attribution.
func (m InboundMessage) DisplayName() string {
	if m.Username != "" {
		return m.Username
	}
	return m.FirstName
}

type OutboundMessage struct {
	Channel string
	ChatID  int64
	Content string
	Format  string // text | markdown
}
