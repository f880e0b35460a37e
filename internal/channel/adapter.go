package channel

import (
	"context"

	"github.com/lexhub/deadline-api/internal/model"
)

// Message is the channel-agnostic payload handed to an adapter. The
// Recipient field is channel-specific: an email address, a phone
// number, or a push device token.
type Message struct {
	Recipient string
	Title     string
	Body      string
	Metadata  map[string]string
}

// Adapter abstracts one concrete delivery mechanism. Implementations
// are constructed once at startup and shared by reference across
// dispatch workers; Send must be safe for concurrent use. The in-app
// channel has no adapter: marking the record sent is the delivery.
type Adapter interface {
	Name() model.NotificationChannel
	Send(ctx context.Context, msg Message) error
}
