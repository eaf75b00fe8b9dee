package notify

import "context"

// Notifier delivers a formatted text message to its destination
type Notifier interface {
	// Send delivers text. A nil error means the destination accepted it.
	Send(ctx context.Context, text string) error
}
