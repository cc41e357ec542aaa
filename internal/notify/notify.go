// Package notify delivers run results to a chat sink. Implementations
// are interchangeable; the monitor treats delivery failure as
// non-fatal and never retries.
package notify

import "context"

// Notifier sends a pre-formatted message to the configured sink.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Noop is used when delivery credentials are absent. Skipping delivery
// is a silent no-op, not an error.
type Noop struct{}

// Notify discards the message.
func (Noop) Notify(context.Context, string) error {
	return nil
}
