package notification

import (
	"context"
	"log/slog"
)

// Sink delivers a notification to one recipient. Delivery is
// fire-and-forget: implementations log failures and never return them to
// the flow that triggered the notification.
type Sink interface {
	Notify(ctx context.Context, recipientID, subject, body string)
}

// LogSink is the no-transport fallback used when web push is not
// configured; it records what would have been sent.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, recipientID, subject, body string) {
	slog.InfoContext(ctx, "notification (log only)", "recipient_id", recipientID, "subject", subject, "body", body)
}
