package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/orgsuite/taskengine/internal/config"
	"github.com/orgsuite/taskengine/internal/pushsubscription"
)

type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// WebPushSender implements Sink over browser push. Every endpoint the
// recipient has registered gets the message; expired endpoints are
// pruned on the spot.
type WebPushSender struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
}

func NewWebPushSender(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository) *WebPushSender {
	return &WebPushSender{
		vapidEnv: vapidEnv,
		repo:     repo,
	}
}

// Configured reports whether VAPID keys are present.
func (s *WebPushSender) Configured() bool {
	return s.vapidEnv.VAPIDPrivateKey != "" && s.vapidEnv.VAPIDPublicKey != ""
}

func (s *WebPushSender) Notify(ctx context.Context, recipientID, subject, body string) {
	if !s.Configured() {
		slog.WarnContext(ctx, "push notification: VAPID keys not configured, skipping")
		return
	}

	subs, err := s.repo.ListByMember(ctx, recipientID)
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to list subscriptions", "recipient_id", recipientID, "error", err)
		return
	}

	data, err := json.Marshal(payload{Title: subject, Body: body})
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to marshal payload", "error", err)
		return
	}

	for _, sub := range subs {
		s.sendToSubscription(ctx, sub, data)
	}
}

func (s *WebPushSender) sendToSubscription(ctx context.Context, sub *pushsubscription.Subscription, data []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}

	resp, err := webpush.SendNotification(data, wpSub, &webpush.Options{
		VAPIDPublicKey:  s.vapidEnv.VAPIDPublicKey,
		VAPIDPrivateKey: s.vapidEnv.VAPIDPrivateKey,
		Subscriber:      s.vapidEnv.VAPIDContact,
		TTL:             86400,
	})
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to send", "endpoint", sub.Endpoint, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		slog.InfoContext(ctx, "push notification: subscription expired, removing", "endpoint", sub.Endpoint)
		if err := s.repo.Delete(ctx, sub.ID); err != nil {
			slog.ErrorContext(ctx, "push notification: failed to delete expired subscription", "id", sub.ID, "error", err)
		}
		return
	}

	if resp.StatusCode >= 400 {
		slog.WarnContext(ctx, "push notification: unexpected status", "endpoint", sub.Endpoint, "status", resp.StatusCode)
	}
}
