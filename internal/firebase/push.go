package firebase

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// Push implements notifications.Sender with FCM topic messages.
type Push struct {
	msg *messaging.Client
}

// NewPush returns nil when messaging is unavailable.
func NewPush(c *Clients) *Push {
	if c.Messaging == nil {
		return nil
	}
	return &Push{msg: c.Messaging}
}

func (p *Push) SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) (string, error) {
	return p.msg.Send(ctx, &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
}
