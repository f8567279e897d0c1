package mailer

import (
	"context"

	"github.com/nmkdev/intern-management/pkg/helpers"
)

// QueueNotifier enqueues notifications on RabbitMQ for the notify worker to
// deliver. Publishing is the whole send: once the job is on the durable
// queue, delivery is the worker's problem.
type QueueNotifier struct {
	Pub *helpers.RabbitPublisher
}

func NewQueueNotifier(pub *helpers.RabbitPublisher) *QueueNotifier {
	return &QueueNotifier{Pub: pub}
}

func (n *QueueNotifier) Send(ctx context.Context, recipientEmail, subject, body string) error {
	return n.Pub.PublishJSON(ctx, NotifyJob{To: recipientEmail, Subject: subject, Body: body})
}

// DirectNotifier sends synchronously through Mailgun, for deployments
// without a broker.
type DirectNotifier struct {
	MG *Mailgun
}

func NewDirectNotifier(mg *Mailgun) *DirectNotifier {
	return &DirectNotifier{MG: mg}
}

func (n *DirectNotifier) Send(ctx context.Context, recipientEmail, subject, body string) error {
	return n.MG.Send(ctx, recipientEmail, subject, body, "")
}

// NopNotifier drops everything. Used when sending is disabled by config.
type NopNotifier struct{}

func (NopNotifier) Send(ctx context.Context, recipientEmail, subject, body string) error {
	return nil
}
