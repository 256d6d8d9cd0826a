// Package worker applies user events from the broker to the search mirror
// and sends the matching notification e-mails.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/pkg/mailer"
	"github.com/oksasatya/go-user-admin/pkg/mailer/templates"
)

// ErrMalformed marks an event that can never be processed.
var ErrMalformed = errors.New("malformed user event")

type Indexer interface {
	Put(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, id int64) error
}

type JobSender interface {
	SendJob(ctx context.Context, job mailer.EmailJob) error
}

type Processor struct {
	Index   Indexer
	Mail    JobSender // nil disables e-mail
	AppName string
	Logger  *logrus.Logger
}

var eventTemplates = map[entity.UserEventType]string{
	entity.UserCreated: templates.UserCreated,
	entity.UserUpdated: templates.UserUpdated,
	entity.UserDeleted: templates.UserDeleted,
}

// Handle applies one event. Errors wrapping ErrMalformed must not be retried.
func (p *Processor) Handle(ctx context.Context, body []byte) error {
	var ev entity.UserEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	tpl, ok := eventTemplates[ev.Type]
	if !ok || ev.UserID <= 0 {
		return fmt.Errorf("%w: type %q user %d", ErrMalformed, ev.Type, ev.UserID)
	}

	u := &entity.User{ID: ev.UserID, Name: ev.Name, Email: ev.Email, UpdatedAt: ev.OccurredAt}
	var err error
	if ev.Type == entity.UserDeleted {
		err = p.Index.Remove(ctx, ev.UserID)
	} else {
		err = p.Index.Put(ctx, u)
	}
	if err != nil {
		return fmt.Errorf("search mirror: %w", err)
	}

	if p.Mail == nil || ev.Email == "" {
		return nil
	}
	job := mailer.EmailJob{
		To:       ev.Email,
		Template: tpl,
		Data:     templates.Data{AppName: p.AppName, Name: ev.Name, Email: ev.Email, Time: ev.OccurredAt},
	}
	if err := p.Mail.SendJob(ctx, job); err != nil {
		return fmt.Errorf("send %s mail: %w", tpl, err)
	}
	return nil
}

// Run consumes deliveries until ctx is done or the channel closes.
// Malformed events are dropped; other failures are requeued once.
func (p *Processor) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			p.dispatch(ctx, d)
		}
	}
}

func (p *Processor) dispatch(ctx context.Context, d amqp.Delivery) {
	err := p.Handle(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}
	entry := p.Logger.WithError(err).WithField("delivery_tag", d.DeliveryTag)
	if errors.Is(err, ErrMalformed) {
		entry.Warn("dropping malformed event")
		_ = d.Nack(false, false)
		return
	}
	requeue := !d.Redelivered
	entry.WithField("requeue", requeue).Error("event processing failed")
	_ = d.Nack(false, requeue)
}
