// Package service holds the side effects triggered by the handlers that
// leave the request: today the welcome notification sent on registration.
// Errors are logged and returned so callers can decide to carry on without
// interrupting the main request flow.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/movie-review/internal/config"
	"github.com/iliyamo/movie-review/internal/logger"
	"github.com/iliyamo/movie-review/internal/queue"
)

//go:generate mockgen -source=notifier.go -destination=../mock/notifier_mock.go -package=mock

// Notifier announces domain events.
type Notifier interface {
	NotifyUserRegistered(ctx context.Context, ev queue.UserRegisteredEvent) error
}

// NewNotifier builds the notifier selected by cfg.Driver.
func NewNotifier(cfg config.NotifierConfig, log *logger.Logger) (Notifier, error) {
	switch cfg.Driver {
	case "amqp":
		return &AMQPNotifier{URL: cfg.RabbitMQURL, Queue: cfg.Queue, Log: log}, nil
	case "log":
		return &LogNotifier{Log: log}, nil
	default:
		return nil, fmt.Errorf("unsupported notifier driver %q", cfg.Driver)
	}
}

// AMQPNotifier publishes events to a durable RabbitMQ queue consumed by
// cmd/notifier.  A connection is opened per publish; registrations are rare.
type AMQPNotifier struct {
	URL   string
	Queue string
	Log   *logger.Logger
}

// NotifyUserRegistered publishes ev to the queue.  The function attempts to
// be robust and to never panic; any error is logged and returned.  Messages
// are marked as persistent.
func (n *AMQPNotifier) NotifyUserRegistered(ctx context.Context, ev queue.UserRegisteredEvent) error {
	conn, err := amqp.Dial(n.URL)
	if err != nil {
		n.Log.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		n.Log.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		n.Queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		n.Log.Error().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		n.Queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		n.Log.Error().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}

// LogNotifier writes the event to the log instead of sending it anywhere.
// It is the development default.
type LogNotifier struct {
	Log *logger.Logger
}

func (n *LogNotifier) NotifyUserRegistered(_ context.Context, ev queue.UserRegisteredEvent) error {
	n.Log.Info().
		Uint64("user_id", ev.UserID).
		Str("username", ev.Username).
		Str("email", ev.Email).
		Msg("welcome notification (log driver)")
	return nil
}
