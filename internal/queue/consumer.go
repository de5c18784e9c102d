// Package queue contains the background consumer that listens to the
// user.registered queue and sends a welcome mail for every new account.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/movie-review/internal/logger"
)

// Consumer reads UserRegisteredEvent messages and mails each new user.
type Consumer struct {
    URL    string
    Queue  string
    From   string
    Mailer Mailer
    Log    *logger.Logger
}

// Run connects to RabbitMQ, declares the queue (durable), and starts
// consuming messages.  It runs a reconnect loop with exponential backoff
// and only returns when ctx is cancelled.  Processing errors are logged and
// the offending message is rejected so the consumer keeps going.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("notifier: failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn().Err(err).Msg("notifier: consume loop ended; reconnecting")
        // Sleep briefly before reconnect
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(10, 0, false); err != nil {
        c.Log.Warn().Err(err).Msg("notifier: set QoS failed")
    }

    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(ctx, d.Body); err != nil {
                c.Log.Error().Err(err).Msg("notifier: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
    var ev UserRegisteredEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Email == "" {
        return fmt.Errorf("user %d has no email", ev.UserID)
    }
    if err := c.Mailer.Send(ctx, WelcomeMail(c.From, ev)); err != nil {
        return fmt.Errorf("send welcome mail: %w", err)
    }
    c.Log.Info().Uint64("user_id", ev.UserID).Str("username", ev.Username).Msg("notifier: welcome mail sent")
    return nil
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
