// Command notifier consumes user.registered events from RabbitMQ and sends
// a welcome mail to every new user.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/movie-review/internal/config"
	"github.com/iliyamo/movie-review/internal/logger"
	"github.com/iliyamo/movie-review/internal/queue"
)

func main() {
	log := logger.NewLogger("notifier")

	nc, err := config.LoadNotifier()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{
		URL:    nc.RabbitMQURL,
		Queue:  nc.Queue,
		From:   nc.FromAddress,
		Mailer: queue.NewSMTPMailer(nc.SMTPHost, nc.SMTPPort, nc.SMTPUser, nc.SMTPPass),
		Log:    log,
	}
	log.Info().Str("queue", nc.Queue).Str("smtp", nc.SMTPHost+":"+nc.SMTPPort).Msg("notifier started")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("consumer stopped")
	}
	log.Info().Msg("notifier stopped")
}
