package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Rareminds-eym/skillpassport-sub044/services/provisioning-service/internal/metrics"
)

// Channel is a delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

var ErrChannelUnavailable = errors.New("notification channel not configured")

// Message is a template plus the data it renders.
type Message struct {
	Template Template
	Data     any
}

// Dispatcher hands messages to a delivery channel. Delivery is best-effort.
type Dispatcher interface {
	Send(ctx context.Context, channel Channel, recipient string, msg Message) error
	// Available reports whether channel has a configured sender.
	Available(channel Channel) bool
}

// Sender delivers a rendered message over one channel.
type Sender interface {
	Deliver(ctx context.Context, recipient string, msg Rendered) error
}

type dispatcher struct {
	senders map[Channel]Sender
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// NewDispatcher creates a Dispatcher throttled to ratePerSecond with the given burst.
func NewDispatcher(logger *zerolog.Logger, ratePerSecond float64, burst int, senders map[Channel]Sender) Dispatcher {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst < 1 {
		burst = 1
	}

	return &dispatcher{
		senders: senders,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func (d *dispatcher) Available(channel Channel) bool {
	sender, ok := d.senders[channel]
	return ok && sender != nil
}

func (d *dispatcher) Send(ctx context.Context, channel Channel, recipient string, msg Message) (err error) {
	defer func() {
		metrics.NotificationsTotal.WithLabelValues(string(channel), string(msg.Template), metrics.Result(err)).Inc()
	}()

	if !d.Available(channel) {
		return fmt.Errorf("%w: %s", ErrChannelUnavailable, channel)
	}
	sender := d.senders[channel]

	rendered, err := Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("notification throttled: %w", err)
	}

	if err := sender.Deliver(ctx, recipient, rendered); err != nil {
		d.logger.Warn().
			Err(err).
			Str("channel", string(channel)).
			Str("template", string(msg.Template)).
			Msg("notification delivery failed")
		return err
	}

	d.logger.Info().
		Str("channel", string(channel)).
		Str("template", string(msg.Template)).
		Msg("notification delivered")

	return nil
}
