// Package relay fans rental events out to the participants currently
// connected to a rental's channel. Delivery is in-process and best-effort:
// nothing is persisted and a channel with no subscribers drops the event.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/cockroachdb/errors"

	"campus-rentals-backend/internal/logger"
)

const (
	EventReceiveMessage = "receive_message"
	EventStatusChanged  = "status_changed"
)

// Event is the envelope published on a rental channel.
type Event struct {
	Type     string          `json:"type"`
	RentalID string          `json:"rental_id"`
	SentAt   time.Time       `json:"sent_at"`
	Data     json.RawMessage `json:"data"`
}

// RentalChannel names the channel that carries events for one rental.
func RentalChannel(rentalID string) string {
	return "rental." + rentalID
}

type Config struct {
	// OutputBuffer is the per-subscriber buffer size.
	OutputBuffer int64
}

type Relay struct {
	pubsub *gochannel.GoChannel
}

func New(cfg Config) *Relay {
	if cfg.OutputBuffer <= 0 {
		cfg.OutputBuffer = 64
	}
	return &Relay{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            cfg.OutputBuffer,
			BlockPublishUntilSubscriberAck: false,
		}, &slogAdapter{log: logger.Get().With("component", "relay")}),
	}
}

// Publish hands payload to every current subscriber of channel without
// waiting for them to read it.
func (r *Relay) Publish(_ context.Context, channel string, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := r.pubsub.Publish(channel, msg); err != nil {
		return errors.Wrapf(err, "relay: publish to %s", channel)
	}
	return nil
}

// Subscribe joins channel until ctx is done. The returned stream is closed
// once the subscription ends.
func (r *Relay) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	msgs, err := r.pubsub.Subscribe(ctx, channel)
	if err != nil {
		return nil, errors.Wrapf(err, "relay: subscribe to %s", channel)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for msg := range msgs {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
			}
			msg.Ack()
		}
	}()
	return out, nil
}

func (r *Relay) Close() error {
	return r.pubsub.Close()
}

// slogAdapter bridges the process logger to watermill.LoggerAdapter. Levels
// map one to one except Trace, which slog lacks and which lands on Debug.
type slogAdapter struct{ log *slog.Logger }

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(fieldsToArgs(fields), "error", err)...)
}
func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, fieldsToArgs(fields)...)
}
func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{log: a.log.With(fieldsToArgs(fields)...)}
}

func fieldsToArgs(fields watermill.LogFields) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}
