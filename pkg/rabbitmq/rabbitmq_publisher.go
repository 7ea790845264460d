package rabbitmq

import (
	"context"
	"time"

	"github.com/amilzbot/agent-proof-cli/pkg/utilities"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type IRabbitmqPublisher interface {
	Publish(ctx context.Context, routingKey string, body utilities.Serializable) error
}

type RabbitmqPublisher struct {
	Channel  Channel
	Exchange string
}

func NewPublisher(ch Channel, exchange string) *RabbitmqPublisher {
	return &RabbitmqPublisher{
		Channel:  ch,
		Exchange: exchange,
	}
}

func (rp *RabbitmqPublisher) Publish(ctx context.Context, routingKey string, body utilities.Serializable) error {
	json, err := body.Serialize()
	if err != nil {
		return err
	}

	return rp.Channel.PublishWithContext(
		ctx,
		rp.Exchange,
		routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         json,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
}
