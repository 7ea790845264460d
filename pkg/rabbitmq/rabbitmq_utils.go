package rabbitmq

import (
	"math"
	"time"

	"github.com/amilzbot/agent-proof-cli/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConnectToRabbitmq dials url, retrying with exponential backoff.
func ConnectToRabbitmq(url string, maxRetries int) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	waitTime := 1 * time.Second

	queueLogger := logger.Default()

	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		if i == maxRetries-1 {
			break
		}
		queueLogger.Warnf("Attempt %d failed: %v. Retrying in %v...", i+1, err, waitTime)
		time.Sleep(waitTime)
		waitTime = time.Duration(math.Pow(2, float64(i+1))) * time.Second
	}
	return nil, err
}

// DeclareTopicExchange declares a durable topic exchange on ch.
func DeclareTopicExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
}
