package events

import (
	"fmt"

	"github.com/amilzbot/agent-proof-cli/pkg/logger"
	"github.com/amilzbot/agent-proof-cli/pkg/rabbitmq"
)

// Connect returns a Notifier for cfg and a function releasing its
// connection. A disabled config, or a broker that cannot be reached,
// yields Nop: notifications never block a command.
func Connect(cfg rabbitmq.RabbitmqConfig, log *logger.Logger) (Notifier, func()) {
	if !cfg.Enabled() {
		return Nop{}, func() {}
	}

	conn, err := rabbitmq.ConnectToRabbitmq(cfg.URL, cfg.MaxRetries)
	if err != nil {
		log.Warnf("Event broker unreachable, notifications disabled: %v", err)
		return Nop{}, func() {}
	}

	ch, err := conn.Channel()
	if err == nil {
		err = rabbitmq.DeclareTopicExchange(ch, cfg.Exchange)
	}
	if err != nil {
		log.Warnf("Event exchange unavailable, notifications disabled: %v", fmt.Errorf("declare %s: %w", cfg.Exchange, err))
		_ = conn.Close()
		return Nop{}, func() {}
	}

	closer := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	return NewPublisher(rabbitmq.NewPublisher(ch, cfg.Exchange), log), closer
}
