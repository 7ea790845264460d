// Package events publishes lifecycle notifications. The on-chain effect
// is authoritative; a notification that cannot be delivered is logged
// and dropped.
package events

import (
	"context"

	"github.com/amilzbot/agent-proof-cli/pkg/logger"
	"github.com/amilzbot/agent-proof-cli/pkg/rabbitmq"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities/timeutil"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

type Type string

const (
	CredentialCreated  Type = "credential.created"
	SchemaCreated      Type = "schema.created"
	SchemaTokenized    Type = "schema.tokenized"
	AttestationCreated Type = "attestation.created"
	AttestationRevoked Type = "attestation.revoked"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
}

func New(t Type, address solana.PublicKey, signature solana.Signature, at timeutil.TimeUTC) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Address:   address.String(),
		Signature: signature.String(),
		Timestamp: at.T,
	}
}

func (e Event) Serialize() ([]byte, error) {
	return utilities.Serialize(e)
}

type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Nop drops every event. It is the notifier when no broker is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

type Publisher struct {
	Publisher rabbitmq.IRabbitmqPublisher
	Logger    *logger.Logger
}

func NewPublisher(publisher rabbitmq.IRabbitmqPublisher, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Default()
	}
	return &Publisher{Publisher: publisher, Logger: log}
}

// Notify publishes event with its type as routing key.
func (p *Publisher) Notify(ctx context.Context, event Event) {
	if err := p.Publisher.Publish(ctx, string(event.Type), event); err != nil {
		p.Logger.Warnf("Failed to publish %s event for %s: %v", event.Type, event.Address, err)
		return
	}
	p.Logger.Debugf("Published %s event %s", event.Type, event.ID)
}
