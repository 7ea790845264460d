package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/amilzbot/agent-proof-cli/pkg/logger"
	"github.com/amilzbot/agent-proof-cli/pkg/rabbitmq"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities"
	"github.com/amilzbot/agent-proof-cli/pkg/utilities/timeutil"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, routingKey string, body utilities.Serializable) error {
	if r.err != nil {
		return r.err
	}
	data, err := body.Serialize()
	if err != nil {
		return err
	}
	r.keys = append(r.keys, routingKey)
	r.bodies = append(r.bodies, data)
	return nil
}

func TestEventSerialize(t *testing.T) {
	address := solana.NewWallet().PublicKey()
	event := New(AttestationCreated, address, solana.Signature{}, timeutil.TimeUTC{T: 1_700_000_000})

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)

	data, err := event.Serialize()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "attestation.created", decoded["type"])
	assert.Equal(t, address.String(), decoded["address"])
	assert.EqualValues(t, 1_700_000_000, decoded["timestamp"])
}

func TestPublisherRoutesByType(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewPublisher(rec, logger.Nop())

	p.Notify(context.Background(), New(SchemaTokenized, solana.NewWallet().PublicKey(), solana.Signature{}, timeutil.NowUTC()))

	require.Len(t, rec.keys, 1)
	assert.Equal(t, "schema.tokenized", rec.keys[0])
}

func TestPublisherSwallowsFailure(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("channel closed")}
	p := NewPublisher(rec, logger.Nop())

	assert.NotPanics(t, func() {
		p.Notify(context.Background(), New(AttestationRevoked, solana.NewWallet().PublicKey(), solana.Signature{}, timeutil.NowUTC()))
	})
	assert.Empty(t, rec.keys)
}

func TestConnectDisabled(t *testing.T) {
	notifier, closer := Connect(rabbitmq.RabbitmqConfigJson{}.ConvertToDomain(), logger.Nop())
	defer closer()

	assert.IsType(t, Nop{}, notifier)
}
