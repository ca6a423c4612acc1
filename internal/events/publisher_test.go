package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type fakeChannel struct {
	key    string
	msg    amqp.Publishing
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.key = key
	f.msg = msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func sampleOrder() domain.Order {
	return domain.Order{
		ID:            "o1",
		OrderNumber:   "#123456",
		Total:         decimal.RequireFromString("7.00"),
		PaymentMethod: domain.PaymentCash,
		EstimatedTime: 15,
		Items:         []domain.OrderItem{{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("3.5")}},
	}
}

func TestPublishOrderCreatedCarriesCorrelationID(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, nil)

	ctx := WithCorrelationID(context.Background(), "cid-1")
	require.NoError(t, p.PublishOrderCreated(ctx, sampleOrder()))

	assert.Equal(t, OrderCreatedQueue, ch.key)
	assert.Equal(t, "cid-1", ch.msg.CorrelationId)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var env OrderCreatedEnvelope
	require.NoError(t, json.Unmarshal(ch.msg.Body, &env))
	require.NoError(t, env.Validate(OrderCreatedEventName, OrderCreatedEventVersion))
	assert.Equal(t, "o1", env.PartitionKey)
	assert.Equal(t, "#123456", env.Payload.OrderNumber)
	assert.True(t, env.Payload.Total.Equal(decimal.NewFromInt(7)))
	require.Len(t, env.Payload.Items, 1)
}

func TestPublishOrderCreatedWrapsChannelError(t *testing.T) {
	boom := errors.New("channel closed")
	p := NewPublisher(&fakeChannel{err: boom}, nil)
	err := p.PublishOrderCreated(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, boom)
}

func TestBuildEnvelopeGeneratesCorrelationID(t *testing.T) {
	env := BuildOrderCreatedEnvelope(sampleOrder(), "")
	assert.NotEmpty(t, env.CorrelationID)
	assert.NotEqual(t, env.CorrelationID, env.EventID)
}

func TestValidateRejectsWrongIdentity(t *testing.T) {
	env := BuildOrderCreatedEnvelope(sampleOrder(), "cid")
	assert.Error(t, env.Validate("OrderCancelled", 1))
	assert.Error(t, env.Validate(OrderCreatedEventName, 2))
	env.PartitionKey = ""
	assert.Error(t, env.Validate(OrderCreatedEventName, 1))
}

func TestCorrelationIDMissing(t *testing.T) {
	assert.Equal(t, "", CorrelationID(context.Background()))
}

func TestCloseClosesChannel(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, NewPublisher(ch, nil).Close())
	assert.True(t, ch.closed)
}
