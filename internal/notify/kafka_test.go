package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	block    chan struct{}
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

func TestKafkaNotifier_Publishes(t *testing.T) {
	writer := &fakeWriter{}
	n := newKafkaNotifier(writer, 8, nil, zerolog.Nop())

	order := &model.Order{ID: uuid.New(), UserID: uuid.New(), Total: decimal.RequireFromString("189.982")}
	n.Notify(context.Background(), OrderCreated(order))
	n.Notify(context.Background(), LowStock("P001", "Wireless Headphones", 2))

	require.NoError(t, n.Close())

	msgs := writer.written()
	require.Len(t, msgs, 2)
	assert.True(t, writer.closed)

	assert.Equal(t, order.ID.String(), string(msgs[0].Key))
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(msgs[0].Value, &created))
	assert.Equal(t, "order_created", created["type"])
	assert.Equal(t, "189.982", created["total"])
	assert.Equal(t, order.UserID.String(), created["user_id"])

	assert.Equal(t, "P001", string(msgs[1].Key))
	assert.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte("low_stock")}}, msgs[1].Headers)
}

func TestKafkaNotifier_DropsWhenQueueFull(t *testing.T) {
	writer := &fakeWriter{block: make(chan struct{})}
	n := newKafkaNotifier(writer, 1, nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			n.Notify(context.Background(), LowStock("P001", "Widget", i))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	close(writer.block)
	require.NoError(t, n.Close())

	written := len(writer.written())
	assert.GreaterOrEqual(t, written, 1)
	assert.LessOrEqual(t, written, 2)
}

func TestKafkaNotifier_WriteErrorIsSwallowed(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	n := newKafkaNotifier(writer, 4, nil, zerolog.Nop())

	n.Notify(context.Background(), LowStock("P001", "Widget", 1))

	require.NoError(t, n.Close())
	assert.Empty(t, writer.written())
}

func TestKafkaNotifier_NotifyAfterClose(t *testing.T) {
	writer := &fakeWriter{}
	n := newKafkaNotifier(writer, 4, nil, zerolog.Nop())
	require.NoError(t, n.Close())

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), LowStock("P001", "Widget", 1))
	})
	assert.Empty(t, writer.written())
}

func TestEvent_Key(t *testing.T) {
	order := &model.Order{ID: uuid.New()}

	assert.Equal(t, order.ID.String(), OrderCreated(order).Key())
	assert.Equal(t, "P002", LowStock("P002", "Speaker", 0).Key())
	assert.Equal(t, "low_stock_digest", LowStockDigest([]model.InventoryAlert{
		{ProductID: "P001", Stock: 1}, {ProductID: "P002", Stock: 2},
	}).Key())
}

func TestOrderPaid(t *testing.T) {
	order := &model.Order{ID: uuid.New(), UserID: uuid.New(), Total: decimal.NewFromInt(100)}
	payment := &model.Payment{Provider: model.ProviderStripe, Amount: decimal.RequireFromString("99.99"), TransactionID: "pi_1"}

	event := OrderPaid(order, payment)

	assert.Equal(t, EventOrderPaid, event.Type)
	assert.Equal(t, "stripe", event.Provider)
	assert.Equal(t, "pi_1", event.TransactionID)
	assert.True(t, decimal.RequireFromString("99.99").Equal(*event.Total))
}
