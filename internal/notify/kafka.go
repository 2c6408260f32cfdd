package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"storefront/internal/config"
	"storefront/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const publishTimeout = 5 * time.Second

// messageWriter is the subset of *kafka.Writer used by KafkaNotifier.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes events to a Kafka topic from a bounded in-memory
// queue. Events are dropped when the queue is full or the broker rejects them.
type KafkaNotifier struct {
	writer  messageWriter
	queue   chan Event
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewKafkaNotifier creates a notifier publishing to cfg.Topic and starts its worker.
func NewKafkaNotifier(cfg config.KafkaConfig, queueSize int, m *metrics.Metrics, logger zerolog.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           100 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
	}
	return newKafkaNotifier(writer, queueSize, m, logger)
}

func newKafkaNotifier(writer messageWriter, queueSize int, m *metrics.Metrics, logger zerolog.Logger) *KafkaNotifier {
	n := &KafkaNotifier{
		writer:  writer,
		queue:   make(chan Event, queueSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		metrics: m,
		logger:  logger.With().Str("component", "kafka-notifier").Logger(),
	}
	go n.run()
	return n
}

// Notify enqueues the event. It never blocks.
func (n *KafkaNotifier) Notify(_ context.Context, event Event) {
	select {
	case <-n.stop:
		n.drop(event, "notifier closed")
		return
	default:
	}

	select {
	case n.queue <- event:
	default:
		n.drop(event, "queue full")
	}
}

func (n *KafkaNotifier) drop(event Event, reason string) {
	n.metrics.Notification(string(event.Type), "dropped")
	n.logger.Warn().
		Str("type", string(event.Type)).
		Str("key", event.Key()).
		Str("reason", reason).
		Msg("notification dropped")
}

func (n *KafkaNotifier) run() {
	defer close(n.done)
	for {
		select {
		case event := <-n.queue:
			n.publish(event)
		case <-n.stop:
			for {
				select {
				case event := <-n.queue:
					n.publish(event)
				default:
					return
				}
			}
		}
	}
}

func (n *KafkaNotifier) publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error().Err(err).Str("type", string(event.Type)).Msg("failed to encode notification")
		n.metrics.Notification(string(event.Type), "failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		n.logger.Error().Err(err).Str("type", string(event.Type)).Str("key", event.Key()).Msg("failed to publish notification")
		n.metrics.Notification(string(event.Type), "failed")
		return
	}

	n.metrics.Notification(string(event.Type), "sent")
	n.logger.Debug().Str("type", string(event.Type)).Str("key", event.Key()).Msg("notification published")
}

// Close stops accepting events, flushes the queue and closes the writer.
func (n *KafkaNotifier) Close() error {
	n.once.Do(func() { close(n.stop) })
	<-n.done
	return n.writer.Close()
}
