package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ticketgate/internal/shared/config"
	"ticketgate/pkg/logger"

	"github.com/IBM/sarama"
)

// Relay forwards TicketCancelled events from the bus to a Kafka topic so
// downstream consumers (notifications, analytics) learn about cancellations
// without polling the gateway. The bus itself stays pure in-process fan-out;
// the relay is just one more subscriber.
type Relay struct {
	producer    sarama.SyncProducer
	topic       string
	log         *logger.Logger
	unsubscribe func()
}

// NewRelay connects a sync producer to the configured brokers.
func NewRelay(cfg config.KafkaConfig, log *logger.Logger) (*Relay, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Hash by order id so all events for one order land on one partition.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Relay{
		producer: producer,
		topic:    cfg.Topic,
		log:      log,
	}, nil
}

// Start subscribes the relay to the bus. Only cancellation events are
// forwarded; refresh requests are gateway-internal.
func (r *Relay) Start(b *Bus) {
	r.unsubscribe = b.Subscribe(func(event Event) {
		if event.Type != EventTicketCancelled {
			return
		}
		if err := r.forward(event); err != nil {
			r.log.ErrorWithContext(context.Background(), "failed to relay cancellation event", err,
				map[string]interface{}{
					"ticket_id": event.TicketID,
					"order_id":  event.OrderID,
				})
		}
	})
}

func (r *Relay) forward(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     r.topic,
		Key:       sarama.StringEncoder(event.OrderID),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: event.Timestamp,
	}

	if _, _, err := r.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", r.topic, err)
	}
	return nil
}

// Close detaches the relay from the bus and shuts the producer down.
func (r *Relay) Close() error {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	if err := r.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
