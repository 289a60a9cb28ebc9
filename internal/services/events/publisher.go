// Package events publishes domain events to Kafka after their storage transaction commits.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/gofiber/fiber/v2/log"
)

const (
	TopicPaymentPaid       = "payments.paid"
	TopicPayoutRequested   = "payouts.requested"
	TopicPayoutUpdated     = "payouts.updated"
	TopicWhatsAppOutbound  = "whatsapp.outbound"
	TopicTransactionRefund = "transactions.refunded"
)

// Publisher emits events keyed by an entity identifier.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
	Close() error
}

// KafkaPublisher sends events with a synchronous sarama producer.
type KafkaPublisher struct {
	producer sarama.SyncProducer
}

// NewKafkaPublisher connects to brokers, retrying a few times while Kafka starts.
func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	var (
		producer sarama.SyncProducer
		err      error
	)
	for i := 1; i <= 5; i++ {
		producer, err = sarama.NewSyncProducer(brokers, cfg)
		if err == nil {
			log.Infof("kafka producer connected to %v", brokers)
			return &KafkaPublisher{producer: producer}, nil
		}
		log.Warnf("waiting for kafka (%d/5): %v", i, err)
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("kafka producer: %w", err)
}

// NewSyncPublisher wraps an existing producer.
func NewSyncPublisher(producer sarama.SyncProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s event: %w", topic, err)
	}
	log.Debugf("published %s key=%s partition=%d offset=%d", topic, key, partition, offset)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher drops every event. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, interface{}) error { return nil }
func (NoopPublisher) Close() error                                               { return nil }

// New returns a Kafka publisher for brokers, or a NoopPublisher when brokers is empty.
func New(brokers []string) (Publisher, error) {
	if len(brokers) == 0 {
		log.Info("KAFKA_BROKERS not set, events are not published")
		return NoopPublisher{}, nil
	}
	return NewKafkaPublisher(brokers)
}

// PublishAfterCommit publishes and logs failures; events never undo committed work.
func PublishAfterCommit(ctx context.Context, p Publisher, topic, key string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, payload); err != nil {
		log.Errorf("publish %s key=%s: %v", topic, key, err)
	}
}
