package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisherSendsJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got map[string]interface{}
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got["reference"] != "abc" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	p := NewSyncPublisher(producer)
	require.NoError(t, p.Publish(context.Background(), TopicPaymentPaid, "1", PaymentPaid{Reference: "abc"}))
	require.NoError(t, p.Close())
}

func TestKafkaPublisherError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewSyncPublisher(producer)
	err := p.Publish(context.Background(), TopicPayoutRequested, "1", PayoutEvent{})
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	PublishAfterCommit(context.Background(), NoopPublisher{}, TopicPayoutRequested, "1", nil)
	require.NoError(t, p.Close())
}

func TestNewWithoutBrokers(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
}
