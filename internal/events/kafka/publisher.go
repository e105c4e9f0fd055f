package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	"github.com/segmentio/kafka-go"

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
)

// Publisher writes JSON encoded events to kafka. The topic is chosen per message.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for brokers. Writer errors are reported through
// logger.
func NewPublisher(brokers []string, logger log.Logger) *Publisher {
	logger = logger.With(log.ModuleKey, "kafka")
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				logger.Error(fmt.Sprintf(msg, args...))
			}),
		},
	}
}

// Publish sends event to topic keyed by key, so all events of one account land on
// the same partition in order.
func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(
		ctx,
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: data,
		},
	)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
