package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/inquest-labs/inquest/backend/internal/util"
)

// DefaultQueue is the queue audit records are published to.
const DefaultQueue = "audit_queue"

// AMQPSink publishes sealed audit records to a durable RabbitMQ queue. The
// hash chain is maintained per publishing process; a downstream consumer
// verifies it before long-term storage.
type AMQPSink struct {
	ch    *amqp091.Channel
	queue string

	mu       sync.Mutex
	lastHash string
}

// NewAMQPSink declares the durable audit queue on the given channel and
// returns a sink publishing to it.
func NewAMQPSink(ch *amqp091.Channel, queue string) (*AMQPSink, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return nil, err
	}

	return &AMQPSink{
		ch:    ch,
		queue: queue,
	}, nil
}

// Append implements Sink. The record is sealed into the chain and published
// with persistent delivery; transient publish errors are retried.
func (s *AMQPSink) Append(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := record.Seal(s.lastHash); err != nil {
		return err
	}

	body, err := json.Marshal(record)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	err = util.RetryErr(3, func() error {
		return s.ch.PublishWithContext(ctx, "", s.queue, false, false, publishing)
	})
	if err != nil {
		return err
	}

	s.lastHash = record.Hash
	return nil
}
