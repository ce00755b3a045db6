package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/inquest-labs/inquest/backend/internal/util"
	"github.com/inquest-labs/inquest/backend/pkg/audit"
	"github.com/inquest-labs/inquest/backend/pkg/logger"
	"github.com/inquest-labs/inquest/backend/pkg/logger/console"
)

// The auditor consumes the audit queue, verifies each record's hash and its
// linkage to the previous one, and logs the verified entry. Long-term storage
// of verified records is handled downstream.
func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnv("RABBITMQ_HOST"),
		util.GetEnv("RABBITMQ_PORT"),
	)

	conn, err := amqp.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queueName := util.GetEnvString("AUDIT_QUEUE", audit.DefaultQueue)
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		logger.Fatal("Failed to declare audit queue", "err", err)
	}

	msgs, err := ch.Consume(
		queueName,
		"auditor",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "err", err)
	}

	logger.Info("Auditor listening", "queue", queueName)

	prevHash := ""
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed")
				return
			}

			var record audit.Record
			if err := json.Unmarshal(msg.Body, &record); err != nil {
				logger.Error("Failed to decode audit record", "err", err)
				msg.Nack(false, false)
				continue
			}

			if err := record.Verify(); err != nil {
				logger.Error("Audit record failed verification", "request_id", record.RequestID, "err", err)
				msg.Nack(false, false)
				continue
			}

			// The chain restarts when the publisher restarts; only warn.
			if prevHash != "" && record.PrevHash != prevHash {
				logger.Warn("Audit chain discontinuity",
					"request_id", record.RequestID,
					"expected_prev", prevHash,
					"got_prev", record.PrevHash,
				)
			}
			prevHash = record.Hash

			logger.Info("Audit record verified",
				"request_id", record.RequestID,
				"user_id", record.UserID,
				"case_id", record.CaseID,
				"citations", record.AnswerSummary.NumCitations,
				"unknowns", record.AnswerSummary.NumUnknowns,
			)

			if err := msg.Ack(false); err != nil {
				logger.Error("Failed to ack message", "err", err)
			}
		}
	}
}
