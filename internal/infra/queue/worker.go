package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

// Deliverer performs the delivery for one email and records the outcome.
type Deliverer interface {
	Deliver(ctx context.Context, id bson.ObjectID) (string, error)
}

type consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel  consumer
	Delivery Deliverer
	Log      zerolog.Logger
	Timeout  time.Duration
}

func NewWorker(ch *amqp.Channel, delivery Deliverer, log zerolog.Logger) *Worker {
	return &Worker{
		Channel:  ch,
		Delivery: delivery,
		Log:      log.With().Str("component", "delivery_worker").Logger(),
		Timeout:  30 * time.Second,
	}
}

// Start consumes queueName until ctx is cancelled or the channel closes.
// Messages are acked only after the email's terminal status is stored.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer on %s: %w", queueName, err)
	}

	w.Log.Info().Str("queue", queueName).Msg("worker waiting for deliveries")
	for {
		select {
		case <-ctx.Done():
			w.Log.Info().Msg("worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("consumer channel for %s closed", queueName)
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	log := w.Log.With().Str("message_id", d.MessageId).Logger()

	var task DeliveryTask
	if err := json.Unmarshal(d.Body, &task); err != nil {
		log.Error().Err(err).Msg("malformed delivery task")
		_ = d.Nack(false, false)
		return
	}
	id, err := entity.ParseID(task.EmailID)
	if err != nil {
		log.Error().Str("email_id", task.EmailID).Msg("delivery task has invalid email id")
		_ = d.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(log.WithContext(ctx), w.Timeout)
	defer cancel()

	status, err := w.Delivery.Deliver(ctx, id)
	if err != nil {
		// Outcome not stored; park the task in the DLQ for inspection.
		log.Error().Err(err).Str("email_id", task.EmailID).Msg("delivery not recorded")
		_ = d.Nack(false, false)
		return
	}
	log.Debug().Str("email_id", task.EmailID).Str("status", status).Msg("delivery handled")
	_ = d.Ack(false)
}
