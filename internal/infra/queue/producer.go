package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

// DeliveryTask asks the worker to deliver one stored email.
type DeliveryTask struct {
	EmailID  string    `json:"email_id"`
	QueuedAt time.Time `json:"queued_at"`
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQProducer implements usecase.Dispatcher on top of a durable queue.
type RabbitMQProducer struct {
	Ch  publisher
	Now func() time.Time
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch, Now: time.Now}
}

func (p *RabbitMQProducer) Dispatch(ctx context.Context, emailID bson.ObjectID) error {
	task := DeliveryTask{EmailID: entity.FormatID(emailID), QueuedAt: p.Now().UTC()}
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode delivery task: %w", err)
	}

	msgID := uuid.NewString()
	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    msgID,
			Timestamp:    task.QueuedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish delivery task: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("email_id", task.EmailID).Str("message_id", msgID).Msg("delivery queued")
	return nil
}
