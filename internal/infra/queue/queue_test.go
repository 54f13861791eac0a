package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, id bson.ObjectID) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

type recordingPublisher struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return p.err
}

// acks records what the worker did with each delivery tag.
type acks struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *acks) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *acks) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *acks) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

type fakeConsumer struct {
	ch chan amqp.Delivery
}

func (f *fakeConsumer) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.ch, nil
}

type declared struct {
	exchanges []string
	queues    map[string]amqp.Table
	bindings  []string
}

func (d *declared) ExchangeDeclare(name, _ string, _, _, _, _ bool, _ amqp.Table) error {
	d.exchanges = append(d.exchanges, name)
	return nil
}

func (d *declared) QueueDeclare(name string, _, _, _, _ bool, args amqp.Table) (amqp.Queue, error) {
	d.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (d *declared) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	d.bindings = append(d.bindings, exchange+"->"+name+"@"+key)
	return nil
}

func TestTopologyDeadLettersTheDeliveryQueue(t *testing.T) {
	d := &declared{queues: map[string]amqp.Table{}}

	require.NoError(t, setupTopology(d))

	assert.ElementsMatch(t, []string{DLXName, ExchangeName}, d.exchanges)
	assert.Nil(t, d.queues[DLQName])
	assert.Equal(t, DLXName, d.queues[QueueName]["x-dead-letter-exchange"])
	assert.Contains(t, d.bindings, DLXName+"->"+DLQName+"@"+RoutingKey)
	assert.Contains(t, d.bindings, ExchangeName+"->"+QueueName+"@"+RoutingKey)
}

func TestProducerPublishesPersistentTask(t *testing.T) {
	pub := &recordingPublisher{}
	now := time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC)
	p := &RabbitMQProducer{Ch: pub, Now: func() time.Time { return now }}
	id := bson.NewObjectID()

	require.NoError(t, p.Dispatch(context.Background(), id))

	assert.Equal(t, ExchangeName, pub.exchange)
	assert.Equal(t, RoutingKey, pub.key)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.NotEmpty(t, pub.msg.MessageId)

	var task DeliveryTask
	require.NoError(t, json.Unmarshal(pub.msg.Body, &task))
	assert.Equal(t, id.Hex(), task.EmailID)
	assert.Equal(t, now, task.QueuedAt)
}

func TestProducerWrapsPublishError(t *testing.T) {
	p := &RabbitMQProducer{Ch: &recordingPublisher{err: amqp.ErrClosed}, Now: time.Now}

	err := p.Dispatch(context.Background(), bson.NewObjectID())

	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func delivery(a *acks, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: a, DeliveryTag: tag, Body: []byte(body)}
}

func TestWorkerAcksAfterDelivery(t *testing.T) {
	id := bson.NewObjectID()
	del := new(MockDeliverer)
	del.On("Deliver", id).Return("delivered", nil)
	a := &acks{}
	w := &Worker{Delivery: del, Log: zerolog.Nop(), Timeout: time.Second}

	w.handle(context.Background(), delivery(a, 7, `{"email_id":"`+id.Hex()+`"}`))

	assert.Equal(t, []uint64{7}, a.acked)
	assert.Empty(t, a.nacked)
}

func TestWorkerDeadLettersBadMessages(t *testing.T) {
	del := new(MockDeliverer)
	a := &acks{}
	w := &Worker{Delivery: del, Log: zerolog.Nop(), Timeout: time.Second}

	w.handle(context.Background(), delivery(a, 1, `{not json`))
	w.handle(context.Background(), delivery(a, 2, `{"email_id":"xyz"}`))

	assert.Equal(t, []uint64{1, 2}, a.nacked)
	assert.Equal(t, []bool{false, false}, a.requeue)
	del.AssertNotCalled(t, "Deliver", mock.Anything)
}

func TestWorkerNacksWhenOutcomeNotStored(t *testing.T) {
	id := bson.NewObjectID()
	del := new(MockDeliverer)
	del.On("Deliver", id).Return("", errors.New("mongo down"))
	a := &acks{}
	w := &Worker{Delivery: del, Log: zerolog.Nop(), Timeout: time.Second}

	w.handle(context.Background(), delivery(a, 3, `{"email_id":"`+id.Hex()+`"}`))

	assert.Equal(t, []uint64{3}, a.nacked)
	assert.Empty(t, a.acked)
}

func TestWorkerStartStopsWithContext(t *testing.T) {
	id := bson.NewObjectID()
	del := new(MockDeliverer)
	del.On("Deliver", id).Return("delivered", nil)
	a := &acks{}
	msgs := make(chan amqp.Delivery, 1)
	msgs <- delivery(a, 1, `{"email_id":"`+id.Hex()+`"}`)
	w := &Worker{Channel: &fakeConsumer{ch: msgs}, Delivery: del, Log: zerolog.Nop(), Timeout: time.Second}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() { done <- w.Start(ctx, QueueName) }()

	require.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return len(a.acked) == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestWorkerStartReportsClosedChannel(t *testing.T) {
	msgs := make(chan amqp.Delivery)
	close(msgs)
	w := &Worker{Channel: &fakeConsumer{ch: msgs}, Log: zerolog.Nop()}

	assert.Error(t, w.Start(context.Background(), QueueName))
}

func TestLocalDispatcherDeliversInBackground(t *testing.T) {
	ids := []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()}
	del := new(MockDeliverer)
	for _, id := range ids {
		del.On("Deliver", id).Return("delivered", nil).Once()
	}
	l := NewLocalDispatcher(del, 2)
	ctx, cancel := context.WithCancel(context.Background())

	for _, id := range ids {
		require.NoError(t, l.Dispatch(ctx, id))
	}
	cancel()
	l.Wait()

	del.AssertExpectations(t)
}
