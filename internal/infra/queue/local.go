package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// LocalDispatcher delivers emails on background goroutines. It is used when
// no broker is configured.
type LocalDispatcher struct {
	delivery Deliverer
	timeout  time.Duration
	slots    chan struct{}
	wg       sync.WaitGroup
}

func NewLocalDispatcher(delivery Deliverer, concurrency int) *LocalDispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &LocalDispatcher{
		delivery: delivery,
		timeout:  30 * time.Second,
		slots:    make(chan struct{}, concurrency),
	}
}

// Dispatch returns immediately. The delivery outlives the request that
// triggered it but keeps its logger.
func (l *LocalDispatcher) Dispatch(ctx context.Context, emailID bson.ObjectID) error {
	ctx = context.WithoutCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.slots <- struct{}{}
		defer func() { <-l.slots }()

		ctx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()
		if _, err := l.delivery.Deliver(ctx, emailID); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("email_id", emailID.Hex()).Msg("local delivery failed")
		}
	}()
	return nil
}

// Wait blocks until every dispatched delivery has finished.
func (l *LocalDispatcher) Wait() {
	l.wg.Wait()
}
