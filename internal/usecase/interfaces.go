package usecase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xavierca1/realty-crm/internal/entity"
)

// Dispatcher hands a stored email to the delivery worker. It must not block on delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, emailID bson.ObjectID) error
}

type Mailer interface {
	Send(ctx context.Context, email *entity.Email) error
}

type TokenIssuer interface {
	Issue(p entity.Principal) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// StatsCache stores dashboard payloads per caller. A miss is (false, nil).
type StatsCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// DeliveryRecorder observes terminal delivery outcomes.
type DeliveryRecorder interface {
	Delivered()
	Failed()
}

// DispatchRecorder counts tasks the dispatcher refused.
type DispatchRecorder interface {
	DispatchFailed()
}

type Clock func() time.Time

type noopRecorder struct{}

func (noopRecorder) Delivered()      {}
func (noopRecorder) Failed()         {}
func (noopRecorder) DispatchFailed() {}
