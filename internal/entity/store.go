package entity

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type FindOptions struct {
	Sort  bson.D
	Skip  int64
	Limit int64 // 0 means no limit
}

// Store is a single document collection. FindOne returns (nil, nil) when nothing matches.
type Store[T any] interface {
	Find(ctx context.Context, filter bson.M, opts FindOptions) ([]T, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	FindOne(ctx context.Context, filter bson.M) (*T, error)
	Insert(ctx context.Context, doc *T) error
	// Update applies set to the first document matching filter and reports whether one matched.
	Update(ctx context.Context, filter bson.M, set bson.M) (bool, error)
	Delete(ctx context.Context, id bson.ObjectID) (bool, error)
}
