package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xavierca1/realty-crm/internal/entity"
)

// Collection is the Mongo implementation of entity.Store for one document type.
type Collection[T any] struct {
	coll *mongo.Collection
}

func NewCollection[T any](db *DB, name string) *Collection[T] {
	return &Collection[T]{coll: db.Collection(name)}
}

func (c *Collection[T]) Find(ctx context.Context, filter bson.M, opts entity.FindOptions) ([]T, error) {
	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cur, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.coll.Name(), err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return out, nil
}

func (c *Collection[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.coll.Name(), err)
	}
	return n, nil
}

func (c *Collection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	err := c.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", c.coll.Name(), err)
	}
	return &doc, nil
}

func (c *Collection[T]) Insert(ctx context.Context, doc *T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	return nil
}

func (c *Collection[T]) Update(ctx context.Context, filter bson.M, set bson.M) (bool, error) {
	res, err := c.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, translate(err)
	}
	return res.MatchedCount > 0, nil
}

func (c *Collection[T]) Delete(ctx context.Context, id bson.ObjectID) (bool, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount > 0, nil
}

// translate maps unique index violations to entity.ErrDuplicateKey.
func translate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return entity.ErrDuplicateKey
	}
	return err
}

// Stores bundles one typed collection per document kind.
type Stores struct {
	Users     *Collection[entity.User]
	Leads     *Collection[entity.Lead]
	Calls     *Collection[entity.Call]
	Viewings  *Collection[entity.Viewing]
	Sales     *Collection[entity.Sale]
	Emails    *Collection[entity.Email]
	Templates *Collection[entity.EmailTemplate]
}

func NewStores(db *DB) *Stores {
	return &Stores{
		Users:     NewCollection[entity.User](db, UsersCollection),
		Leads:     NewCollection[entity.Lead](db, LeadsCollection),
		Calls:     NewCollection[entity.Call](db, CallsCollection),
		Viewings:  NewCollection[entity.Viewing](db, ViewingsCollection),
		Sales:     NewCollection[entity.Sale](db, SalesCollection),
		Emails:    NewCollection[entity.Email](db, EmailsCollection),
		Templates: NewCollection[entity.EmailTemplate](db, TemplatesCollection),
	}
}
