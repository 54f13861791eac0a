package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	UsersCollection     = "users"
	LeadsCollection     = "leads"
	CallsCollection     = "calls"
	ViewingsCollection  = "viewings"
	SalesCollection     = "sales"
	EmailsCollection    = "emails"
	TemplatesCollection = "email_templates"
)

// DB owns the pooled client. It is built once at startup and passed down.
type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewDBConnection opens the pool and pings the primary before returning.
func NewDBConnection(ctx context.Context, uri, name string) (*DB, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(5 * time.Minute).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &DB{Client: client, Database: client.Database(name)}, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx, readpref.Primary())
}

func (db *DB) Close(ctx context.Context) error {
	return db.Client.Disconnect(ctx)
}

func (db *DB) Collection(name string) *mongo.Collection {
	return db.Database.Collection(name)
}

// EnsureIndexes creates the indexes the application relies on. Unique indexes
// back the email and one-sale-per-lead rules when two requests race.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	asc := func(field string) bson.D { return bson.D{{Key: field, Value: 1}} }
	desc := func(field string) bson.D { return bson.D{{Key: field, Value: -1}} }
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: asc("email"), Options: unique},
			{Keys: asc("role")},
		},
		LeadsCollection: {
			{Keys: asc("email"), Options: unique},
			{Keys: bson.D{{Key: "assigned_agent_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: asc("status")},
		},
		CallsCollection: {
			{Keys: bson.D{{Key: "agent_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: asc("lead_id")},
		},
		ViewingsCollection: {
			{Keys: bson.D{{Key: "agent_id", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: asc("status")},
		},
		SalesCollection: {
			{Keys: asc("lead_id"), Options: unique},
			{Keys: bson.D{{Key: "stage", Value: 1}, {Key: "last_activity", Value: -1}}},
		},
		EmailsCollection: {
			{Keys: bson.D{{Key: "agent_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "sent_at", Value: 1}}},
		},
		TemplatesCollection: {
			{Keys: bson.D{{Key: "template_type", Value: 1}, {Key: "is_active", Value: 1}}},
			{Keys: desc("created_at")},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
