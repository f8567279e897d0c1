package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection   = "users"
	InternsCollection = "interns"
)

// Connect opens a client, verifies the connection, and returns the database
// handle for the two application collections.
func Connect(ctx context.Context, uri, database string, connTimeout time.Duration) (*mongo.Client, *mongo.Database, error) {
	if connTimeout <= 0 {
		connTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, connTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the unique indexes backing the two identities:
// users.email and interns.idNumber.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection(InternsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "idNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
