// Package mongodb implements the storage.Storage contract on a MongoDB
// replica. Documents keep the collection layout of the original Memories
// deployment so existing data remains readable.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memoriesapp/memories-service/internal/config"
	"github.com/memoriesapp/memories-service/internal/storage"
)

type Mongo struct {
	client *mongo.Client

	users          *mongo.Collection
	posts          *mongo.Collection
	comments       *mongo.Collection
	friendRequests *mongo.Collection
	verifications  *mongo.Collection
	passwordResets *mongo.Collection
}

func NewMongo(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(cfg.Mongo.Database)
	m := &Mongo{
		client:         client,
		users:          db.Collection("users"),
		posts:          db.Collection("posts"),
		comments:       db.Collection("comments"),
		friendRequests: db.Collection("friendrequests"),
		verifications:  db.Collection("verifications"),
		passwordResets: db.Collection("passwordresets"),
	}

	if err := m.ensureIndexes(connectCtx); err != nil {
		return nil, fmt.Errorf("ensuring indexes: %w", err)
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	if _, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := m.verifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	if _, err := m.passwordResets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique,
	}); err != nil {
		return err
	}
	_, err := m.friendRequests.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "requestFrom", Value: 1}, {Key: "requestTo", Value: 1}},
	})
	return err
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// objectID parses an opaque id into its ObjectID form. Ids that cannot have
// been issued by this store map onto ErrNotFound rather than a decode error.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storage.ErrNotFound
	}
	return oid, nil
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, oid := range oids {
		out = append(out, oid.Hex())
	}
	return out
}

func mapNotFound(err error) error {
	if err == mongo.ErrNoDocuments {
		return storage.ErrNotFound
	}
	return err
}
