package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
)

type tokenDoc struct {
	UserID    string    `bson:"userId"`
	Email     string    `bson:"email,omitempty"`
	Token     string    `bson:"token"`
	CreatedAt time.Time `bson:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func (d *tokenDoc) toRecord() *types.TokenRecord {
	return &types.TokenRecord{
		UserID:    d.UserID,
		Email:     d.Email,
		TokenHash: d.Token,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

func fromRecord(rec *types.TokenRecord) tokenDoc {
	return tokenDoc{
		UserID:    rec.UserID,
		Email:     rec.Email,
		Token:     rec.TokenHash,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}
}

func (m *Mongo) CreateVerification(ctx context.Context, rec *types.TokenRecord) error {
	if _, err := m.verifications.InsertOne(ctx, fromRecord(rec)); err != nil {
		return fmt.Errorf("inserting verification: %w", err)
	}
	return nil
}

func (m *Mongo) GetVerification(ctx context.Context, userID string) (*types.TokenRecord, error) {
	return m.findToken(ctx, m.verifications, bson.M{"userId": userID})
}

func (m *Mongo) DeleteVerification(ctx context.Context, userID string) error {
	return m.deleteToken(ctx, m.verifications, bson.M{"userId": userID})
}

func (m *Mongo) CreatePasswordReset(ctx context.Context, rec *types.TokenRecord) error {
	if _, err := m.passwordResets.InsertOne(ctx, fromRecord(rec)); err != nil {
		return fmt.Errorf("inserting password reset: %w", err)
	}
	return nil
}

func (m *Mongo) GetPasswordResetByUserID(ctx context.Context, userID string) (*types.TokenRecord, error) {
	return m.findToken(ctx, m.passwordResets, bson.M{"userId": userID})
}

func (m *Mongo) GetPasswordResetByEmail(ctx context.Context, email string) (*types.TokenRecord, error) {
	return m.findToken(ctx, m.passwordResets, bson.M{"email": email})
}

func (m *Mongo) DeletePasswordReset(ctx context.Context, userID string) error {
	return m.deleteToken(ctx, m.passwordResets, bson.M{"userId": userID})
}

func (m *Mongo) ListExpiredVerifications(ctx context.Context, now time.Time) ([]*types.TokenRecord, error) {
	cur, err := m.verifications.Find(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return nil, fmt.Errorf("listing expired verifications: %w", err)
	}
	defer cur.Close(ctx)

	var out []*types.TokenRecord
	for cur.Next(ctx) {
		var doc tokenDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding verification: %w", err)
		}
		out = append(out, doc.toRecord())
	}
	return out, cur.Err()
}

func (m *Mongo) DeleteExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	res, err := m.passwordResets.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("deleting expired resets: %w", err)
	}
	return res.DeletedCount, nil
}

func (m *Mongo) findToken(ctx context.Context, coll *mongo.Collection, filter bson.M) (*types.TokenRecord, error) {
	var doc tokenDoc
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapNotFound(err)
	}
	return doc.toRecord(), nil
}

func (m *Mongo) deleteToken(ctx context.Context, coll *mongo.Collection, filter bson.M) error {
	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("deleting token record: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
