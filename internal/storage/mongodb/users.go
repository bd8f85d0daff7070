package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types/users"
)

type userDoc struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	FirstName  string               `bson:"firstName"`
	LastName   string               `bson:"lastName"`
	Email      string               `bson:"email"`
	Password   string               `bson:"password"`
	Location   string               `bson:"location,omitempty"`
	ProfileURL string               `bson:"profileUrl,omitempty"`
	Profession string               `bson:"profession,omitempty"`
	Friends    []primitive.ObjectID `bson:"friends,omitempty"`
	Views      []string             `bson:"views,omitempty"`
	Verified   bool                 `bson:"verified"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
}

func (d *userDoc) toUser() *users.User {
	return &users.User{
		ID:         d.ID.Hex(),
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		Email:      d.Email,
		Password:   d.Password,
		Location:   d.Location,
		ProfileURL: d.ProfileURL,
		Profession: d.Profession,
		Friends:    hexIDs(d.Friends),
		Views:      d.Views,
		Verified:   d.Verified,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (d *userDoc) toPublic() *users.PublicUser {
	return &users.PublicUser{
		ID:         d.ID.Hex(),
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		Location:   d.Location,
		ProfileURL: d.ProfileURL,
		Profession: d.Profession,
	}
}

func (m *Mongo) CreateUser(ctx context.Context, u *users.User) (string, error) {
	now := time.Now()
	doc := userDoc{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Password:  u.Password,
		Verified:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := m.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", storage.ErrDuplicateEmail
		}
		return "", fmt.Errorf("inserting user: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	var doc userDoc
	err := m.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return doc.toUser(), nil
}

func (m *Mongo) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc userDoc
	if err := m.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapNotFound(err)
	}
	return doc.toUser(), nil
}

// GetUserProfiles resolves ids to public profiles, the document-store
// equivalent of reference-following a friends list.
func (m *Mongo) GetUserProfiles(ctx context.Context, ids []string) ([]*users.PublicUser, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*users.PublicUser{}, nil
	}

	cur, err := m.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("finding user profiles: %w", err)
	}
	defer cur.Close(ctx)

	var out []*users.PublicUser
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toPublic())
	}
	return out, cur.Err()
}

func (m *Mongo) UpdateUser(ctx context.Context, id string, upd users.UpdateProfileRequest) (*users.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"firstName":  upd.FirstName,
		"lastName":   upd.LastName,
		"location":   upd.Location,
		"profileUrl": upd.ProfileURL,
		"profession": upd.Profession,
		"updatedAt":  time.Now(),
	}}

	var doc userDoc
	after := options.After
	err = m.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		&options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&doc)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return doc.toUser(), nil
}

func (m *Mongo) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := m.users.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"password":  passwordHash,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) MarkUserVerified(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := m.users.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"verified": true}})
	if err != nil {
		return fmt.Errorf("marking verified: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := m.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddFriend appends friendID to the user's friends set. $addToSet keeps the
// edge deduplicated even when an accept is retried.
func (m *Mongo) AddFriend(ctx context.Context, userID, friendID string) error {
	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	fid, err := objectID(friendID)
	if err != nil {
		return err
	}

	res, err := m.users.UpdateByID(ctx, uid, bson.M{"$addToSet": bson.M{"friends": fid}})
	if err != nil {
		return fmt.Errorf("adding friend: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddProfileView records viewerID in the target's views multiset; repeat
// views are kept as separate entries.
func (m *Mongo) AddProfileView(ctx context.Context, targetID, viewerID string) error {
	oid, err := objectID(targetID)
	if err != nil {
		return err
	}

	res, err := m.users.UpdateByID(ctx, oid, bson.M{"$push": bson.M{"views": viewerID}})
	if err != nil {
		return fmt.Errorf("recording profile view: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SuggestFriends returns users who are neither userID itself nor already in
// its friends set, in the store's natural order.
func (m *Mongo) SuggestFriends(ctx context.Context, userID string, limit int64) ([]*users.PublicUser, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":     bson.M{"$ne": oid},
		"friends": bson.M{"$nin": bson.A{oid}},
	}

	cur, err := m.users.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("finding suggestions: %w", err)
	}
	defer cur.Close(ctx)

	var out []*users.PublicUser
	for cur.Next(ctx) {
		var doc userDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toPublic())
	}
	return out, cur.Err()
}
