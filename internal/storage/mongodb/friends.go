package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/memoriesapp/memories-service/internal/types/users"
)

type friendRequestDoc struct {
	ID          primitive.ObjectID        `bson:"_id,omitempty"`
	RequestFrom primitive.ObjectID        `bson:"requestFrom"`
	RequestTo   primitive.ObjectID        `bson:"requestTo"`
	Status      types.FriendRequestStatus `bson:"requestStatus"`
	CreatedAt   time.Time                 `bson:"createdAt"`
}

func (d *friendRequestDoc) toRequest() *types.FriendRequest {
	return &types.FriendRequest{
		ID:          d.ID.Hex(),
		RequestFrom: d.RequestFrom.Hex(),
		RequestTo:   d.RequestTo.Hex(),
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
	}
}

func (m *Mongo) CreateFriendRequest(ctx context.Context, from, to string) (string, error) {
	fromID, err := objectID(from)
	if err != nil {
		return "", err
	}
	toID, err := objectID(to)
	if err != nil {
		return "", err
	}

	res, err := m.friendRequests.InsertOne(ctx, friendRequestDoc{
		RequestFrom: fromID,
		RequestTo:   toID,
		Status:      types.RequestPending,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("inserting friend request: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetFriendRequestBetween finds a live request in the given direction.
// Denied records are excluded: they do not block a fresh request.
func (m *Mongo) GetFriendRequestBetween(ctx context.Context, from, to string) (*types.FriendRequest, error) {
	fromID, err := objectID(from)
	if err != nil {
		return nil, err
	}
	toID, err := objectID(to)
	if err != nil {
		return nil, err
	}

	var doc friendRequestDoc
	err = m.friendRequests.FindOne(ctx, bson.M{
		"requestFrom":   fromID,
		"requestTo":     toID,
		"requestStatus": bson.M{"$ne": types.RequestDenied},
	}).Decode(&doc)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return doc.toRequest(), nil
}

func (m *Mongo) GetFriendRequestByID(ctx context.Context, id string) (*types.FriendRequest, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc friendRequestDoc
	if err := m.friendRequests.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapNotFound(err)
	}
	return doc.toRequest(), nil
}

func (m *Mongo) UpdateFriendRequestStatus(ctx context.Context, id string, status types.FriendRequestStatus) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := m.friendRequests.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"requestStatus": status}})
	if err != nil {
		return fmt.Errorf("updating request status: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListPendingRequests returns requests addressed to the user, newest first,
// with the requester's public profile attached.
func (m *Mongo) ListPendingRequests(ctx context.Context, userID string, limit int64) ([]*types.FriendRequest, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(limit)
	cur, err := m.friendRequests.Find(ctx, bson.M{
		"requestTo":     oid,
		"requestStatus": types.RequestPending,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	defer cur.Close(ctx)

	var requests []*types.FriendRequest
	var fromIDs []string
	for cur.Next(ctx) {
		var doc friendRequestDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		req := doc.toRequest()
		requests = append(requests, req)
		fromIDs = append(fromIDs, req.RequestFrom)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	profiles, err := m.GetUserProfiles(ctx, fromIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*users.PublicUser, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	for _, req := range requests {
		req.From = byID[req.RequestFrom]
	}
	return requests, nil
}
