package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
)

// FriendStore is the slice of the document store the friend graph needs.
type FriendStore interface {
	GetFriendRequestBetween(ctx context.Context, from, to string) (*types.FriendRequest, error)
	CreateFriendRequest(ctx context.Context, from, to string) (string, error)
	GetFriendRequestByID(ctx context.Context, id string) (*types.FriendRequest, error)
	UpdateFriendRequestStatus(ctx context.Context, id string, status types.FriendRequestStatus) error
	AddFriend(ctx context.Context, userID, friendID string) error
}

// Graph maintains bidirectional friendship edges through the
// request/accept protocol.
type Graph struct {
	store FriendStore
}

func NewGraph(store FriendStore) *Graph {
	return &Graph{store: store}
}

// Request creates a pending request from -> to. At most one live request may
// exist per unordered pair, so both directions are checked first. Denied
// requests do not block a new one.
func (g *Graph) Request(ctx context.Context, from, to string) (string, error) {
	for _, pair := range [][2]string{{from, to}, {to, from}} {
		existing, err := g.store.GetFriendRequestBetween(ctx, pair[0], pair[1])
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("checking existing request: %w", err)
		}
		if existing != nil && existing.Status != types.RequestDenied {
			return "", storage.ErrDuplicateRequest
		}
	}

	id, err := g.store.CreateFriendRequest(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("creating friend request: %w", err)
	}
	return id, nil
}

// Respond accepts or denies a pending request. Accepting writes the edge on
// both user documents; the two writes are independent round trips, so a crash
// in between leaves an asymmetric friendship with no compensation.
func (g *Graph) Respond(ctx context.Context, requestID string, status types.FriendRequestStatus) (*types.FriendRequest, error) {
	req, err := g.store.GetFriendRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.Status == types.RequestAccepted {
		return nil, storage.ErrAlreadyAccepted
	}

	if err := g.store.UpdateFriendRequestStatus(ctx, requestID, status); err != nil {
		return nil, fmt.Errorf("updating request status: %w", err)
	}

	if status == types.RequestAccepted {
		if err := g.store.AddFriend(ctx, req.RequestTo, req.RequestFrom); err != nil {
			return nil, fmt.Errorf("adding friend edge: %w", err)
		}
		if err := g.store.AddFriend(ctx, req.RequestFrom, req.RequestTo); err != nil {
			return nil, fmt.Errorf("adding reverse friend edge: %w", err)
		}
	}

	req.Status = status
	return req, nil
}
