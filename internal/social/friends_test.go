package social

import (
	"context"
	"strconv"
	"testing"

	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFriendStore struct {
	requests map[string]*types.FriendRequest
	friends  map[string][]string
	seq      int
}

func newFakeFriendStore() *fakeFriendStore {
	return &fakeFriendStore{
		requests: make(map[string]*types.FriendRequest),
		friends:  make(map[string][]string),
	}
}

func (s *fakeFriendStore) GetFriendRequestBetween(_ context.Context, from, to string) (*types.FriendRequest, error) {
	for _, req := range s.requests {
		if req.RequestFrom == from && req.RequestTo == to {
			return req, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeFriendStore) CreateFriendRequest(_ context.Context, from, to string) (string, error) {
	s.seq++
	id := strconv.Itoa(s.seq)
	s.requests[id] = &types.FriendRequest{ID: id, RequestFrom: from, RequestTo: to, Status: types.RequestPending}
	return id, nil
}

func (s *fakeFriendStore) GetFriendRequestByID(_ context.Context, id string) (*types.FriendRequest, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (s *fakeFriendStore) UpdateFriendRequestStatus(_ context.Context, id string, status types.FriendRequestStatus) error {
	req, ok := s.requests[id]
	if !ok {
		return storage.ErrNotFound
	}
	req.Status = status
	return nil
}

func (s *fakeFriendStore) AddFriend(_ context.Context, userID, friendID string) error {
	for _, f := range s.friends[userID] {
		if f == friendID {
			return nil
		}
	}
	s.friends[userID] = append(s.friends[userID], friendID)
	return nil
}

func TestRequestCreatesPending(t *testing.T) {
	store := newFakeFriendStore()
	graph := NewGraph(store)

	id, err := graph.Request(context.Background(), "A", "B")
	require.NoError(t, err)

	req, err := store.GetFriendRequestByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.RequestPending, req.Status)
	assert.Equal(t, "A", req.RequestFrom)
	assert.Equal(t, "B", req.RequestTo)
}

func TestRequestDuplicateSameDirection(t *testing.T) {
	store := newFakeFriendStore()
	graph := NewGraph(store)

	_, err := graph.Request(context.Background(), "A", "B")
	require.NoError(t, err)

	_, err = graph.Request(context.Background(), "A", "B")
	assert.ErrorIs(t, err, storage.ErrDuplicateRequest)
}

func TestRequestDuplicateReverseDirection(t *testing.T) {
	store := newFakeFriendStore()
	graph := NewGraph(store)

	_, err := graph.Request(context.Background(), "A", "B")
	require.NoError(t, err)

	_, err = graph.Request(context.Background(), "B", "A")
	assert.ErrorIs(t, err, storage.ErrDuplicateRequest)
}

func TestRequestAfterDenialIsAllowed(t *testing.T) {
	store := newFakeFriendStore()
	graph := NewGraph(store)

	id, err := graph.Request(context.Background(), "A", "B")
	require.NoError(t, err)

	_, err = graph.Respond(context.Background(), id, types.RequestDenied)
	require.NoError(t, err)

	// denied requests do not block resubmission
	_, err = graph.Request(context.Background(), "A", "B")
	assert.NoError(t, err)
}

func TestAcceptIsSymmetric(t *testing.T) {
	store := newFakeFriendStore()
	graph := NewGraph(store)

	id, err := graph.Request(context.Background(), "A", "B")
	require.NoError(t, err)

	req, err := graph.Respond(context.Background(), id, types.RequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, types.RequestAccepted, req.Status)

	assert.Contains(t, store.friends["A"], "B")
	assert.Contains(t, store.friends["B"], "A")
}

func TestReacceptReturnsAlreadyAccepted(t *testing.T) {
	store := newFakeFriendStore()
	graph := NewGraph(store)

	id, err := graph.Request(context.Background(), "A", "B")
	require.NoError(t, err)

	_, err = graph.Respond(context.Background(), id, types.RequestAccepted)
	require.NoError(t, err)

	_, err = graph.Respond(context.Background(), id, types.RequestAccepted)
	assert.ErrorIs(t, err, storage.ErrAlreadyAccepted)

	// the edge is not duplicated
	assert.Equal(t, []string{"B"}, store.friends["A"])
	assert.Equal(t, []string{"A"}, store.friends["B"])
}

func TestDenyDoesNotMutateGraph(t *testing.T) {
	store := newFakeFriendStore()
	graph := NewGraph(store)

	id, err := graph.Request(context.Background(), "A", "B")
	require.NoError(t, err)

	req, err := graph.Respond(context.Background(), id, types.RequestDenied)
	require.NoError(t, err)
	assert.Equal(t, types.RequestDenied, req.Status)

	assert.Empty(t, store.friends["A"])
	assert.Empty(t, store.friends["B"])
}

func TestRespondUnknownRequest(t *testing.T) {
	graph := NewGraph(newFakeFriendStore())

	_, err := graph.Respond(context.Background(), "missing", types.RequestAccepted)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
