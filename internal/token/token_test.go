package token

import (
	"context"
	"testing"
	"time"

	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenStore struct {
	verifications map[string]*types.TokenRecord
	resets        map[string]*types.TokenRecord
	users         map[string]bool // id -> verified
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		verifications: make(map[string]*types.TokenRecord),
		resets:        make(map[string]*types.TokenRecord),
		users:         make(map[string]bool),
	}
}

func (s *fakeTokenStore) CreateVerification(_ context.Context, rec *types.TokenRecord) error {
	s.verifications[rec.UserID] = rec
	return nil
}

func (s *fakeTokenStore) GetVerification(_ context.Context, userID string) (*types.TokenRecord, error) {
	rec, ok := s.verifications[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec, nil
}

func (s *fakeTokenStore) DeleteVerification(_ context.Context, userID string) error {
	if _, ok := s.verifications[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.verifications, userID)
	return nil
}

func (s *fakeTokenStore) CreatePasswordReset(_ context.Context, rec *types.TokenRecord) error {
	s.resets[rec.UserID] = rec
	return nil
}

func (s *fakeTokenStore) GetPasswordResetByUserID(_ context.Context, userID string) (*types.TokenRecord, error) {
	rec, ok := s.resets[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec, nil
}

func (s *fakeTokenStore) GetPasswordResetByEmail(_ context.Context, email string) (*types.TokenRecord, error) {
	for _, rec := range s.resets {
		if rec.Email == email {
			return rec, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeTokenStore) DeletePasswordReset(_ context.Context, userID string) error {
	if _, ok := s.resets[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.resets, userID)
	return nil
}

func (s *fakeTokenStore) MarkUserVerified(_ context.Context, userID string) error {
	if _, ok := s.users[userID]; !ok {
		return storage.ErrNotFound
	}
	s.users[userID] = true
	return nil
}

func (s *fakeTokenStore) DeleteUser(_ context.Context, userID string) error {
	if _, ok := s.users[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

func newTestIssuer(store Store) *Issuer {
	return NewIssuer(store)
}

func TestVerificationRoundTrip(t *testing.T) {
	store := newFakeTokenStore()
	store.users["u1"] = false
	issuer := newTestIssuer(store)
	ctx := context.Background()

	raw, err := issuer.IssueVerification(ctx, "u1", "u1@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	// only the hash is retained
	rec := store.verifications["u1"]
	require.NotNil(t, rec)
	assert.NotEqual(t, raw, rec.TokenHash)

	require.NoError(t, issuer.VerifyEmail(ctx, "u1", raw))
	assert.True(t, store.users["u1"])

	// token is consumed: a second attempt fails
	err = issuer.VerifyEmail(ctx, "u1", raw)
	assert.ErrorIs(t, err, storage.ErrInvalidToken)
}

func TestVerificationWrongToken(t *testing.T) {
	store := newFakeTokenStore()
	store.users["u1"] = false
	issuer := newTestIssuer(store)
	ctx := context.Background()

	_, err := issuer.IssueVerification(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	err = issuer.VerifyEmail(ctx, "u1", "u1-guessed-token")
	assert.ErrorIs(t, err, storage.ErrInvalidToken)
	assert.False(t, store.users["u1"])
}

func TestVerificationExpiryPurgesUser(t *testing.T) {
	store := newFakeTokenStore()
	store.users["u1"] = false
	issuer := newTestIssuer(store)
	ctx := context.Background()

	raw, err := issuer.IssueVerification(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(VerificationTTL + time.Minute) }

	err = issuer.VerifyEmail(ctx, "u1", raw)
	assert.ErrorIs(t, err, storage.ErrTokenExpired)

	// the pending record and the unverified account are both gone
	_, ok := store.verifications["u1"]
	assert.False(t, ok)
	_, ok = store.users["u1"]
	assert.False(t, ok)
}

func TestResetRoundTrip(t *testing.T) {
	store := newFakeTokenStore()
	issuer := newTestIssuer(store)
	ctx := context.Background()

	raw, err := issuer.IssueReset(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	require.NoError(t, issuer.CheckReset(ctx, "u1", raw))
	// checking does not consume
	require.NoError(t, issuer.CheckReset(ctx, "u1", raw))

	require.NoError(t, issuer.CompleteReset(ctx, "u1"))
	err = issuer.CheckReset(ctx, "u1", raw)
	assert.ErrorIs(t, err, storage.ErrInvalidToken)
}

func TestResetDedupWhilePending(t *testing.T) {
	store := newFakeTokenStore()
	issuer := newTestIssuer(store)
	ctx := context.Background()

	_, err := issuer.IssueReset(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	_, err = issuer.IssueReset(ctx, "u1", "u1@example.com")
	assert.ErrorIs(t, err, storage.ErrResetPending)
}

func TestResetExpiredRecordIsSuperseded(t *testing.T) {
	store := newFakeTokenStore()
	issuer := newTestIssuer(store)
	ctx := context.Background()

	first, err := issuer.IssueReset(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(ResetTTL + time.Minute) }

	second, err := issuer.IssueReset(ctx, "u1", "u1@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// the fresh token validates, at its own new expiry
	issuer.now = time.Now
	require.NoError(t, issuer.CheckReset(ctx, "u1", second))
}

func TestResetExpiredOnCheck(t *testing.T) {
	store := newFakeTokenStore()
	issuer := newTestIssuer(store)
	ctx := context.Background()

	raw, err := issuer.IssueReset(ctx, "u1", "u1@example.com")
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(ResetTTL + time.Minute) }

	err = issuer.CheckReset(ctx, "u1", raw)
	assert.ErrorIs(t, err, storage.ErrTokenExpired)

	_, ok := store.resets["u1"]
	assert.False(t, ok)
}
