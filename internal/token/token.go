// Package token owns the lifecycle of emailed one-time credentials: issue a
// random opaque value, persist only its hash, verify and consume it within a
// kind-specific TTL.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/memoriesapp/memories-service/internal/utils/password"
)

const (
	// VerificationTTL bounds how long a freshly registered account may stay
	// unverified before the token, and the account itself, are purged.
	VerificationTTL = time.Hour

	// ResetTTL bounds the window in which a password-reset link is usable.
	ResetTTL = 10 * time.Minute
)

// Store is the slice of the document store the issuer needs.
type Store interface {
	CreateVerification(ctx context.Context, rec *types.TokenRecord) error
	GetVerification(ctx context.Context, userID string) (*types.TokenRecord, error)
	DeleteVerification(ctx context.Context, userID string) error

	CreatePasswordReset(ctx context.Context, rec *types.TokenRecord) error
	GetPasswordResetByUserID(ctx context.Context, userID string) (*types.TokenRecord, error)
	GetPasswordResetByEmail(ctx context.Context, email string) (*types.TokenRecord, error)
	DeletePasswordReset(ctx context.Context, userID string) error

	MarkUserVerified(ctx context.Context, userID string) error
	DeleteUser(ctx context.Context, userID string) error
}

// Issuer creates and verifies pending tokens. The raw token is returned to
// the caller for out-of-band delivery; only its bcrypt hash is retained.
type Issuer struct {
	store Store
	now   func() time.Time
}

func NewIssuer(store Store) *Issuer {
	return &Issuer{store: store, now: time.Now}
}

// newRawToken concatenates the user id with a random uuid, matching the
// shape embedded in emailed links.
func newRawToken(userID string) string {
	return userID + uuid.NewString()
}

// IssueVerification creates a pending email-verification record for the user
// and returns the raw token to embed in the verification link.
func (i *Issuer) IssueVerification(ctx context.Context, userID, email string) (string, error) {
	raw := newRawToken(userID)
	hash, err := password.Hash(raw)
	if err != nil {
		return "", fmt.Errorf("hashing verification token: %w", err)
	}

	now := i.now()
	rec := &types.TokenRecord{
		UserID:    userID,
		Email:     email,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(VerificationTTL),
	}
	if err := i.store.CreateVerification(ctx, rec); err != nil {
		return "", fmt.Errorf("storing verification record: %w", err)
	}
	return raw, nil
}

// VerifyEmail consumes a verification token. On expiry the pending record and
// the still-unverified user are both deleted: registration is not durable
// until verified within the TTL.
func (i *Issuer) VerifyEmail(ctx context.Context, userID, raw string) error {
	rec, err := i.store.GetVerification(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ErrInvalidToken
		}
		return fmt.Errorf("loading verification record: %w", err)
	}

	if rec.Expired(i.now()) {
		if err := i.store.DeleteVerification(ctx, userID); err != nil {
			return fmt.Errorf("deleting expired verification: %w", err)
		}
		if err := i.store.DeleteUser(ctx, userID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("purging unverified user: %w", err)
		}
		return storage.ErrTokenExpired
	}

	if !password.Verify(raw, rec.TokenHash) {
		return storage.ErrInvalidToken
	}

	if err := i.store.MarkUserVerified(ctx, userID); err != nil {
		return fmt.Errorf("marking user verified: %w", err)
	}
	// read and delete are separate round trips; at-most-once use is best effort
	if err := i.store.DeleteVerification(ctx, userID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("consuming verification record: %w", err)
	}
	return nil
}

// IssueReset creates a pending password-reset record. An unexpired record for
// the same email refuses a duplicate with ErrResetPending; an expired one is
// superseded.
func (i *Issuer) IssueReset(ctx context.Context, userID, email string) (string, error) {
	existing, err := i.store.GetPasswordResetByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("checking pending reset: %w", err)
	}
	if existing != nil {
		if !existing.Expired(i.now()) {
			return "", storage.ErrResetPending
		}
		if err := i.store.DeletePasswordReset(ctx, existing.UserID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("superseding expired reset: %w", err)
		}
	}

	raw := newRawToken(userID)
	hash, err := password.Hash(raw)
	if err != nil {
		return "", fmt.Errorf("hashing reset token: %w", err)
	}

	now := i.now()
	rec := &types.TokenRecord{
		UserID:    userID,
		Email:     email,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(ResetTTL),
	}
	if err := i.store.CreatePasswordReset(ctx, rec); err != nil {
		return "", fmt.Errorf("storing reset record: %w", err)
	}
	return raw, nil
}

// CheckReset validates a reset link without consuming it; consumption happens
// in CompleteReset once the password has actually been changed.
func (i *Issuer) CheckReset(ctx context.Context, userID, raw string) error {
	rec, err := i.store.GetPasswordResetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ErrInvalidToken
		}
		return fmt.Errorf("loading reset record: %w", err)
	}

	if rec.Expired(i.now()) {
		if err := i.store.DeletePasswordReset(ctx, userID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("deleting expired reset: %w", err)
		}
		return storage.ErrTokenExpired
	}

	if !password.Verify(raw, rec.TokenHash) {
		return storage.ErrInvalidToken
	}
	return nil
}

// CompleteReset consumes the pending reset record after a successful
// password change.
func (i *Issuer) CompleteReset(ctx context.Context, userID string) error {
	if err := i.store.DeletePasswordReset(ctx, userID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("consuming reset record: %w", err)
	}
	return nil
}
