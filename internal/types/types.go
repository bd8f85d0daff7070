package types

import (
	"time"

	"github.com/memoriesapp/memories-service/internal/types/users"
)

type FriendRequestStatus string

const (
	RequestPending  FriendRequestStatus = "Pending"
	RequestAccepted FriendRequestStatus = "Accepted"
	RequestDenied   FriendRequestStatus = "Denied"
)

// FriendRequest is a directed request between two users. At most one
// non-denied request may exist per unordered pair.
type FriendRequest struct {
	ID          string              `json:"id"`
	RequestFrom string              `json:"requestFrom"`
	RequestTo   string              `json:"requestTo"`
	Status      FriendRequestStatus `json:"requestStatus"`
	CreatedAt   time.Time           `json:"created_at"`

	// From carries the requester's public profile when the record is
	// rendered in a pending-request listing.
	From *users.PublicUser `json:"from,omitempty"`
}

// Post is a feed entry. Likes is a set of user ids persisted as an ordered
// list; Comments holds comment ids in insertion order.
type Post struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
	Likes       []string  `json:"likes"`
	Comments    []string  `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`

	// Author is populated in responses only, never stored.
	Author *users.PublicUser `json:"user,omitempty"`
}

// Reply is an embedded answer to a comment.
type Reply struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	From      string    `json:"from"`
	ReplyAt   string    `json:"replyAt"`
	Comment   string    `json:"comment"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"created_at"`

	Author *users.PublicUser `json:"user,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	From      string    `json:"from"`
	Comment   string    `json:"comment"`
	Likes     []string  `json:"likes"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"created_at"`

	Author *users.PublicUser `json:"user,omitempty"`
}

// TokenRecord is a pending email-verification or password-reset credential.
// Only the bcrypt hash of the emailed token is stored.
type TokenRecord struct {
	UserID    string
	Email     string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record's TTL has elapsed at the given instant.
func (r *TokenRecord) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}

type CreatePostRequest struct {
	Description string `json:"description" validate:"required"`
	Image       string `json:"image"`
}

type CommentRequest struct {
	Comment string `json:"comment" validate:"required"`
	From    string `json:"from" validate:"required"`
}

type ReplyRequest struct {
	Comment string `json:"comment" validate:"required"`
	From    string `json:"from" validate:"required"`
	ReplyAt string `json:"replyAt" validate:"required"`
}

type FriendRequestRequest struct {
	RequestTo string `json:"requestTo" validate:"required"`
}

type RespondRequestRequest struct {
	RequestID string              `json:"rid" validate:"required"`
	Status    FriendRequestStatus `json:"status" validate:"required,oneof=Accepted Denied"`
}
