package storage

import (
	"context"
	"errors"
	"time"

	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/memoriesapp/memories-service/internal/types/users"
)

// Domain errors surfaced by Storage implementations and the core packages
// built on top of them. Handlers map these onto HTTP statuses.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateEmail     = errors.New("email address already exists")
	ErrDuplicateRequest   = errors.New("friend request already sent")
	ErrAlreadyAccepted    = errors.New("friend request has already been accepted")
	ErrInvalidToken       = errors.New("invalid or unknown token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrResetPending       = errors.New("a reset link has already been sent")
	ErrNotVerified        = errors.New("email is not verified")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Storage is the document-store contract the handlers depend on. The mongodb
// package is the production implementation; the memory package backs tests.
type Storage interface {
	// Users
	CreateUser(ctx context.Context, u *users.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
	GetUserByID(ctx context.Context, id string) (*users.User, error)
	GetUserProfiles(ctx context.Context, ids []string) ([]*users.PublicUser, error)
	UpdateUser(ctx context.Context, id string, upd users.UpdateProfileRequest) (*users.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	MarkUserVerified(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
	AddFriend(ctx context.Context, userID, friendID string) error
	AddProfileView(ctx context.Context, targetID, viewerID string) error
	SuggestFriends(ctx context.Context, userID string, limit int64) ([]*users.PublicUser, error)

	// Friend requests
	CreateFriendRequest(ctx context.Context, from, to string) (string, error)
	GetFriendRequestBetween(ctx context.Context, from, to string) (*types.FriendRequest, error)
	GetFriendRequestByID(ctx context.Context, id string) (*types.FriendRequest, error)
	UpdateFriendRequestStatus(ctx context.Context, id string, status types.FriendRequestStatus) error
	ListPendingRequests(ctx context.Context, userID string, limit int64) ([]*types.FriendRequest, error)

	// Email verification tokens
	CreateVerification(ctx context.Context, rec *types.TokenRecord) error
	GetVerification(ctx context.Context, userID string) (*types.TokenRecord, error)
	DeleteVerification(ctx context.Context, userID string) error

	// Password reset tokens
	CreatePasswordReset(ctx context.Context, rec *types.TokenRecord) error
	GetPasswordResetByUserID(ctx context.Context, userID string) (*types.TokenRecord, error)
	GetPasswordResetByEmail(ctx context.Context, email string) (*types.TokenRecord, error)
	DeletePasswordReset(ctx context.Context, userID string) error

	// Token cleanup, used by the background worker
	ListExpiredVerifications(ctx context.Context, now time.Time) ([]*types.TokenRecord, error)
	DeleteExpiredResets(ctx context.Context, now time.Time) (int64, error)

	// Posts
	CreatePost(ctx context.Context, p *types.Post) (string, error)
	GetPosts(ctx context.Context, search string) ([]*types.Post, error)
	GetPostByID(ctx context.Context, id string) (*types.Post, error)
	GetUserPosts(ctx context.Context, userID string) ([]*types.Post, error)
	DeletePost(ctx context.Context, id string) error
	UpdatePostLikes(ctx context.Context, id string, likes []string) error
	AddPostComment(ctx context.Context, postID, commentID string) error

	// Comments
	CreateComment(ctx context.Context, c *types.Comment) (string, error)
	GetCommentByID(ctx context.Context, id string) (*types.Comment, error)
	GetPostComments(ctx context.Context, postID string) ([]*types.Comment, error)
	UpdateCommentLikes(ctx context.Context, id string, likes []string) error
	AddReply(ctx context.Context, commentID string, r types.Reply) error
	UpdateReplyLikes(ctx context.Context, commentID, replyID string, likes []string) error
}
