package events

import (
	"github.com/memoriesapp/memories-service/internal/types"
)

// Publisher interface for publishing events
type Publisher interface {
	PublishFriendRequested(requestID, fromID, toID string) error
	PublishFriendAccepted(requestID, acceptedBy, requesterID string) error
	PublishPostLiked(postID, likedBy, authorID string) error
	PublishPostCommented(postID, commentID, commentedBy, authorID string) error
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	BroadcastToUsers(userIDs []string, event *types.Event)
	IsUserConnected(userID string) bool
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishFriendRequested notifies the recipient of a new friend request
func (p *EventPublisher) PublishFriendRequested(requestID, fromID, toID string) error {
	if !p.hub.IsUserConnected(toID) {
		return nil
	}

	event := types.NewEvent(types.EventFriendRequested, &types.FriendRequestedEvent{
		RequestID:   requestID,
		RequestFrom: fromID,
	})
	p.hub.BroadcastToUser(toID, event)

	return nil
}

// PublishFriendAccepted notifies the original requester that the request was accepted
func (p *EventPublisher) PublishFriendAccepted(requestID, acceptedBy, requesterID string) error {
	if !p.hub.IsUserConnected(requesterID) {
		return nil
	}

	event := types.NewEvent(types.EventFriendAccepted, &types.FriendAcceptedEvent{
		RequestID:  requestID,
		AcceptedBy: acceptedBy,
	})
	p.hub.BroadcastToUser(requesterID, event)

	return nil
}

// PublishPostLiked notifies a post author of a new like
func (p *EventPublisher) PublishPostLiked(postID, likedBy, authorID string) error {
	// Don't send notification if the author liked their own post
	if likedBy == authorID {
		return nil
	}

	if !p.hub.IsUserConnected(authorID) {
		return nil
	}

	event := types.NewEvent(types.EventPostLiked, &types.PostLikedEvent{
		PostID:  postID,
		LikedBy: likedBy,
	})
	p.hub.BroadcastToUser(authorID, event)

	return nil
}

// PublishPostCommented notifies a post author of a new comment
func (p *EventPublisher) PublishPostCommented(postID, commentID, commentedBy, authorID string) error {
	if commentedBy == authorID {
		return nil
	}

	if !p.hub.IsUserConnected(authorID) {
		return nil
	}

	event := types.NewEvent(types.EventPostCommented, &types.PostCommentedEvent{
		PostID:      postID,
		CommentID:   commentID,
		CommentedBy: commentedBy,
	})
	p.hub.BroadcastToUser(authorID, event)

	return nil
}
