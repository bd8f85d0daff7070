package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventFriendRequested EventType = "friend.requested"
	EventFriendAccepted  EventType = "friend.accepted"
	EventPostLiked       EventType = "post.liked"
	EventPostCommented   EventType = "post.commented"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// FriendRequestedEvent notifies a user of an incoming friend request.
type FriendRequestedEvent struct {
	RequestID   string `json:"request_id"`
	RequestFrom string `json:"request_from"`
}

// FriendAcceptedEvent notifies the original requester that the request was accepted.
type FriendAcceptedEvent struct {
	RequestID  string `json:"request_id"`
	AcceptedBy string `json:"accepted_by"`
}

// PostLikedEvent notifies a post owner of a new like.
type PostLikedEvent struct {
	PostID  string `json:"post_id"`
	LikedBy string `json:"liked_by"`
}

// PostCommentedEvent notifies a post owner of a new comment.
type PostCommentedEvent struct {
	PostID      string `json:"post_id"`
	CommentID   string `json:"comment_id"`
	CommentedBy string `json:"commented_by"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
