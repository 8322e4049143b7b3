package model

import "time"

type NotificationType string

const (
	TypeNewFollower        NotificationType = "new_follower"
	TypePostComment        NotificationType = "post_comment"
	TypePostReaction       NotificationType = "post_reaction"
	TypePostTag            NotificationType = "post_tag"
	TypeBookmark           NotificationType = "bookmark"
	TypeJobApplication     NotificationType = "job_application"
	TypeNewMessage         NotificationType = "new_message"
	TypePostRepost         NotificationType = "post_repost"
	TypeConnectionRequest  NotificationType = "connection_request"
	TypeConnectionAccepted NotificationType = "connection_accepted"
)

// NotificationTypes lists every known type in declaration order.
var NotificationTypes = []NotificationType{
	TypeNewFollower,
	TypePostComment,
	TypePostReaction,
	TypePostTag,
	TypeBookmark,
	TypeJobApplication,
	TypeNewMessage,
	TypePostRepost,
	TypeConnectionRequest,
	TypeConnectionAccepted,
}

func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Notification is the persisted record. Only IsRead changes after creation,
// and only from false to true.
type Notification struct {
	ID          string           `json:"id" bson:"_id"`
	RecipientID string           `json:"recipient_id" bson:"recipient_id"`
	ActorID     string           `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	Type        NotificationType `json:"type" bson:"type"`
	Message     string           `json:"message" bson:"message"`
	IsRead      bool             `json:"is_read" bson:"is_read"`
	PostID      string           `json:"post_id,omitempty" bson:"post_id,omitempty"`
	CommentID   string           `json:"comment_id,omitempty" bson:"comment_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
}

// ReferenceID is the deep-link reference sent to clients: the post when
// there is one, otherwise the actor.
func (n *Notification) ReferenceID() *string {
	switch {
	case n.PostID != "":
		return Nullable(n.PostID)
	case n.ActorID != "":
		return Nullable(n.ActorID)
	}
	return nil
}

// CreateNotificationRequest is the only accepted input of the creation
// pipeline.
type CreateNotificationRequest struct {
	RecipientID string           `json:"recipient_id" validate:"required"`
	ActorID     string           `json:"actor_id,omitempty"`
	Type        NotificationType `json:"type" validate:"required,oneof=new_follower post_comment post_reaction post_tag bookmark job_application new_message post_repost connection_request connection_accepted"`
	Message     string           `json:"message" validate:"required,max=1000"`
	PostID      string           `json:"post_id,omitempty"`
	CommentID   string           `json:"comment_id,omitempty"`
}

// Nullable maps "" to a JSON null.
func Nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
