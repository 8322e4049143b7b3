package model

const (
	FrameNotification = "notification"
	FrameUnreadCount  = "unread_count_update"

	ChangeIncrement = "+1"
	ChangeDecrement = "-1"
)

// NotificationFrame is pushed over the live channel when a notification is created.
type NotificationFrame struct {
	Type string                `json:"type"`
	Data NotificationFrameData `json:"data"`
}

type NotificationFrameData struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	IsRead      bool    `json:"is_read"`
	CreatedAt   string  `json:"created_at"`
	ActorID     *string `json:"actor_id"`
	ReferenceID *string `json:"reference_id"`
}

// UnreadCountFrame carries the recomputed counter and the delta that produced it.
type UnreadCountFrame struct {
	Type   string `json:"type"`
	Count  int64  `json:"count"`
	Change string `json:"change"`
}

const (
	FrameNewPost    = "new_post"
	FrameFeedUpdate = "feed_update"
)

// PostFrame announces a post, either to everyone online (new_post) or to one
// follower's feed (feed_update).
type PostFrame struct {
	Type string        `json:"type"`
	Data PostFrameData `json:"data"`
}

type PostFrameData struct {
	ID        string `json:"id"`
	AuthorID  string `json:"author_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// PublishPostRequest is sent by the post's author. FollowerIDs receive a
// feed_update that is queued while they are offline.
type PublishPostRequest struct {
	PostID      string   `json:"post_id" validate:"required"`
	Content     string   `json:"content" validate:"max=5000"`
	FollowerIDs []string `json:"follower_ids" validate:"max=1000,dive,required"`
}
