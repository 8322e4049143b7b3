package model

type AvatarData struct {
	Initials string `json:"initials"`
	Color    string `json:"color"`
}

type NotificationActor struct {
	ID        string     `json:"id"`
	FullName  string     `json:"full_name,omitempty"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	Avatar    AvatarData `json:"avatar"`
}

type NotificationPost struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// NotificationView is a notification denormalized for list responses.
type NotificationView struct {
	ID          string             `json:"id"`
	Type        NotificationType   `json:"type"`
	Message     string             `json:"message"`
	IsRead      bool               `json:"is_read"`
	CreatedAt   string             `json:"created_at"`
	Actor       *NotificationActor `json:"actor"`
	Post        *NotificationPost  `json:"post"`
	ReferenceID *string            `json:"reference_id"`
}

// Navigation is the client-side routing target of a notification.
type Navigation struct {
	URL      string  `json:"url"`
	Type     string  `json:"type"`
	TargetID *string `json:"target_id"`
}
