package model

// EmailContext is everything the email side effect needs to render one message.
type EmailContext struct {
	NotificationID string
	Type           NotificationType
	ToEmail        string
	RecipientName  string
	ActorName      string
	Message        string
	PostPreview    string
	Link           string
}
