package model

// EmailNotificationsEnabled is the global switch inside the email preference map.
const EmailNotificationsEnabled = "email_notifications_enabled"

var defaultEmailPreferences = map[NotificationType]bool{
	TypeNewFollower:        true,
	TypePostComment:        true,
	TypePostReaction:       false,
	TypePostTag:            true,
	TypeBookmark:           false,
	TypeJobApplication:     true,
	TypeNewMessage:         true,
	TypePostRepost:         false,
	TypeConnectionRequest:  true,
	TypeConnectionAccepted: true,
}

type ProfilePreferences struct {
	EmailNotifications map[string]bool `json:"email_notifications,omitempty" bson:"email_notifications,omitempty"`
}

// EmailPreferenceKey is the per-type key, e.g. "email_post_comment".
func EmailPreferenceKey(t NotificationType) string {
	return "email_" + string(t)
}

// ShouldSendEmail reports whether both the global flag and the type flag are
// on. Missing keys fall back to the defaults table; the global flag defaults
// to enabled and unknown types to disabled.
func (p ProfilePreferences) ShouldSendEmail(t NotificationType) bool {
	global, ok := p.EmailNotifications[EmailNotificationsEnabled]
	if ok && !global {
		return false
	}
	if enabled, ok := p.EmailNotifications[EmailPreferenceKey(t)]; ok {
		return enabled
	}
	return defaultEmailPreferences[t]
}
