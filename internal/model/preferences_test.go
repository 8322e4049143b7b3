package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldSendEmailDefaults(t *testing.T) {
	var p ProfilePreferences
	enabled := []NotificationType{TypeNewFollower, TypePostComment, TypeConnectionRequest, TypeConnectionAccepted, TypeNewMessage, TypePostTag, TypeJobApplication}
	disabled := []NotificationType{TypePostReaction, TypeBookmark, TypePostRepost}

	for _, typ := range enabled {
		assert.True(t, p.ShouldSendEmail(typ), typ)
	}
	for _, typ := range disabled {
		assert.False(t, p.ShouldSendEmail(typ), typ)
	}
	assert.False(t, p.ShouldSendEmail("unknown"))
}

func TestShouldSendEmailGlobalFlagWins(t *testing.T) {
	p := ProfilePreferences{EmailNotifications: map[string]bool{
		EmailNotificationsEnabled: false,
		"email_post_comment":      true,
	}}
	assert.False(t, p.ShouldSendEmail(TypePostComment))
}

func TestShouldSendEmailTypeOverride(t *testing.T) {
	p := ProfilePreferences{EmailNotifications: map[string]bool{
		"email_post_reaction": true,
		"email_new_follower":  false,
	}}
	assert.True(t, p.ShouldSendEmail(TypePostReaction))
	assert.False(t, p.ShouldSendEmail(TypeNewFollower))
}

func TestNotificationTypeValid(t *testing.T) {
	for _, typ := range NotificationTypes {
		assert.True(t, typ.Valid())
	}
	assert.False(t, NotificationType("poke").Valid())
}

func TestReferenceID(t *testing.T) {
	n := Notification{ActorID: "u1", PostID: "p1"}
	assert.Equal(t, "p1", *n.ReferenceID())

	n = Notification{ActorID: "u1"}
	assert.Equal(t, "u1", *n.ReferenceID())

	n = Notification{}
	assert.Nil(t, n.ReferenceID())
}
