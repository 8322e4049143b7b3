package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fathima-sithara/notification-service/internal/model"
)

func TestResolveNavigation(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		n    model.Notification
		want model.Navigation
	}{
		{
			name: "new follower goes to actor profile",
			n:    model.Notification{Type: model.TypeNewFollower, ActorID: "u1"},
			want: model.Navigation{URL: "/profile/u1", Type: "profile", TargetID: str("u1")},
		},
		{
			name: "comment goes to post",
			n:    model.Notification{Type: model.TypePostComment, ActorID: "u1", PostID: "p1"},
			want: model.Navigation{URL: "/post/p1", Type: "post", TargetID: str("p1")},
		},
		{
			name: "reaction goes to post",
			n:    model.Notification{Type: model.TypePostReaction, PostID: "p2"},
			want: model.Navigation{URL: "/post/p2", Type: "post", TargetID: str("p2")},
		},
		{
			name: "tag goes to post",
			n:    model.Notification{Type: model.TypePostTag, PostID: "p3"},
			want: model.Navigation{URL: "/post/p3", Type: "post", TargetID: str("p3")},
		},
		{
			name: "repost goes to post",
			n:    model.Notification{Type: model.TypePostRepost, PostID: "p4"},
			want: model.Navigation{URL: "/post/p4", Type: "post", TargetID: str("p4")},
		},
		{
			name: "bookmark goes to post",
			n:    model.Notification{Type: model.TypeBookmark, PostID: "p5"},
			want: model.Navigation{URL: "/post/p5", Type: "post", TargetID: str("p5")},
		},
		{
			name: "job application uses job_post tag",
			n:    model.Notification{Type: model.TypeJobApplication, PostID: "j1"},
			want: model.Navigation{URL: "/post/j1", Type: "job_post", TargetID: str("j1")},
		},
		{
			name: "new message opens conversation",
			n:    model.Notification{Type: model.TypeNewMessage, ActorID: "u9"},
			want: model.Navigation{URL: "/messages/u9", Type: "messages", TargetID: str("u9")},
		},
		{
			name: "connection request",
			n:    model.Notification{Type: model.TypeConnectionRequest, ActorID: "u2"},
			want: model.Navigation{URL: "/connections", Type: "connections", TargetID: str("u2")},
		},
		{
			name: "connection accepted",
			n:    model.Notification{Type: model.TypeConnectionAccepted, ActorID: "u3"},
			want: model.Navigation{URL: "/connections", Type: "connections", TargetID: str("u3")},
		},
		{
			name: "unknown type falls back",
			n:    model.Notification{Type: "system_announcement", ActorID: "u1"},
			want: model.Navigation{URL: "/notifications", Type: "notifications"},
		},
		{
			name: "post type without post falls back",
			n:    model.Notification{Type: model.TypePostComment, ActorID: "u1"},
			want: model.Navigation{URL: "/notifications", Type: "notifications"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveNavigation(&tt.n))
		})
	}
}
