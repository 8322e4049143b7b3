package service

import "github.com/fathima-sithara/notification-service/internal/model"

const (
	fallbackURL        = "/notifications"
	fallbackTargetType = "notifications"
)

type navRule struct {
	target     string // "actor" or "post"
	targetType string
	url        func(id string) string
}

var navRules = map[model.NotificationType]navRule{
	model.TypeNewFollower:        {"actor", "profile", func(id string) string { return "/profile/" + id }},
	model.TypePostComment:        {"post", "post", postURL},
	model.TypePostReaction:       {"post", "post", postURL},
	model.TypePostTag:            {"post", "post", postURL},
	model.TypePostRepost:         {"post", "post", postURL},
	model.TypeBookmark:           {"post", "post", postURL},
	model.TypeJobApplication:     {"post", "job_post", postURL},
	model.TypeNewMessage:         {"actor", "messages", func(id string) string { return "/messages/" + id }},
	model.TypeConnectionRequest:  {"actor", "connections", func(string) string { return "/connections" }},
	model.TypeConnectionAccepted: {"actor", "connections", func(string) string { return "/connections" }},
}

func postURL(id string) string { return "/post/" + id }

// ResolveNavigation maps a notification to its client-side route. Unknown
// types and notifications missing the id their route needs fall back to the
// notifications page.
func ResolveNavigation(n *model.Notification) model.Navigation {
	rule, ok := navRules[n.Type]
	if !ok {
		return fallbackNavigation()
	}
	id := n.ActorID
	if rule.target == "post" {
		id = n.PostID
	}
	if id == "" {
		return fallbackNavigation()
	}
	return model.Navigation{URL: rule.url(id), Type: rule.targetType, TargetID: model.Nullable(id)}
}

func fallbackNavigation() model.Navigation {
	return model.Navigation{URL: fallbackURL, Type: fallbackTargetType}
}
