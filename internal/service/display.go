package service

import (
	"hash/fnv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fathima-sithara/notification-service/internal/model"
)

var avatarPalette = []string{
	"#F87171", "#FB923C", "#FBBF24", "#34D399",
	"#22D3EE", "#60A5FA", "#A78BFA", "#F472B6",
}

const DefaultPreviewLength = 100

// Avatar builds the fallback avatar shown when a user has no image.
func Avatar(userID, fullName string) model.AvatarData {
	return model.AvatarData{
		Initials: initials(fullName),
		Color:    avatarColor(userID),
	}
}

func initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

func avatarColor(userID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return avatarPalette[h.Sum32()%uint32(len(avatarPalette))]
}

// Preview truncates content to max runes, appending "..." when cut.
func Preview(content string, max int) string {
	if max <= 0 {
		max = DefaultPreviewLength
	}
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= max {
		return content
	}
	runes := []rune(content)
	return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace) + "..."
}

func actorView(u *model.User) *model.NotificationActor {
	if u == nil {
		return nil
	}
	return &model.NotificationActor{
		ID:        u.ID,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		Avatar:    Avatar(u.ID, u.FullName),
	}
}

func postView(p *model.Post, previewLength int) *model.NotificationPost {
	if p == nil {
		return nil
	}
	return &model.NotificationPost{ID: p.ID, Content: Preview(p.Content, previewLength)}
}
