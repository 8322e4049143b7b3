package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/apperr"
	"github.com/fathima-sithara/notification-service/internal/hub"
	"github.com/fathima-sithara/notification-service/internal/model"
	"github.com/fathima-sithara/notification-service/internal/utils"
)

// Broadcaster is the fan-out side of the hub.
type Broadcaster interface {
	Registry
	Broadcast(payload any, excludeUserID string) int
}

type FeedOutcome struct {
	// Broadcast is the number of live channels that got the new_post frame.
	Broadcast   int                   `json:"broadcast"`
	FeedUpdates map[string]hub.Status `json:"feed_updates"`
}

// FeedService pushes post events that are not stored as notifications.
type FeedService struct {
	registry Broadcaster
	logger   *zap.SugaredLogger
}

func NewFeedService(registry Broadcaster, logger *zap.SugaredLogger) *FeedService {
	return &FeedService{registry: registry, logger: logger}
}

// PublishPost announces authorID's post to everyone online except the author
// and queues a feed_update for each follower.
func (s *FeedService) PublishPost(_ context.Context, authorID string, req model.PublishPostRequest) (*FeedOutcome, error) {
	if err := utils.Validator().Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	data := model.PostFrameData{
		ID:        req.PostID,
		AuthorID:  authorID,
		Content:   req.Content,
		CreatedAt: utils.FormatTimestamp(utils.Now()),
	}
	out := &FeedOutcome{
		Broadcast:   s.registry.Broadcast(model.PostFrame{Type: model.FrameNewPost, Data: data}, authorID),
		FeedUpdates: make(map[string]hub.Status, len(req.FollowerIDs)),
	}
	update := model.PostFrame{Type: model.FrameFeedUpdate, Data: data}
	for _, id := range req.FollowerIDs {
		if id == authorID {
			continue
		}
		out.FeedUpdates[id] = s.registry.Deliver(id, update)
	}

	s.logger.Infow("post published", "post_id", req.PostID, "author_id", authorID,
		"broadcast", out.Broadcast, "feed_updates", len(out.FeedUpdates))
	return out, nil
}
