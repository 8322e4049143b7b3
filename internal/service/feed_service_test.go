package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fathima-sithara/notification-service/internal/apperr"
	"github.com/fathima-sithara/notification-service/internal/hub"
	"github.com/fathima-sithara/notification-service/internal/model"
)

type capturingChannel struct {
	mu     sync.Mutex
	frames []model.PostFrame
}

func (c *capturingChannel) Send(p []byte) error {
	var f model.PostFrame
	if err := json.Unmarshal(p, &f); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *capturingChannel) Close() error { return nil }

func TestPublishPostFansOut(t *testing.T) {
	logger := zap.NewNop().Sugar()
	h := hub.New(logger, nil)
	author, follower, stranger := &capturingChannel{}, &capturingChannel{}, &capturingChannel{}
	h.Connect("author", author)
	h.Connect("follower", follower)
	h.Connect("stranger", stranger)

	svc := NewFeedService(h, logger)
	out, err := svc.PublishPost(context.Background(), "author", model.PublishPostRequest{
		PostID:      "p1",
		Content:     "hello",
		FollowerIDs: []string{"follower", "offline", "author"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Broadcast)
	assert.Equal(t, map[string]hub.Status{"follower": hub.StatusSent, "offline": hub.StatusQueued}, out.FeedUpdates)

	assert.Empty(t, author.frames)
	require.Len(t, stranger.frames, 1)
	assert.Equal(t, model.FrameNewPost, stranger.frames[0].Type)
	assert.Equal(t, "author", stranger.frames[0].Data.AuthorID)

	require.Len(t, follower.frames, 2)
	assert.Equal(t, model.FrameNewPost, follower.frames[0].Type)
	assert.Equal(t, model.FrameFeedUpdate, follower.frames[1].Type)
	assert.Equal(t, "p1", follower.frames[1].Data.ID)

	assert.Equal(t, 1, h.PendingCount("offline"))
	late := &capturingChannel{}
	h.Connect("offline", late)
	require.Len(t, late.frames, 1)
	assert.Equal(t, model.FrameFeedUpdate, late.frames[0].Type)
}

func TestPublishPostRequiresPostID(t *testing.T) {
	svc := NewFeedService(hub.New(zap.NewNop().Sugar(), nil), zap.NewNop().Sugar())
	_, err := svc.PublishPost(context.Background(), "author", model.PublishPostRequest{Content: "x"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
