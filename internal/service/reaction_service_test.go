package service

import (
	"context"
	"testing"

	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/store"
	"bakatter.app/server/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReactionTarget(t *testing.T) (*store.PostStore, *model.Post, model.Comment) {
	t.Helper()
	ctx := context.Background()

	posts := store.NewPostStore(newMemPostRepo(), nil)
	id, _ := uuid.NewV7()
	post := &model.Post{ID: id, Text: "target", LikedBy: model.UserIDSet{}, LaughedBy: model.UserIDSet{}}
	posts.AddPost(ctx, post)

	cid, _ := uuid.NewV7()
	comment := model.Comment{ID: cid, PostID: post.ID, Text: "nested"}
	require.NoError(t, posts.InsertComment(ctx, post.ID, nil, comment))

	return posts, post, comment
}

func TestReactionService_Toggle(t *testing.T) {
	ctx := context.Background()

	t.Run("toggle pair restores the original membership", func(t *testing.T) {
		posts, post, _ := seedReactionTarget(t)
		svc := NewReactionService(posts)

		members, applied, err := svc.Toggle(ctx, "viewer-1", post.ID, model.ReactionLiked)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, model.UserIDSet{"viewer-1"}, members)

		members, applied, err = svc.Toggle(ctx, "viewer-1", post.ID, model.ReactionLiked)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Empty(t, members)
	})

	t.Run("toggles a comment reaction", func(t *testing.T) {
		posts, post, comment := seedReactionTarget(t)
		svc := NewReactionService(posts)

		members, applied, err := svc.Toggle(ctx, "viewer-2", comment.ID, model.ReactionLaughed)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, model.UserIDSet{"viewer-2"}, members)

		stored, err := posts.GetPost(post.ID)
		require.NoError(t, err)
		assert.Equal(t, model.UserIDSet{"viewer-2"}, stored.Replies[0].LaughedBy)
	})

	t.Run("distinct kinds do not interfere", func(t *testing.T) {
		posts, post, _ := seedReactionTarget(t)
		svc := NewReactionService(posts)

		_, _, err := svc.Toggle(ctx, "viewer-1", post.ID, model.ReactionLiked)
		require.NoError(t, err)
		_, _, err = svc.Toggle(ctx, "viewer-1", post.ID, model.ReactionLaughed)
		require.NoError(t, err)

		stored, err := posts.GetPost(post.ID)
		require.NoError(t, err)
		assert.Equal(t, model.UserIDSet{"viewer-1"}, stored.LikedBy)
		assert.Equal(t, model.UserIDSet{"viewer-1"}, stored.LaughedBy)
	})

	t.Run("unknown target", func(t *testing.T) {
		posts, _, _ := seedReactionTarget(t)
		svc := NewReactionService(posts)

		_, applied, err := svc.Toggle(ctx, "viewer-1", uuid.New(), model.ReactionLiked)
		assert.ErrorIs(t, err, apperror.ErrTargetNotFound)
		assert.False(t, applied)
	})

	t.Run("in-flight toggle is ignored and answers the cached membership", func(t *testing.T) {
		posts, post, _ := seedReactionTarget(t)
		svc := NewReactionService(posts).(*reactionService)

		key := post.ID.String() + ":" + string(model.ReactionLiked)
		svc.mu.Lock()
		svc.inflight[key] = struct{}{}
		svc.lastKnown[key] = model.UserIDSet{"someone-else"}
		svc.mu.Unlock()

		members, applied, err := svc.Toggle(ctx, "viewer-1", post.ID, model.ReactionLiked)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, model.UserIDSet{"someone-else"}, members)

		stored, err := posts.GetPost(post.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.LikedBy, "guarded toggle never reaches the store")
	})
}
