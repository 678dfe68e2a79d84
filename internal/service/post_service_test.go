package service

import (
	"context"
	"testing"
	"time"

	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/store"
	"bakatter.app/server/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFeed(t *testing.T) (*store.PostStore, *model.User, []*model.Post) {
	t.Helper()
	ctx := context.Background()

	author := testUser()
	posts := store.NewPostStore(newMemPostRepo(), nil)

	var created []*model.Post
	for i, category := range []string{"ゲーム", "ゲーム", "雑談なんでも"} {
		id, _ := uuid.NewV7()
		p := &model.Post{
			ID:        id,
			Author:    author.Snapshot(),
			Text:      "post",
			Category:  category,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		posts.AddPost(ctx, p)
		created = append(created, p)
	}
	return posts, author, created
}

func TestPostService_Feed(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		posts, _, created := seedFeed(t)
		svc := NewPostService(posts, nil)

		feed := svc.Feed("", nil)
		require.Len(t, feed, 3)
		assert.Equal(t, created[2].ID, feed[0].ID)
		assert.Equal(t, created[0].ID, feed[2].ID)
	})

	t.Run("category filter", func(t *testing.T) {
		posts, _, _ := seedFeed(t)
		svc := NewPostService(posts, nil)

		feed := svc.Feed("ゲーム", nil)
		require.Len(t, feed, 2)
		for _, p := range feed {
			assert.Equal(t, "ゲーム", p.Category)
		}
	})

	t.Run("viewer sees their current profile on their own posts", func(t *testing.T) {
		posts, author, _ := seedFeed(t)
		svc := NewPostService(posts, nil)

		author.Username = "renamed"
		author.Avatar = "🐼"

		feed := svc.Feed("", author)
		require.NotEmpty(t, feed)
		assert.Equal(t, "renamed", feed[0].Author.Name)
		assert.Equal(t, "🐼", feed[0].Author.Avatar)
	})

	t.Run("stored snapshot survives a viewer read", func(t *testing.T) {
		posts, author, created := seedFeed(t)
		svc := NewPostService(posts, nil)

		author.Username = "renamed"
		_ = svc.Feed("", author)

		stored, err := posts.GetPost(created[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", stored.Author.Name, "override is display-time only")
	})

	t.Run("other viewers see the snapshot", func(t *testing.T) {
		posts, _, _ := seedFeed(t)
		svc := NewPostService(posts, nil)

		stranger := testUser()
		stranger.Username = "stranger"

		feed := svc.Feed("", stranger)
		require.NotEmpty(t, feed)
		assert.Equal(t, "alice", feed[0].Author.Name)
	})
}

func TestPostService_DeleteNode(t *testing.T) {
	ctx := context.Background()

	t.Run("author deletes their own post", func(t *testing.T) {
		posts, author, created := seedFeed(t)
		svc := NewPostService(posts, nil)

		require.NoError(t, svc.DeleteNode(ctx, author.ID, created[0].ID, created[0].ID))
		_, err := posts.GetPost(created[0].ID)
		assert.ErrorIs(t, err, apperror.ErrTargetNotFound)
	})

	t.Run("non-author cannot delete a post", func(t *testing.T) {
		posts, _, created := seedFeed(t)
		svc := NewPostService(posts, nil)

		err := svc.DeleteNode(ctx, uuid.New(), created[0].ID, created[0].ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("comment ownership is checked on the comment, not the post", func(t *testing.T) {
		posts, author, created := seedFeed(t)
		svc := NewPostService(posts, nil)

		commenter := testUser()
		cid, _ := uuid.NewV7()
		comment := model.Comment{ID: cid, PostID: created[0].ID, Author: commenter.Snapshot(), Text: "mine"}
		require.NoError(t, posts.InsertComment(ctx, created[0].ID, nil, comment))

		// The post author owns the post but not this comment.
		err := svc.DeleteNode(ctx, author.ID, created[0].ID, comment.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		require.NoError(t, svc.DeleteNode(ctx, commenter.ID, created[0].ID, comment.ID))
		stored, err := posts.GetPost(created[0].ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Replies)
	})

	t.Run("unknown comment", func(t *testing.T) {
		posts, author, created := seedFeed(t)
		svc := NewPostService(posts, nil)

		err := svc.DeleteNode(ctx, author.ID, created[0].ID, uuid.New())
		assert.ErrorIs(t, err, apperror.ErrTargetNotFound)
	})
}
