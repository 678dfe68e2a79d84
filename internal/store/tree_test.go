package store

import (
	"testing"

	"bakatter.app/server/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(text string, replies ...model.Comment) model.Comment {
	id, _ := uuid.NewV7()
	return model.Comment{ID: id, Text: text, Replies: model.CommentList(replies)}
}

func TestRemoveComment(t *testing.T) {
	t.Run("removes a top-level node with its subtree", func(t *testing.T) {
		doomed := node("doomed", node("child", node("grandchild")))
		tree := model.CommentList{node("keep"), doomed}

		out, removed := removeComment(tree, doomed.ID)
		require.True(t, removed)
		require.Len(t, out, 1)
		assert.Equal(t, "keep", out[0].Text)
	})

	t.Run("removes a deep node while keeping its ancestors", func(t *testing.T) {
		target := node("target", node("doomed-descendant"))
		tree := model.CommentList{node("root", node("mid", target), node("sibling"))}

		out, removed := removeComment(tree, target.ID)
		require.True(t, removed)
		require.Len(t, out, 1)
		assert.Empty(t, out[0].Replies[0].Replies)
		assert.Equal(t, "sibling", out[0].Replies[1].Text)
	})

	t.Run("unknown id removes nothing", func(t *testing.T) {
		tree := model.CommentList{node("a"), node("b")}
		out, removed := removeComment(tree, uuid.New())
		assert.False(t, removed)
		assert.Len(t, out, 2)
	})

	t.Run("empty tree", func(t *testing.T) {
		out, removed := removeComment(nil, uuid.New())
		assert.False(t, removed)
		assert.Empty(t, out)
	})
}

func TestClonePost(t *testing.T) {
	original := makePost("alice")
	original.Images = model.StringList{"https://img.example/1.png"}
	original.LikedBy = model.UserIDSet{"u1"}
	original.LinkPreview = &model.LinkPreview{Title: "t"}
	original.Replies = model.CommentList{node("a", node("b"))}

	cp := clonePost(original)
	cp.Images[0] = "changed"
	cp.LikedBy[0] = "changed"
	cp.LinkPreview.Title = "changed"
	cp.Replies[0].Replies[0].Text = "changed"

	assert.Equal(t, "https://img.example/1.png", original.Images[0])
	assert.Equal(t, model.UserIDSet{"u1"}, original.LikedBy)
	assert.Equal(t, "t", original.LinkPreview.Title)
	assert.Equal(t, "b", original.Replies[0].Replies[0].Text)
}
