package store

import (
	"bakatter.app/server/internal/model"
	"github.com/google/uuid"
)

// removeComment filters out the node with the given id together with its
// entire subtree. Every surviving node keeps its own subtree recursively
// filtered. The second result reports whether anything was removed.
func removeComment(siblings model.CommentList, id uuid.UUID) (model.CommentList, bool) {
	out := make(model.CommentList, 0, len(siblings))
	removed := false
	for _, c := range siblings {
		if c.ID == id {
			removed = true
			continue
		}
		if replies, ok := removeComment(c.Replies, id); ok {
			removed = true
			c.Replies = replies
		}
		out = append(out, c)
	}
	return out, removed
}

// reactionSet selects the membership slot for a kind on a post.
func postReactionSet(p *model.Post, kind model.ReactionKind) *model.UserIDSet {
	if kind == model.ReactionLaughed {
		return &p.LaughedBy
	}
	return &p.LikedBy
}

func commentReactionSet(c *model.Comment, kind model.ReactionKind) *model.UserIDSet {
	if kind == model.ReactionLaughed {
		return &c.LaughedBy
	}
	return &c.LikedBy
}

// clonePost deep-copies a post and its whole reply tree. Callers outside the
// store only ever see clones; the canonical tree is never aliased.
func clonePost(p *model.Post) *model.Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Images = append(model.StringList(nil), p.Images...)
	cp.LikedBy = append(model.UserIDSet(nil), p.LikedBy...)
	cp.LaughedBy = append(model.UserIDSet(nil), p.LaughedBy...)
	cp.Replies = cloneComments(p.Replies)
	if p.LinkPreview != nil {
		preview := *p.LinkPreview
		cp.LinkPreview = &preview
	}
	return &cp
}

func cloneComments(siblings model.CommentList) model.CommentList {
	if siblings == nil {
		return nil
	}
	out := make(model.CommentList, len(siblings))
	for i, c := range siblings {
		c.Images = append(model.StringList(nil), c.Images...)
		c.LikedBy = append(model.UserIDSet(nil), c.LikedBy...)
		c.LaughedBy = append(model.UserIDSet(nil), c.LaughedBy...)
		c.Replies = cloneComments(c.Replies)
		out[i] = c
	}
	return out
}
