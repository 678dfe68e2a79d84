package service

import (
	"context"
	"log"

	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/store"
	"bakatter.app/server/pkg/apperror"
	"github.com/google/uuid"
)

// PostService is the read/delete surface over the tree store: feed and
// single-post reads with the viewer's up-to-date profile substituted onto
// their own content, and ownership-checked node deletion.
type PostService interface {
	Feed(category string, viewer *model.User) []*model.Post
	Get(postID uuid.UUID, viewer *model.User) (*model.Post, error)
	DeleteNode(ctx context.Context, userID uuid.UUID, postID, nodeID uuid.UUID) error
}

type postService struct {
	posts  *store.PostStore
	search SearchService
}

func NewPostService(posts *store.PostStore, search SearchService) PostService {
	return &postService{posts: posts, search: search}
}

func (s *postService) Feed(category string, viewer *model.User) []*model.Post {
	all := s.posts.Posts()
	out := make([]*model.Post, 0, len(all))
	for _, p := range all {
		if category != "" && p.Category != category {
			continue
		}
		applyViewerSnapshot(p, viewer)
		out = append(out, p)
	}
	return out
}

func (s *postService) Get(postID uuid.UUID, viewer *model.User) (*model.Post, error) {
	post, err := s.posts.GetPost(postID)
	if err != nil {
		return nil, err
	}
	applyViewerSnapshot(post, viewer)
	return post, nil
}

func (s *postService) DeleteNode(ctx context.Context, userID uuid.UUID, postID, nodeID uuid.UUID) error {
	post, err := s.posts.GetPost(postID)
	if err != nil {
		return err
	}

	if nodeID == postID {
		if post.Author.ID != userID {
			return apperror.ErrForbidden
		}
	} else {
		comment := post.Replies.Find(nodeID)
		if comment == nil {
			return apperror.ErrTargetNotFound
		}
		if comment.Author.ID != userID {
			return apperror.ErrForbidden
		}
	}

	if err := s.posts.DeleteNode(ctx, postID, nodeID); err != nil {
		return err
	}

	if nodeID == postID && s.search != nil {
		go func() {
			if err := s.search.DeletePost(postID.String()); err != nil {
				log.Printf("posts: failed to remove post %s from index: %v", postID, err)
			}
		}()
	}
	return nil
}

// applyViewerSnapshot overrides the stored author snapshot with the viewer's
// current name and avatar wherever the viewer authored the node. Display-time
// only; the canonical tree keeps the snapshot taken at creation.
func applyViewerSnapshot(post *model.Post, viewer *model.User) {
	if viewer == nil {
		return
	}
	snap := viewer.Snapshot()
	if post.Author.ID == snap.ID {
		post.Author.Name = snap.Name
		post.Author.Avatar = snap.Avatar
	}
	overrideComments(post.Replies, snap)
}

func overrideComments(siblings model.CommentList, snap model.AuthorSnapshot) {
	for i := range siblings {
		if siblings[i].Author.ID == snap.ID {
			siblings[i].Author.Name = snap.Name
			siblings[i].Author.Avatar = snap.Avatar
		}
		overrideComments(siblings[i].Replies, snap)
	}
}
