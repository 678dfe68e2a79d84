package store

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/repository"
	"bakatter.app/server/pkg/apperror"
	"github.com/google/uuid"
)

// Snapshotter is the local pending-write fallback: a persistent key/value
// mirror of the posts list used when the remote store is unreachable. It is
// never authoritative.
type Snapshotter interface {
	SavePosts(posts []*model.Post) error
	LoadPosts() ([]*model.Post, error)
}

// PostStore owns the canonical in-memory copy of every post and its reply
// tree. All reads hand out deep copies and all mutations funnel through its
// operations, applied to memory first and then persisted to the remote
// repository. A failed remote write is logged and answered with a background
// resync; the optimistic local change is never rolled back directly.
type PostStore struct {
	mu    sync.RWMutex
	posts []*model.Post

	repo repository.PostRepository
	snap Snapshotter

	resyncing atomic.Bool
}

// NewPostStore builds the store. snap may be nil when no local cache is
// configured.
func NewPostStore(repo repository.PostRepository, snap Snapshotter) *PostStore {
	return &PostStore{repo: repo, snap: snap}
}

// Load fetches all posts from the remote store, newest first. When the remote
// is unreachable it falls back to the last local snapshot so the app starts
// with stale data instead of none.
func (s *PostStore) Load(ctx context.Context) error {
	posts, err := s.repo.FindAll(ctx)
	if err != nil {
		if s.snap == nil {
			return err
		}
		cached, cacheErr := s.snap.LoadPosts()
		if cacheErr != nil {
			return err
		}
		log.Printf("post store: remote fetch failed, serving %d cached posts: %v", len(cached), err)
		posts = cached
	}

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
	return nil
}

// Posts returns a deep-copied snapshot of the list, newest first.
func (s *PostStore) Posts() []*model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = clonePost(p)
	}
	return out
}

// GetPost returns a deep copy of one post's tree.
func (s *PostStore) GetPost(postID uuid.UUID) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.posts {
		if p.ID == postID {
			return clonePost(p), nil
		}
	}
	return nil, apperror.ErrTargetNotFound
}

// AddPost prepends a freshly assembled post and persists the insert.
func (s *PostStore) AddPost(ctx context.Context, post *model.Post) {
	s.mu.Lock()
	s.posts = append([]*model.Post{clonePost(post)}, s.posts...)
	s.mu.Unlock()

	if err := s.repo.Create(ctx, post); err != nil {
		s.remoteFailed("insert post", err)
	}
	s.saveSnapshot()
}

// InsertComment appends a comment under the given parent, or at the post root
// when parentID is nil. A missing post or parent leaves the tree unchanged
// and returns ErrTargetNotFound; callers that only ever pass ids rendered
// from this store treat that as a no-op.
func (s *PostStore) InsertComment(ctx context.Context, postID uuid.UUID, parentID *uuid.UUID, comment model.Comment) error {
	s.mu.Lock()
	post := s.findPostLocked(postID)
	if post == nil {
		s.mu.Unlock()
		return apperror.ErrTargetNotFound
	}

	if parentID == nil {
		post.Replies = append(post.Replies, comment)
	} else {
		parent := post.Replies.Find(*parentID)
		if parent == nil {
			s.mu.Unlock()
			return apperror.ErrTargetNotFound
		}
		parent.Replies = append(parent.Replies, comment)
	}
	replies := cloneComments(post.Replies)
	s.mu.Unlock()

	if err := s.repo.Patch(ctx, postID, map[string]interface{}{"replies": replies}); err != nil {
		s.remoteFailed("insert comment", err)
	}
	s.saveSnapshot()
	return nil
}

// DeleteNode removes a node and its whole subtree. When nodeID equals the
// post id the entire post is removed from the list.
func (s *PostStore) DeleteNode(ctx context.Context, postID, nodeID uuid.UUID) error {
	if postID == nodeID {
		return s.deletePost(ctx, postID)
	}

	s.mu.Lock()
	post := s.findPostLocked(postID)
	if post == nil {
		s.mu.Unlock()
		return apperror.ErrTargetNotFound
	}

	replies, removed := removeComment(post.Replies, nodeID)
	if !removed {
		s.mu.Unlock()
		return apperror.ErrTargetNotFound
	}
	post.Replies = replies
	persisted := cloneComments(replies)
	s.mu.Unlock()

	if err := s.repo.Patch(ctx, postID, map[string]interface{}{"replies": persisted}); err != nil {
		s.remoteFailed("delete comment", err)
	}
	s.saveSnapshot()
	return nil
}

func (s *PostStore) deletePost(ctx context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	found := false
	kept := make([]*model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if p.ID == postID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	s.posts = kept
	s.mu.Unlock()

	if !found {
		return apperror.ErrTargetNotFound
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		s.remoteFailed("delete post", err)
	}
	s.saveSnapshot()
	return nil
}

// ToggleReaction flips userID's membership in the named reaction set of the
// target, which may be a post or any comment at any depth. It returns the new
// membership so the caller can update its own optimistic view.
func (s *PostStore) ToggleReaction(ctx context.Context, targetID uuid.UUID, userID string, kind model.ReactionKind) (model.UserIDSet, error) {
	if !kind.Valid() {
		return nil, apperror.ErrBadRequest
	}

	s.mu.Lock()
	var (
		owner      *model.Post
		membership model.UserIDSet
		patch      map[string]interface{}
	)
	for _, p := range s.posts {
		if p.ID == targetID {
			set := postReactionSet(p, kind)
			*set = set.Toggle(userID)
			owner = p
			membership = append(model.UserIDSet(nil), *set...)
			column := "liked_by"
			if kind == model.ReactionLaughed {
				column = "laughed_by"
			}
			patch = map[string]interface{}{column: membership}
			break
		}
		if c := p.Replies.Find(targetID); c != nil {
			set := commentReactionSet(c, kind)
			*set = set.Toggle(userID)
			owner = p
			membership = append(model.UserIDSet(nil), *set...)
			patch = map[string]interface{}{"replies": cloneComments(p.Replies)}
			break
		}
	}
	if owner == nil {
		s.mu.Unlock()
		return nil, apperror.ErrTargetNotFound
	}
	ownerID := owner.ID
	s.mu.Unlock()

	if err := s.repo.Patch(ctx, ownerID, patch); err != nil {
		s.remoteFailed("toggle reaction", err)
	}
	s.saveSnapshot()
	return membership, nil
}

// UpdateLinkPreview attaches a fetched preview to a post, in memory and as a
// partial column patch. Best effort: a missing post is a no-op.
func (s *PostStore) UpdateLinkPreview(ctx context.Context, postID uuid.UUID, preview *model.LinkPreview) {
	s.mu.Lock()
	post := s.findPostLocked(postID)
	if post == nil {
		s.mu.Unlock()
		return
	}
	post.LinkPreview = preview
	s.mu.Unlock()

	if err := s.repo.Patch(ctx, postID, map[string]interface{}{"link_preview": preview}); err != nil {
		s.remoteFailed("attach link preview", err)
	}
	s.saveSnapshot()
}

// Resync refetches the full remote state and replaces the in-memory list.
// This is the only reconciliation path after a failed or uncertain write;
// convergence is not assumed to be monotonic, so the fetch is always total.
func (s *PostStore) Resync(ctx context.Context) error {
	if !s.resyncing.CompareAndSwap(false, true) {
		return nil
	}
	defer s.resyncing.Store(false)

	posts, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
	s.saveSnapshot()
	return nil
}

func (s *PostStore) findPostLocked(postID uuid.UUID) *model.Post {
	for _, p := range s.posts {
		if p.ID == postID {
			return p
		}
	}
	return nil
}

func (s *PostStore) remoteFailed(op string, err error) {
	log.Printf("post store: %s: remote write failed, scheduling resync: %v", op, err)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if resyncErr := s.Resync(ctx); resyncErr != nil {
			log.Printf("post store: resync failed: %v", resyncErr)
		}
	}()
}

func (s *PostStore) saveSnapshot() {
	if s.snap == nil {
		return
	}
	if err := s.snap.SavePosts(s.Posts()); err != nil {
		log.Printf("post store: snapshot save failed: %v", err)
	}
}
