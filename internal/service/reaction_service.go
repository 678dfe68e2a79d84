package service

import (
	"context"
	"sync"

	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/store"
	"github.com/google/uuid"
)

// ReactionService wraps the store's toggle with per-viewer bookkeeping: a
// last-known membership cache for optimistic reads and an in-flight guard so
// rapid repeated input cannot oscillate a target's state. One toggle per
// target+kind may be outstanding at a time; later calls while one is pending
// are ignored.
type ReactionService interface {
	// Toggle returns the resulting membership and whether the toggle was
	// applied (false when ignored by the in-flight guard).
	Toggle(ctx context.Context, userID string, targetID uuid.UUID, kind model.ReactionKind) (model.UserIDSet, bool, error)
}

type reactionService struct {
	posts *store.PostStore

	mu        sync.Mutex
	inflight  map[string]struct{}
	lastKnown map[string]model.UserIDSet
}

func NewReactionService(posts *store.PostStore) ReactionService {
	return &reactionService{
		posts:     posts,
		inflight:  make(map[string]struct{}),
		lastKnown: make(map[string]model.UserIDSet),
	}
}

func (s *reactionService) Toggle(ctx context.Context, userID string, targetID uuid.UUID, kind model.ReactionKind) (model.UserIDSet, bool, error) {
	key := targetID.String() + ":" + string(kind)

	s.mu.Lock()
	if _, busy := s.inflight[key]; busy {
		cached := s.lastKnown[key]
		s.mu.Unlock()
		return cached, false, nil
	}
	s.inflight[key] = struct{}{}
	// Optimistic local value, replaced by the store's answer below.
	s.lastKnown[key] = s.lastKnown[key].Toggle(userID)
	s.mu.Unlock()

	membership, err := s.posts.ToggleReaction(ctx, targetID, userID, kind)

	s.mu.Lock()
	delete(s.inflight, key)
	if err == nil {
		s.lastKnown[key] = membership
	}
	s.mu.Unlock()

	if err != nil {
		return nil, false, err
	}
	return membership, true, nil
}
