package service

import (
	"context"
	"errors"
	"log"

	"bakatter.app/server/internal/cache"
	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/repository"
	"bakatter.app/server/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UpdateProfileInput struct {
	Username *string `json:"username" binding:"omitempty,min=2,max=50"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=255"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
}

type ProfileService interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*model.User, error)
}

type profileService struct {
	repo     repository.UserRepository
	profiles *cache.Cache
}

func NewProfileService(repo repository.UserRepository, profiles *cache.Cache) ProfileService {
	return &profileService{repo: repo, profiles: profiles}
}

func (s *profileService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *profileService) Update(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if input.Username != nil && *input.Username != user.Username {
		if _, err := s.repo.FindByUsername(ctx, *input.Username); err == nil {
			return nil, apperror.New(409, "username already taken", apperror.ErrBadRequest)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Username = *input.Username
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if input.Bio != nil {
		profile := user.Profile
		if profile == nil {
			profile = &model.Profile{UserID: user.ID}
		}
		profile.Bio = input.Bio
		if err := s.repo.UpsertProfile(ctx, profile); err != nil {
			return nil, err
		}
		user.Profile = profile
	}

	if s.profiles != nil {
		if err := s.profiles.SaveProfile(user); err != nil {
			log.Printf("profile: failed to mirror profile for %s: %v", user.ID, err)
		}
	}

	return user, nil
}
