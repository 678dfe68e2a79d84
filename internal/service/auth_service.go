package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bakatter.app/server/internal/cache"
	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/repository"
	"bakatter.app/server/pkg/apperror"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Username string  `json:"username" binding:"required,min=2,max=50"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Avatar   string  `json:"avatar"`
	Bio      *string `json:"bio"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        *model.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type authService struct {
	repo     repository.UserRepository
	profiles *cache.Cache
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(repo repository.UserRepository, profiles *cache.Cache, secret string, tokenTTL time.Duration) AuthService {
	return &authService{
		repo:     repo,
		profiles: profiles,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	if err := s.ensureUserUnique(ctx, input.Email, input.Username); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
	}
	if input.Avatar != "" {
		user.Avatar = input.Avatar
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	profile := &model.Profile{UserID: user.ID, Bio: input.Bio}
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	user.Profile = profile

	s.mirrorProfile(user)
	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(401, "invalid email or password", apperror.ErrNotAuthenticated)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.New(401, "invalid email or password", apperror.ErrNotAuthenticated)
	}

	s.mirrorProfile(user)
	return s.buildAuthResponse(user)
}

func (s *authService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotAuthenticated
		}
		// Remote store unreachable: fall back to the local profile mirror.
		if s.profiles != nil {
			if cached, cacheErr := s.profiles.LoadProfile(userID); cacheErr == nil && cached != nil {
				log.Printf("auth: serving cached profile for %s: %v", userID, err)
				return cached, nil
			}
		}
		return nil, err
	}

	s.mirrorProfile(user)
	return user, nil
}

func (s *authService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	if s.profiles != nil {
		if err := s.profiles.DeleteProfile(userID.String()); err != nil {
			log.Printf("auth: failed to drop cached profile for %s: %v", userID, err)
		}
	}
	return nil
}

func (s *authService) ensureUserUnique(ctx context.Context, email, username string) error {
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return apperror.New(409, "email already registered", apperror.ErrBadRequest)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return apperror.New(409, "username already taken", apperror.ErrBadRequest)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}

func (s *authService) buildAuthResponse(user *model.User) (*AuthResponse, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        user,
	}, nil
}

func (s *authService) mirrorProfile(user *model.User) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.SaveProfile(user); err != nil {
		log.Printf("auth: failed to mirror profile for %s: %v", user.ID, err)
	}
}
