package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/preview"
	"bakatter.app/server/internal/repository"
	"bakatter.app/server/internal/store"
	"bakatter.app/server/pkg/apperror"
	"bakatter.app/server/pkg/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MaxPostLength caps post and comment text, counted in code points.
const MaxPostLength = 140

const (
	maxPostImages    = 4
	maxCommentImages = 1
	fallbackCategory = "未分類"
)

// ImageFile is one attached image as received from the request.
type ImageFile struct {
	Reader   io.Reader
	FileName string
}

type PostInput struct {
	Text     string
	Category string
	Images   []ImageFile
}

type CommentInput struct {
	PostID   uuid.UUID
	ParentID *uuid.UUID
	Text     string
	Image    *ImageFile
}

// ComposerService validates and assembles new posts and comments before they
// enter the tree: empty-content rejection, length cap, all-or-nothing media
// upload, best-effort link preview.
type ComposerService interface {
	ComposePost(ctx context.Context, userID uuid.UUID, input PostInput) (*model.Post, error)
	ComposeComment(ctx context.Context, userID uuid.UUID, input CommentInput) (*model.Comment, error)
}

type composerService struct {
	posts        *store.PostStore
	userRepo     repository.UserRepository
	imageStorage storage.ImageStorage
	previews     preview.Fetcher
	search       SearchService
	redisClient  *redis.Client
	uploadFolder string
	rateLimit    time.Duration
}

func NewComposerService(
	posts *store.PostStore,
	userRepo repository.UserRepository,
	imageStorage storage.ImageStorage,
	previews preview.Fetcher,
	search SearchService,
	redisClient *redis.Client,
	uploadFolder string,
	rateLimit time.Duration,
) ComposerService {
	return &composerService{
		posts:        posts,
		userRepo:     userRepo,
		imageStorage: imageStorage,
		previews:     previews,
		search:       search,
		redisClient:  redisClient,
		uploadFolder: uploadFolder,
		rateLimit:    rateLimit,
	}
}

func (s *composerService) ComposePost(ctx context.Context, userID uuid.UUID, input PostInput) (*model.Post, error) {
	author, err := s.resolveAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Images) == 0 {
		return nil, apperror.ErrEmptyContent
	}
	// Truncation, not rejection: the cap mirrors the client's input limit, so
	// overlong text only reaches us from misbehaving clients.
	text = truncateRunes(text, MaxPostLength)

	category := input.Category
	if category == "" {
		category = fallbackCategory
	} else if !model.ValidCategory(category) {
		return nil, apperror.New(400, fmt.Sprintf("unknown category %q", category), apperror.ErrBadRequest)
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, userID, "post", s.rateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		ttl, _ := GetRateLimitTTL(ctx, s.redisClient, userID, "post")
		return nil, apperror.New(429,
			fmt.Sprintf("you can only post once every %.0f seconds. Please wait %.0f seconds", s.rateLimit.Seconds(), ttl.Seconds()),
			apperror.ErrRateLimitExceeded)
	}

	// Release the cooldown if anything below fails.
	creationFailed := true
	defer func() {
		if creationFailed {
			_ = ClearRateLimit(ctx, s.redisClient, userID, "post")
		}
	}()

	if len(input.Images) > maxPostImages {
		input.Images = input.Images[:maxPostImages]
	}
	urls, err := s.uploadAll(ctx, input.Images)
	if err != nil {
		return nil, err
	}

	postID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate post id: %w", err)
	}

	post := &model.Post{
		ID:        postID,
		Author:    author.Snapshot(),
		Text:      text,
		Category:  category,
		Images:    urls,
		LikedBy:   model.UserIDSet{},
		LaughedBy: model.UserIDSet{},
		Replies:   model.CommentList{},
		CreatedAt: time.Now().UTC(),
	}

	s.posts.AddPost(ctx, post)
	creationFailed = false

	s.attachPreviewAsync(post.ID, text)
	s.indexAsync(post)

	return post, nil
}

func (s *composerService) ComposeComment(ctx context.Context, userID uuid.UUID, input CommentInput) (*model.Comment, error) {
	author, err := s.resolveAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.Text)
	if text == "" && input.Image == nil {
		return nil, apperror.ErrEmptyContent
	}
	text = truncateRunes(text, MaxPostLength)

	var images []ImageFile
	if input.Image != nil {
		images = []ImageFile{*input.Image}
	}
	if len(images) > maxCommentImages {
		images = images[:maxCommentImages]
	}
	urls, err := s.uploadAll(ctx, images)
	if err != nil {
		return nil, err
	}

	commentID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate comment id: %w", err)
	}

	comment := model.Comment{
		ID:        commentID,
		PostID:    input.PostID,
		Author:    author.Snapshot(),
		Text:      text,
		Images:    urls,
		LikedBy:   model.UserIDSet{},
		LaughedBy: model.UserIDSet{},
		Replies:   model.CommentList{},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.posts.InsertComment(ctx, input.PostID, input.ParentID, comment); err != nil {
		return nil, err
	}

	return &comment, nil
}

func (s *composerService) resolveAuthor(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if userID == uuid.Nil {
		return nil, apperror.ErrNotAuthenticated
	}
	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}

// uploadAll uploads every attached image and returns the public URLs in
// order. All-or-nothing: a single failed upload aborts the whole submission
// so no post ever persists with missing images.
func (s *composerService) uploadAll(ctx context.Context, images []ImageFile) (model.StringList, error) {
	urls := make(model.StringList, 0, len(images))
	for _, img := range images {
		url, err := s.imageStorage.UploadImage(ctx, img.Reader, s.uploadFolder, img.FileName)
		if err != nil {
			return nil, apperror.New(502, fmt.Sprintf("upload of %s failed", img.FileName),
				fmt.Errorf("%w: %v", apperror.ErrMediaUploadFailed, err))
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// attachPreviewAsync requests link-preview metadata for the first URL in the
// text and patches it onto the post. Never blocks or fails the submission;
// errors are swallowed and logged.
func (s *composerService) attachPreviewAsync(postID uuid.UUID, text string) {
	if s.previews == nil {
		return
	}
	url := preview.FirstURL(text)
	if url == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		result, err := s.previews.Fetch(ctx, url)
		if err != nil {
			log.Printf("composer: link preview for %s failed: %v", url, err)
			return
		}
		if !result.Success {
			return
		}

		s.posts.UpdateLinkPreview(ctx, postID, &model.LinkPreview{
			Title:       result.Title,
			Description: result.Description,
			Image:       result.Image,
			SiteName:    result.SiteName,
		})
	}()
}

func (s *composerService) indexAsync(post *model.Post) {
	if s.search == nil {
		return
	}
	go func() {
		if err := s.search.IndexPost(post); err != nil {
			log.Printf("composer: failed to index post %s: %v", post.ID, err)
		}
	}()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
