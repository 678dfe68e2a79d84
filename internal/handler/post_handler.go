package handler

import (
	"mime/multipart"
	"net/http"

	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/service"
	"bakatter.app/server/pkg/apperror"
	"bakatter.app/server/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PostHandler struct {
	composer service.ComposerService
	posts    service.PostService
	auth     service.AuthService
}

func NewPostHandler(composer service.ComposerService, posts service.PostService, auth service.AuthService) *PostHandler {
	return &PostHandler{composer: composer, posts: posts, auth: auth}
}

// Feed lists posts newest first, optionally narrowed to one category. When
// the caller is signed in their current profile overrides the author snapshot
// on their own posts.
func (h *PostHandler) Feed(c *gin.Context) {
	viewer := h.resolveViewer(c)
	posts := h.posts.Feed(c.Query("category"), viewer)
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *PostHandler) Get(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	post, err := h.posts.Get(postID, h.resolveViewer(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	images, closers, err := formImages(c, "images")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll(closers)

	post, err := h.composer.ComposePost(c.Request.Context(), userID, service.PostInput{
		Text:     c.PostForm("text"),
		Category: c.PostForm("category"),
		Images:   images,
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) CreateComment(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var parentID *uuid.UUID
	if raw := c.PostForm("parent_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent id"})
			return
		}
		parentID = &id
	}

	// Replies carry at most one image.
	images, closers, err := formImages(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll(closers)

	input := service.CommentInput{
		PostID:   postID,
		ParentID: parentID,
		Text:     c.PostForm("text"),
	}
	if len(images) > 0 {
		input.Image = &images[0]
	}

	comment, err := h.composer.ComposeComment(c.Request.Context(), userID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// DeleteNode removes a post or a comment subtree. post_id == node_id deletes
// the whole post; otherwise the node and all of its descendants go.
func (h *PostHandler) DeleteNode(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}
	nodeID, err := uuid.Parse(c.Param("node_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node id"})
		return
	}

	if err := h.posts.DeleteNode(c.Request.Context(), userID, postID, nodeID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *PostHandler) resolveViewer(c *gin.Context) *model.User {
	userID, err := response.GetUserID(c)
	if err != nil {
		return nil
	}
	viewer, err := h.auth.CurrentUser(c.Request.Context(), userID.String())
	if err != nil {
		return nil
	}
	return viewer
}

func formImages(c *gin.Context, field string) ([]service.ImageFile, []multipart.File, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil, nil
		}
		return nil, nil, apperror.New(400, "invalid multipart form", err)
	}

	var (
		images  []service.ImageFile
		closers []multipart.File
	)
	for _, header := range form.File[field] {
		file, err := header.Open()
		if err != nil {
			closeAll(closers)
			return nil, nil, apperror.New(400, "unreadable image upload", err)
		}
		closers = append(closers, file)
		images = append(images, service.ImageFile{Reader: file, FileName: header.Filename})
	}
	return images, closers, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		f.Close()
	}
}
