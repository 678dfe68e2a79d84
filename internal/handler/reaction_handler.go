package handler

import (
	"net/http"

	"bakatter.app/server/internal/model"
	"bakatter.app/server/internal/service"
	"bakatter.app/server/pkg/response"
	"bakatter.app/server/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type toggleReactionRequest struct {
	TargetID string `json:"target_id" binding:"required,uuid"`
	Kind     string `json:"kind" binding:"required,oneof=liked laughed"`
}

type ReactionHandler struct {
	service service.ReactionService
}

func NewReactionHandler(service service.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: service}
}

// Toggle flips the caller's membership in a reaction set. A toggle that
// arrives while the same target+kind is still being persisted is ignored and
// reported back with applied=false.
func (h *ReactionHandler) Toggle(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req toggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target id"})
		return
	}

	members, applied, err := h.service.Toggle(c.Request.Context(), userID.String(), targetID, model.ReactionKind(req.Kind))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"target_id": req.TargetID,
		"kind":      req.Kind,
		"members":   members,
		"applied":   applied,
	})
}
