package handler

import (
	"net/http"
	"strconv"

	"bakatter.app/server/internal/service"
	"bakatter.app/server/pkg/response"
	"github.com/gin-gonic/gin"
)

const defaultSearchLimit = 20

type SearchHandler struct {
	service service.SearchService
}

func NewSearchHandler(service service.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"query": "", "hits": []service.SearchHit{}})
		return
	}

	limit := int64(defaultSearchLimit)
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	hits, err := h.service.Search(query, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"query": query, "hits": hits})
}
