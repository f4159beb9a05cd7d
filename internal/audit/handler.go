package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler serves the read-only compliance screen endpoints
type Handler struct {
	repo   Repository
	logger *zap.Logger
}

// NewHandler creates a new audit handler
func NewHandler(repo Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes registers audit routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit/checks", h.listChecks)
}

func (h *Handler) listChecks(c *gin.Context) {
	profileID, err := uuid.Parse(c.Query("profile_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile_id must be a valid uuid"})
		return
	}

	checks, err := h.repo.ListForProfile(c.Request.Context(), profileID)
	if err != nil {
		h.logger.Error("failed to list verification checks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list verification checks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checks": checks,
		"total":  len(checks),
	})
}
