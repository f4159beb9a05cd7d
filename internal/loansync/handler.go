package loansync

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/vendors"
)

// Handler serves the loan-system synchronization endpoints
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new loansync handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers loansync routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	sync := router.Group("/loansync")
	{
		sync.POST("/clients", h.registerClient)
		sync.POST("/loans", h.registerLoanApplication)
		sync.POST("/documents/:applicationId", h.uploadDocuments)
	}
}

func (h *Handler) registerClient(c *gin.Context) {
	var in ClientCreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.RegisterClient(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) registerLoanApplication(c *gin.Context) {
	var in LoanApplicationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.RegisterLoanApplication(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) uploadDocuments(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("applicationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application ID"})
		return
	}

	summary, err := h.service.UploadDocuments(c.Request.Context(), applicationID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// respondError maps service errors to HTTP answers. Field-level validation
// failures, whether caught locally or reported by the vendor, come back as a
// 400 with one message per field.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *vendors.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
		return
	}

	var aerr *vendors.AuthError
	if errors.As(err, &aerr) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "loan system authentication failed"})
		return
	}

	h.logger.Error("loan system synchronization failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
