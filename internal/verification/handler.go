package verification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"peakcredit/origination-backend/internal/pii"
	"peakcredit/origination-backend/internal/profile"
)

// Handler serves the verification endpoints
type Handler struct {
	service      *Service
	orchestrator *Orchestrator
	codec        *pii.Codec
	profiles     profile.Repository
	logger       *zap.Logger
}

// NewHandler creates a new verification handler
func NewHandler(service *Service, orchestrator *Orchestrator, codec *pii.Codec, profiles profile.Repository, logger *zap.Logger) *Handler {
	return &Handler{
		service:      service,
		orchestrator: orchestrator,
		codec:        codec,
		profiles:     profiles,
		logger:       logger,
	}
}

// RegisterRoutes registers verification routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	v := router.Group("/verification")
	{
		v.POST("/kyc", h.runKYC)
		v.POST("/bank-account", h.verifyBankAccount)
		v.POST("/cellphone", h.matchCellphone)
		v.POST("/deceased", h.checkDeceased)
		v.POST("/otv/request", h.requestOTV)
		v.POST("/otv/results", h.pollOTVResults)
	}
}

type kycRequest struct {
	ProfileID uuid.UUID `json:"profile_id" binding:"required"`
}

func (h *Handler) runKYC(c *gin.Context) {
	var req kycRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.profiles.GetByID(c.Request.Context(), req.ProfileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	summary := h.orchestrator.RunAll(c.Request.Context(), RunAllInput{
		EncryptedIDNumber: p.IDNumberEncrypted,
		ProfileID:         &p.ID,
		FirstName:         p.FirstName,
		Surname:           p.Surname,
		DateOfBirth:       p.DateOfBirth,
		Address:           p.Address,
		HomePhone:         p.HomePhone,
		WorkPhone:         p.WorkPhone,
		CellPhone:         p.CellphoneNumber,
	})

	// The aggregate decision is data, not an error: a failed check still
	// answers the caller with 200.
	c.JSON(http.StatusOK, summary)
}

type bankAccountRequest struct {
	ProfileID     uuid.UUID `json:"profile_id" binding:"required"`
	AccountNumber string    `json:"account_number" binding:"required"`
	BranchCode    string    `json:"branch_code" binding:"required"`
	AccountType   string    `json:"account_type" binding:"required"`
	BankName      string    `json:"bank_name" binding:"required"`
}

func (h *Handler) verifyBankAccount(c *gin.Context) {
	var req bankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, idNumber, ok := h.loadSubject(c, req.ProfileID)
	if !ok {
		return
	}

	result := h.service.BankAccountVerification(c.Request.Context(), BankAccountInput{
		IDNumber:      idNumber,
		AccountNumber: req.AccountNumber,
		BranchCode:    req.BranchCode,
		AccountType:   req.AccountType,
		BankName:      req.BankName,
		FullName:      p.FirstName + " " + p.Surname,
		ProfileID:     &p.ID,
	})
	h.respondResult(c, result)
}

type cellphoneRequest struct {
	ProfileID       uuid.UUID `json:"profile_id" binding:"required"`
	CellphoneNumber string    `json:"cellphone_number"`
}

func (h *Handler) matchCellphone(c *gin.Context) {
	var req cellphoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, idNumber, ok := h.loadSubject(c, req.ProfileID)
	if !ok {
		return
	}

	number := req.CellphoneNumber
	if number == "" {
		number = p.CellphoneNumber
	}

	result := h.service.CellphoneMatch(c.Request.Context(), CellphoneInput{
		IDNumber:        idNumber,
		CellphoneNumber: number,
		ProfileID:       &p.ID,
	})
	h.respondResult(c, result)
}

type deceasedRequest struct {
	ProfileID uuid.UUID `json:"profile_id" binding:"required"`
}

func (h *Handler) checkDeceased(c *gin.Context) {
	var req deceasedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, idNumber, ok := h.loadSubject(c, req.ProfileID)
	if !ok {
		return
	}

	result := h.service.DeceasedStatus(c.Request.Context(), DeceasedInput{
		IDNumber:  idNumber,
		ProfileID: &p.ID,
	})
	h.respondResult(c, result)
}

type otvRequest struct {
	ApplicationID uuid.UUID `json:"application_id" binding:"required"`
	ProfileID     uuid.UUID `json:"profile_id" binding:"required"`
}

func (h *Handler) requestOTV(c *gin.Context) {
	var req otvRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, idNumber, ok := h.loadSubject(c, req.ProfileID)
	if !ok {
		return
	}

	result := h.service.RequestOneTimeVerification(c.Request.Context(), OTVRequestInput{
		ApplicationID:   req.ApplicationID,
		IDNumber:        idNumber,
		CellphoneNumber: p.CellphoneNumber,
		ProfileID:       &p.ID,
	})
	h.respondResult(c, result)
}

func (h *Handler) pollOTVResults(c *gin.Context) {
	var req otvRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.service.OneTimeVerificationResults(c.Request.Context(), req.ApplicationID, &req.ProfileID)
	h.respondResult(c, result)
}

// loadSubject resolves the profile and decrypts its stored ID number. A
// decryption failure is fatal for the record, never an empty string.
func (h *Handler) loadSubject(c *gin.Context, profileID uuid.UUID) (*profile.Profile, string, bool) {
	p, err := h.profiles.GetByID(c.Request.Context(), profileID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return nil, "", false
	}

	idNumber, err := h.codec.Decrypt(p.IDNumberEncrypted)
	if err != nil {
		h.logger.Error("profile holds an undecryptable ID number",
			zap.String("profile_id", profileID.String()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored ID number could not be decrypted"})
		return nil, "", false
	}
	return p, idNumber, true
}

// respondResult maps a check result to its HTTP shape. Domain rejections and
// precondition failures are structured 4xx; auth problems are 401; transport
// and timeout failures are 500.
func (h *Handler) respondResult(c *gin.Context, result Result) {
	if result.Passed {
		c.JSON(http.StatusOK, result)
		return
	}

	status := http.StatusInternalServerError
	if result.Failure != nil {
		switch result.Failure.Kind {
		case FailPrecondition, FailValidation:
			status = http.StatusBadRequest
		case FailRejected:
			status = http.StatusUnprocessableEntity
		case FailUnavailable:
			status = http.StatusServiceUnavailable
		case FailAuth:
			status = http.StatusUnauthorized
		}
	}
	c.JSON(status, result)
}
