package fees

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Handler serves fee quote requests
type Handler struct {
	calculator *Calculator
	logger     *zap.Logger
}

// NewHandler creates a new fees handler
func NewHandler(calculator *Calculator, logger *zap.Logger) *Handler {
	return &Handler{calculator: calculator, logger: logger}
}

// RegisterRoutes registers fee routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	f := router.Group("/fees")
	{
		f.POST("/quote", h.quote)
	}
}

type quoteRequest struct {
	Principal    decimal.Decimal `json:"principal" binding:"required"`
	TermDays     int             `json:"term_days" binding:"required,gt=0"`
	StartDate    string          `json:"start_date" binding:"required"`
	AnnualRate   decimal.Decimal `json:"annual_rate"`
	SalaryDay    int             `json:"salary_day"`
	WithSchedule bool            `json:"with_schedule"`
}

type quoteResponse struct {
	Quote    *Quote        `json:"quote"`
	Schedule []Installment `json:"schedule,omitempty"`
}

func (h *Handler) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}

	terms := Terms{
		Principal:  req.Principal,
		TermDays:   req.TermDays,
		StartDate:  startDate,
		AnnualRate: req.AnnualRate,
		SalaryDay:  req.SalaryDay,
	}

	quote, err := h.calculator.Calculate(terms)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := quoteResponse{Quote: quote}
	if req.WithSchedule {
		resp.Schedule = h.calculator.Schedule(terms, quote)
	}
	c.JSON(http.StatusOK, resp)
}
