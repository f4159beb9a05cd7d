// Package fees computes regulated loan fees and payment schedules. All
// functions are pure: same terms and table in, same quote out.
package fees

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Terms are the loan terms a quote is computed from. SalaryDay is optional;
// zero means the borrower has no fixed salary day.
type Terms struct {
	Principal  decimal.Decimal `json:"principal"`
	TermDays   int             `json:"term_days"`
	StartDate  time.Time       `json:"start_date"`
	AnnualRate decimal.Decimal `json:"annual_rate"`
	SalaryDay  int             `json:"salary_day,omitempty"`
}

// Quote is the computed fee and schedule breakdown.
type Quote struct {
	InitiationFee     decimal.Decimal `json:"initiation_fee"`
	MonthlyServiceFee decimal.Decimal `json:"monthly_service_fee"`
	TotalServiceFee   decimal.Decimal `json:"total_service_fee"`
	Interest          decimal.Decimal `json:"interest"`
	TotalRepayable    decimal.Decimal `json:"total_repayable"`
	NextPaymentDate   time.Time       `json:"next_payment_date"`
	Months            int             `json:"months"`
}

// Calculator computes quotes against a fee table.
type Calculator struct {
	table Table
}

// NewCalculator creates a calculator over the given fee table
func NewCalculator(table Table) *Calculator {
	return &Calculator{table: table}
}

// Calculate computes the full quote for the given terms.
func (c *Calculator) Calculate(terms Terms) (*Quote, error) {
	if terms.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("principal must be positive")
	}
	if terms.TermDays <= 0 {
		return nil, fmt.Errorf("term must be positive")
	}
	if terms.SalaryDay < 0 || terms.SalaryDay > 31 {
		return nil, fmt.Errorf("salary day must be between 1 and 31")
	}
	if terms.StartDate.IsZero() {
		return nil, fmt.Errorf("start date is required")
	}

	months := (terms.TermDays + 29) / 30

	initiation := c.InitiationFee(terms.Principal)
	monthlyService := c.table.MonthlyServiceFee
	totalService := monthlyService.Mul(decimal.NewFromInt(int64(months)))

	// Simple interest over the term, 365-day year.
	interest := terms.Principal.
		Mul(terms.AnnualRate).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(int64(terms.TermDays))).
		Div(decimal.NewFromInt(365)).
		Round(2)

	total := terms.Principal.
		Add(initiation).
		Add(totalService).
		Add(interest)

	return &Quote{
		InitiationFee:     initiation,
		MonthlyServiceFee: monthlyService,
		TotalServiceFee:   totalService,
		Interest:          interest,
		TotalRepayable:    total,
		NextPaymentDate:   NextPaymentDate(terms.StartDate, terms.TermDays, terms.SalaryDay),
		Months:            months,
	}, nil
}

// InitiationFee computes the banded initiation fee for a principal, capped
// per the table.
func (c *Calculator) InitiationFee(principal decimal.Decimal) decimal.Decimal {
	fee := c.table.InitiationBaseFee
	if principal.GreaterThan(c.table.InitiationThreshold) {
		excess := principal.Sub(c.table.InitiationThreshold)
		fee = fee.Add(excess.Mul(c.table.InitiationMarginalRate))
	}
	if fee.GreaterThan(c.table.InitiationCap) {
		fee = c.table.InitiationCap
	}
	return fee.Round(2)
}

// Installment is one entry of a materialized payment schedule.
type Installment struct {
	Number  int             `json:"number"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// Schedule splits the total repayable into equal monthly installments due on
// the salary-day occurrences after the start date. The final installment
// absorbs the rounding remainder.
func (c *Calculator) Schedule(terms Terms, quote *Quote) []Installment {
	if quote.Months <= 0 {
		return nil
	}

	per := quote.TotalRepayable.Div(decimal.NewFromInt(int64(quote.Months))).Round(2)
	installments := make([]Installment, 0, quote.Months)

	due := NextPaymentDate(terms.StartDate, terms.TermDays, terms.SalaryDay)
	remaining := quote.TotalRepayable
	for i := 1; i <= quote.Months; i++ {
		amount := per
		if i == quote.Months {
			amount = remaining
		}
		installments = append(installments, Installment{Number: i, DueDate: due, Amount: amount})
		remaining = remaining.Sub(amount)
		due = nextOccurrence(due, terms.SalaryDay)
	}
	return installments
}
