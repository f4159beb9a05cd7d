package fees

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Table is the regulated fee table. The values are data, not code: deployments
// load the current table from a JSON file so a regulatory change never touches
// call sites. Defaults follow the short-term credit caps.
type Table struct {
	// Initiation fee: BaseFee on the first Threshold of principal, plus
	// MarginalRate on the remainder, capped at Cap (excl. VAT).
	InitiationBaseFee      decimal.Decimal `json:"initiation_base_fee"`
	InitiationThreshold    decimal.Decimal `json:"initiation_threshold"`
	InitiationMarginalRate decimal.Decimal `json:"initiation_marginal_rate"`
	InitiationCap          decimal.Decimal `json:"initiation_cap"`

	MonthlyServiceFee decimal.Decimal `json:"monthly_service_fee"`
	VATRate           decimal.Decimal `json:"vat_rate"`
}

// DefaultTable returns the statutory caps used when no table file is
// configured.
func DefaultTable() Table {
	return Table{
		InitiationBaseFee:      decimal.NewFromInt(165),
		InitiationThreshold:    decimal.NewFromInt(1000),
		InitiationMarginalRate: decimal.RequireFromString("0.10"),
		InitiationCap:          decimal.NewFromInt(1050),
		MonthlyServiceFee:      decimal.NewFromInt(60),
		VATRate:                decimal.RequireFromString("0.15"),
	}
}

// LoadTable reads a fee table from a JSON file, falling back to defaults for
// any field the file leaves zero.
func LoadTable(path string) (Table, error) {
	table := DefaultTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("failed to read fee table: %w", err)
	}

	var loaded Table
	if err := json.Unmarshal(data, &loaded); err != nil {
		return table, fmt.Errorf("failed to parse fee table: %w", err)
	}

	if !loaded.InitiationBaseFee.IsZero() {
		table.InitiationBaseFee = loaded.InitiationBaseFee
	}
	if !loaded.InitiationThreshold.IsZero() {
		table.InitiationThreshold = loaded.InitiationThreshold
	}
	if !loaded.InitiationMarginalRate.IsZero() {
		table.InitiationMarginalRate = loaded.InitiationMarginalRate
	}
	if !loaded.InitiationCap.IsZero() {
		table.InitiationCap = loaded.InitiationCap
	}
	if !loaded.MonthlyServiceFee.IsZero() {
		table.MonthlyServiceFee = loaded.MonthlyServiceFee
	}
	if !loaded.VATRate.IsZero() {
		table.VATRate = loaded.VATRate
	}
	return table, nil
}
