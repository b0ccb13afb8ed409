package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
)

// Statutory amounts for the modelled reporting period.
var (
	reportingThreshold = decimal.NewFromInt(200)
	perElectionLimit   = decimal.NewFromInt(3300)
	// Primary and general elections each carry the per-election limit.
	combinedLimit = perElectionLimit.Mul(decimal.NewFromInt(2))
	// A warning fires once a donor's running total passes 90% of the
	// combined limit.
	limitWarningRatio = decimal.NewFromFloat(0.9)
)

// ComplianceResult reports the outcome of a reportability check.
// Non-compliance is a first-class result, not an error.
type ComplianceResult struct {
	Compliant       bool
	Issues          []string
	Recommendations []string
	Reportable      bool
}

// ExpenseRecord is the compliance view of an expense.
type ExpenseRecord struct {
	Amount         float64
	VendorName     string
	Description    string
	ExpenseDate    string
	AuthorizedBy   string
	Classification string
}

// DonationRecord is the compliance view of a contribution.
type DonationRecord struct {
	Amount     float64
	FirstName  string
	LastName   string
	Address    string
	City       string
	State      string
	Zip        string
	Employer   string
	Occupation string
}

// CheckExpense evaluates an expense against reporting rules. Pure.
func CheckExpense(rec ExpenseRecord) ComplianceResult {
	var out ComplianceResult
	amount := decimal.NewFromFloat(rec.Amount)
	out.Reportable = amount.GreaterThanOrEqual(reportingThreshold)

	if strings.TrimSpace(rec.VendorName) == "" {
		out.Issues = append(out.Issues, "Vendor name is required for FEC reporting")
	}
	if strings.TrimSpace(rec.Description) == "" {
		out.Issues = append(out.Issues, "Expense description is required for FEC reporting")
	}
	if strings.TrimSpace(rec.ExpenseDate) == "" {
		out.Issues = append(out.Issues, "Expense date is required for FEC reporting")
	}
	if out.Reportable && strings.TrimSpace(rec.AuthorizedBy) == "" {
		out.Issues = append(out.Issues, "Authorization required for expenses $200 or more")
		out.Recommendations = append(out.Recommendations, "Add authorized party information")
	}

	switch rec.Classification {
	case ClassificationPersonal:
		out.Issues = append(out.Issues, "Personal expenses cannot be reported as campaign expenses")
	case ClassificationPending:
		out.Recommendations = append(out.Recommendations, "Classify expense as campaign or personal before reporting")
	}

	out.Compliant = len(out.Issues) == 0
	return out
}

// CheckDonation evaluates a contribution against reporting rules. Pure.
// Below the reporting threshold no donor identity fields are required; the
// per-election limit applies regardless of threshold.
func CheckDonation(rec DonationRecord) ComplianceResult {
	var out ComplianceResult
	amount := decimal.NewFromFloat(rec.Amount)

	if amount.GreaterThanOrEqual(reportingThreshold) {
		out.Reportable = true

		if strings.TrimSpace(rec.FirstName) == "" || strings.TrimSpace(rec.LastName) == "" {
			out.Issues = append(out.Issues, "Donor name is required for contributions $200 or more")
		}
		if strings.TrimSpace(rec.Address) == "" || strings.TrimSpace(rec.City) == "" ||
			strings.TrimSpace(rec.State) == "" || strings.TrimSpace(rec.Zip) == "" {
			out.Issues = append(out.Issues, "Complete donor address is required for contributions $200 or more")
		}
		if strings.TrimSpace(rec.Employer) == "" {
			out.Issues = append(out.Issues, "Donor employer is required for contributions $200 or more")
		}
		if strings.TrimSpace(rec.Occupation) == "" {
			out.Issues = append(out.Issues, "Donor occupation is required for contributions $200 or more")
		}
	}

	if amount.GreaterThan(perElectionLimit) {
		out.Issues = append(out.Issues, "Contribution exceeds per-election limit of $3,300")
	}

	out.Compliant = len(out.Issues) == 0
	return out
}

// LimitStatus reports a donor's position against the combined
// primary+general contribution limit.
type LimitStatus struct {
	ExistingTotal   decimal.Decimal
	NewContribution decimal.Decimal
	NewTotal        decimal.Decimal
	Limit           decimal.Decimal
	WithinLimit     bool
	Remaining       decimal.Decimal
	Warning         string
}

// Compliance runs the checks that need persisted state.
type Compliance struct {
	Gateway *database.Gateway
}

// normalizeDonorName folds case and collapses runs of whitespace so trivially
// different spellings of one donor aggregate together. Identity is still the
// concatenated name for compatibility with existing records; see DESIGN.md.
func normalizeDonorName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ContributionLimit sums the donor's prior contributions from source rows
// (never a cached counter) and evaluates the post-addition total against the
// combined statutory limit.
func (c *Compliance) ContributionLimit(ctx context.Context, userID int64, donorName string, newAmount float64) (LimitStatus, error) {
	row, err := c.Gateway.Get(ctx, `
		SELECT COALESCE(SUM(contribution_amount), 0) AS total
		FROM campaign_donors
		WHERE user_id = ? AND LOWER(first_name || ' ' || last_name) = ?`,
		userID, normalizeDonorName(donorName))
	if err != nil {
		return LimitStatus{}, fmt.Errorf("sum contributions: %w", err)
	}

	existing := decimal.NewFromFloat(0)
	if row != nil {
		existing = decimal.NewFromFloat(row.Float("total"))
	}
	contribution := decimal.NewFromFloat(newAmount)
	newTotal := existing.Add(contribution)

	status := LimitStatus{
		ExistingTotal:   existing,
		NewContribution: contribution,
		NewTotal:        newTotal,
		Limit:           combinedLimit,
		WithinLimit:     newTotal.LessThanOrEqual(combinedLimit),
		Remaining:       decimal.Max(decimal.Zero, combinedLimit.Sub(newTotal)),
	}
	if newTotal.GreaterThan(combinedLimit.Mul(limitWarningRatio)) {
		status.Warning = "Approaching contribution limit"
	}
	return status, nil
}
