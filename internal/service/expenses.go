package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
)

// ExpenseService handles manual expense entry and classification overrides.
type ExpenseService struct {
	Gateway *database.Gateway
	Audit   *Auditor
	Log     *logrus.Entry
}

func NewExpenseService(gw *database.Gateway, audit *Auditor, logger *logrus.Logger) *ExpenseService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ExpenseService{Gateway: gw, Audit: audit, Log: logger.WithField("component", "expenses")}
}

// ExpenseInput is one manually entered expense. Classification left empty
// means auto-classify; setting it marks the record as a manual override.
type ExpenseInput struct {
	UserID         int64
	Amount         float64
	Description    string
	Vendor         string
	DateIncurred   string
	AuthorizedBy   string
	Classification string
}

// Add persists one expense, auto-classifying unless the caller supplied a
// classification, and derives reportability. Personal expenses are never
// reportable.
func (s *ExpenseService) Add(ctx context.Context, in ExpenseInput, actor Actor) (int64, Classification, error) {
	var c Classification
	manualOverride := false

	if in.Classification != "" {
		if !validClassification(in.Classification) {
			return 0, c, fmt.Errorf("invalid classification %q", in.Classification)
		}
		manualOverride = true
		c = Classification{
			Classification: in.Classification,
			Confidence:     1.0,
			Reason:         "Manually classified on entry",
			Category:       "manual",
		}
	} else {
		c = Classify(in.Vendor, in.Description)
	}

	reportable := c.Classification == ClassificationCampaign &&
		CheckExpense(ExpenseRecord{Amount: in.Amount}).Reportable

	res, err := s.Gateway.Run(ctx, `
		INSERT INTO campaign_expenses
		(user_id, amount, description, vendor_name, category, subcategory, classification,
		 confidence_score, reasoning, manual_override, authorized_by, fec_reportable, date_incurred)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.Amount, in.Description, in.Vendor, c.Category, c.Subcategory,
		c.Classification, c.Confidence, c.Reason, manualOverride, in.AuthorizedBy,
		reportable, in.DateIncurred)
	if err != nil {
		return 0, c, fmt.Errorf("insert expense: %w", err)
	}

	s.Audit.Record(ctx, in.UserID, "expense_created", "campaign_expenses", res.InsertID, actor, map[string]any{
		"amount":          in.Amount,
		"classification":  c.Classification,
		"confidence":      c.Confidence,
		"manual_override": manualOverride,
	})
	return res.InsertID, c, nil
}

// OverrideClassification re-classifies an expense by hand. Amount and date
// stay untouched, so reconciled expenses can still be re-classified; moving
// an expense to personal always clears its reportable flag.
func (s *ExpenseService) OverrideClassification(ctx context.Context, userID, expenseID int64, classification, reason string, actor Actor) error {
	if !validClassification(classification) {
		return fmt.Errorf("invalid classification %q", classification)
	}

	reportable := false
	if classification == ClassificationCampaign {
		row, err := s.Gateway.Get(ctx,
			"SELECT amount FROM campaign_expenses WHERE id = ? AND user_id = ?", expenseID, userID)
		if err != nil {
			return fmt.Errorf("load expense: %w", err)
		}
		if row == nil {
			return fmt.Errorf("expense %d not found", expenseID)
		}
		reportable = CheckExpense(ExpenseRecord{Amount: row.Float("amount")}).Reportable
	}

	res, err := s.Gateway.Run(ctx, `
		UPDATE campaign_expenses
		SET classification = ?, reasoning = ?, manual_override = TRUE, fec_reportable = ?
		WHERE id = ? AND user_id = ?`,
		classification, reason, reportable, expenseID, userID)
	if err != nil {
		return fmt.Errorf("override classification: %w", err)
	}
	if res.RowsChanged == 0 {
		return fmt.Errorf("expense %d not found", expenseID)
	}

	s.Audit.Record(ctx, userID, "expense_reclassified", "campaign_expenses", expenseID, actor, map[string]any{
		"classification": classification,
		"reason":         reason,
	})
	return nil
}

// ExpenseSummary is the listing view of one expense.
type ExpenseSummary struct {
	ID             int64
	Amount         float64
	Description    string
	Vendor         string
	Classification string
	DateIncurred   string
}

// ListUnreconciled returns a user's expenses that no bank transaction has
// been matched against yet, oldest first.
func (s *ExpenseService) ListUnreconciled(ctx context.Context, userID int64) ([]ExpenseSummary, error) {
	rows, err := s.Gateway.Query(ctx, `
		SELECT id, amount, description, vendor_name, classification, date_incurred
		FROM campaign_expenses
		WHERE user_id = ? AND reconciled = FALSE
		ORDER BY date_incurred, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query unreconciled expenses: %w", err)
	}
	out := make([]ExpenseSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, ExpenseSummary{
			ID:             row.Int64("id"),
			Amount:         row.Float("amount"),
			Description:    row.String("description"),
			Vendor:         row.String("vendor_name"),
			Classification: row.String("classification"),
			DateIncurred:   row.String("date_incurred"),
		})
	}
	return out, nil
}

func validClassification(c string) bool {
	return c == ClassificationCampaign || c == ClassificationPersonal || c == ClassificationPending
}
