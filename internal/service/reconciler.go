package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
)

const (
	// amountEpsilon bounds the acceptable gap between a transaction's
	// magnitude and an expense amount.
	amountEpsilon = 0.01
	// dateWindow is the maximum calendar distance between the two sides
	// of a match.
	dateWindow = 7 * 24 * time.Hour
	// fullMatchConfidence is assigned when both criteria hold. Partial
	// matches at lower confidence are not emitted.
	fullMatchConfidence = 0.95
)

// UnreconciledTransaction is one bank-feed line awaiting a match.
type UnreconciledTransaction struct {
	ID          int64
	Date        time.Time
	Description string
	Amount      float64
}

// UnreconciledExpense is one logged expense awaiting a match.
type UnreconciledExpense struct {
	ID          int64
	Date        time.Time
	Description string
	Amount      float64
}

// MatchCriteria snapshots why a candidate was accepted.
type MatchCriteria struct {
	AmountMatch           bool    `json:"amount_match"`
	DateMatch             bool    `json:"date_match"`
	DescriptionSimilarity float64 `json:"description_similarity"`
}

// Match links one bank transaction to one expense.
type Match struct {
	TransactionID int64
	ExpenseID     int64
	Confidence    float64
	Criteria      MatchCriteria
}

// FindMatches generates the cross product of the two unreconciled sets and
// accepts a pair when the amount magnitudes agree within epsilon and the
// dates fall within the window. Each record matches at most once per run.
// Pure: persistence is the caller's concern.
func FindMatches(transactions []UnreconciledTransaction, expenses []UnreconciledExpense) []Match {
	var matches []Match
	usedExpenses := make(map[int64]bool)

	for _, tx := range transactions {
		for _, exp := range expenses {
			if usedExpenses[exp.ID] {
				continue
			}

			amountMatch := math.Abs(math.Abs(tx.Amount)-exp.Amount) < amountEpsilon
			dateMatch := absDuration(tx.Date.Sub(exp.Date)) < dateWindow
			if !amountMatch || !dateMatch {
				continue
			}

			matches = append(matches, Match{
				TransactionID: tx.ID,
				ExpenseID:     exp.ID,
				Confidence:    fullMatchConfidence,
				Criteria: MatchCriteria{
					AmountMatch:           true,
					DateMatch:             true,
					DescriptionSimilarity: descriptionSimilarity(tx.Description, exp.Description),
				},
			})
			usedExpenses[exp.ID] = true
			break
		}
	}
	return matches
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// descriptionSimilarity scores how close the two descriptions are, 0..1.
// Recorded in the criteria snapshot for human review; it does not gate the
// match.
func descriptionSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// Reconciler runs the auto-match sweep and persists accepted matches through
// the gateway. Sweeps are expected to be triggered serially; the sweep is not
// re-entrant-safe.
type Reconciler struct {
	Gateway *database.Gateway
	Audit   *Auditor
	Log     *logrus.Entry
}

func NewReconciler(gw *database.Gateway, audit *Auditor, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reconciler{Gateway: gw, Audit: audit, Log: logger.WithField("component", "reconciler")}
}

// SweepResult summarises one auto-match pass.
type SweepResult struct {
	SweepID      string
	Transactions int
	Expenses     int
	Matched      int
	Created      int
}

// AutoMatch loads both unreconciled sets, generates matches, and persists
// each accepted match best-effort: a failure on one candidate is logged and
// the sweep continues. Matched records are flagged reconciled so subsequent
// sweeps exclude them.
func (r *Reconciler) AutoMatch(ctx context.Context, userID int64, actor Actor) (SweepResult, error) {
	res := SweepResult{SweepID: uuid.NewString()}

	transactions, err := r.loadTransactions(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("load unreconciled transactions: %w", err)
	}
	expenses, err := r.loadExpenses(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("load unreconciled expenses: %w", err)
	}
	res.Transactions = len(transactions)
	res.Expenses = len(expenses)

	matches := FindMatches(transactions, expenses)
	res.Matched = len(matches)

	now := time.Now().UTC().Format(time.RFC3339)
	for _, m := range matches {
		criteria, _ := json.Marshal(m.Criteria)

		_, err := r.Gateway.Run(ctx, `
			INSERT INTO reconciliation_matches
			(user_id, match_type, source_table, source_id, target_table, target_id, match_confidence, match_criteria, reconciled_by)
			VALUES (?, 'exact', 'bank_transactions', ?, 'campaign_expenses', ?, ?, ?, 'system')`,
			userID, m.TransactionID, m.ExpenseID, m.Confidence, string(criteria))
		if err != nil {
			r.Log.WithError(err).WithFields(logrus.Fields{
				"transaction_id": m.TransactionID,
				"expense_id":     m.ExpenseID,
			}).Error("match persistence failed; continuing sweep")
			continue
		}

		if err := r.markReconciled(ctx, "bank_transactions", m.TransactionID, now); err != nil {
			r.Log.WithError(err).WithField("transaction_id", m.TransactionID).Error("reconciled flag update failed")
		}
		if err := r.markReconciled(ctx, "campaign_expenses", m.ExpenseID, now); err != nil {
			r.Log.WithError(err).WithField("expense_id", m.ExpenseID).Error("reconciled flag update failed")
		}

		r.Audit.Record(ctx, userID, "reconciliation_auto_match", "reconciliation_matches", 0, actor, map[string]any{
			"sweep_id":       res.SweepID,
			"transaction_id": m.TransactionID,
			"expense_id":     m.ExpenseID,
			"confidence":     m.Confidence,
		})
		res.Created++
	}

	r.Log.WithFields(logrus.Fields{
		"sweep_id": res.SweepID,
		"matched":  res.Matched,
		"created":  res.Created,
	}).Info("auto-reconciliation complete")
	return res, nil
}

func (r *Reconciler) markReconciled(ctx context.Context, table string, id int64, when string) error {
	// Table names come from the two fixed literals above, never user input.
	_, err := r.Gateway.Run(ctx,
		"UPDATE "+table+" SET reconciled = TRUE, reconciled_date = ? WHERE id = ?", when, id)
	return err
}

func (r *Reconciler) loadTransactions(ctx context.Context, userID int64) ([]UnreconciledTransaction, error) {
	rows, err := r.Gateway.Query(ctx, `
		SELECT id, transaction_date, description, amount
		FROM bank_transactions
		WHERE user_id = ? AND reconciled = FALSE`, userID)
	if err != nil {
		return nil, err
	}
	var out []UnreconciledTransaction
	for _, row := range rows {
		date, err := parseDate(row.String("transaction_date"))
		if err != nil {
			r.Log.WithField("id", row.Int64("id")).Warn("transaction date unparseable; excluded from sweep")
			continue
		}
		out = append(out, UnreconciledTransaction{
			ID:          row.Int64("id"),
			Date:        date,
			Description: row.String("description"),
			Amount:      row.Float("amount"),
		})
	}
	return out, nil
}

func (r *Reconciler) loadExpenses(ctx context.Context, userID int64) ([]UnreconciledExpense, error) {
	rows, err := r.Gateway.Query(ctx, `
		SELECT id, date_incurred, description, amount
		FROM campaign_expenses
		WHERE user_id = ? AND reconciled = FALSE`, userID)
	if err != nil {
		return nil, err
	}
	var out []UnreconciledExpense
	for _, row := range rows {
		date, err := parseDate(row.String("date_incurred"))
		if err != nil {
			r.Log.WithField("id", row.Int64("id")).Warn("expense date unparseable; excluded from sweep")
			continue
		}
		out = append(out, UnreconciledExpense{
			ID:          row.Int64("id"),
			Date:        date,
			Description: row.String("description"),
			Amount:      row.Float("amount"),
		})
	}
	return out, nil
}

// parseDate accepts the date shapes the two backends hand back.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
