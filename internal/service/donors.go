package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
)

// DonorService records contributions and keeps compliance status current.
// Cumulative donor totals are always re-aggregated from contribution rows,
// never maintained as incremental counters.
type DonorService struct {
	Gateway    *database.Gateway
	Audit      *Auditor
	Compliance *Compliance
	Log        *logrus.Entry
}

func NewDonorService(gw *database.Gateway, audit *Auditor, logger *logrus.Logger) *DonorService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DonorService{
		Gateway:    gw,
		Audit:      audit,
		Compliance: &Compliance{Gateway: gw},
		Log:        logger.WithField("component", "donors"),
	}
}

// ContributionInput is one incoming contribution.
type ContributionInput struct {
	UserID     int64
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	Zip        string
	Employer   string
	Occupation string
	Amount     float64
	Date       string
	Type       string
}

// RecordContribution checks the contribution limit, persists the row, and
// audits the mutation. An over-limit contribution is still recorded (the
// correction workflow is a human decision) but its compliance status says so.
func (s *DonorService) RecordContribution(ctx context.Context, in ContributionInput, actor Actor) (int64, LimitStatus, error) {
	donorName := in.FirstName + " " + in.LastName
	status, err := s.Compliance.ContributionLimit(ctx, in.UserID, donorName, in.Amount)
	if err != nil {
		return 0, status, fmt.Errorf("limit check: %w", err)
	}

	complianceStatus := "compliant"
	if !status.WithinLimit {
		complianceStatus = "over_limit"
	}

	contributionType := in.Type
	if contributionType == "" {
		contributionType = "primary"
	}

	res, err := s.Gateway.Run(ctx, `
		INSERT INTO campaign_donors
		(user_id, first_name, last_name, email, phone, address, city, state, zip,
		 employer, occupation, contribution_amount, contribution_date, contribution_type, compliance_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.FirstName, in.LastName, in.Email, in.Phone, in.Address, in.City,
		in.State, in.Zip, in.Employer, in.Occupation, in.Amount, in.Date,
		contributionType, complianceStatus)
	if err != nil {
		return 0, status, fmt.Errorf("insert contribution: %w", err)
	}

	if status.Warning != "" {
		s.Log.WithFields(logrus.Fields{
			"donor":     donorName,
			"new_total": status.NewTotal.String(),
		}).Warn(status.Warning)
	}

	s.Audit.Record(ctx, in.UserID, "contribution_recorded", "campaign_donors", res.InsertID, actor, map[string]any{
		"amount":            in.Amount,
		"compliance_status": complianceStatus,
		"within_limit":      status.WithinLimit,
	})
	return res.InsertID, status, nil
}

// Total re-aggregates a donor's cumulative contributions from source rows.
func (s *DonorService) Total(ctx context.Context, userID int64, donorName string) (decimal.Decimal, error) {
	row, err := s.Gateway.Get(ctx, `
		SELECT COALESCE(SUM(contribution_amount), 0) AS total
		FROM campaign_donors
		WHERE user_id = ? AND LOWER(first_name || ' ' || last_name) = ?`,
		userID, normalizeDonorName(donorName))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum contributions: %w", err)
	}
	if row == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromFloat(row.Float("total")), nil
}
