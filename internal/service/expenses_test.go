package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpenseAddAutoClassifies(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	ctx := context.Background()
	userID := seedUser(t, gw, "spender")

	svc := NewExpenseService(gw, NewAuditor(gw, logger), logger)
	id, c, err := svc.Add(ctx, ExpenseInput{
		UserID:       userID,
		Amount:       250.00,
		Description:  "Flyers for the election",
		Vendor:       "Campaign Print Shop",
		DateIncurred: "2026-01-20",
	}, testActor)
	require.NoError(t, err)
	require.Equal(t, ClassificationCampaign, c.Classification)

	row, err := gw.Get(ctx, `
		SELECT classification, confidence_score, manual_override, fec_reportable
		FROM campaign_expenses WHERE id = ?`, id)
	require.NoError(t, err)
	require.Equal(t, ClassificationCampaign, row.String("classification"))
	require.Equal(t, 0.90, row.Float("confidence_score"))
	require.False(t, row.Bool("manual_override"))
	require.True(t, row.Bool("fec_reportable"), "campaign expense at $250 is reportable")

	require.Equal(t, int64(1), auditCount(t, gw, "expense_created"))
}

func TestExpenseAddPersonalNeverReportable(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	ctx := context.Background()
	userID := seedUser(t, gw, "spender2")

	svc := NewExpenseService(gw, NewAuditor(gw, logger), logger)
	id, c, err := svc.Add(ctx, ExpenseInput{
		UserID:       userID,
		Amount:       500.00,
		Description:  "Family vacation",
		Vendor:       "Airline",
		DateIncurred: "2026-02-01",
	}, testActor)
	require.NoError(t, err)
	require.Equal(t, ClassificationPersonal, c.Classification)

	row, err := gw.Get(ctx, "SELECT fec_reportable FROM campaign_expenses WHERE id = ?", id)
	require.NoError(t, err)
	require.False(t, row.Bool("fec_reportable"))
}

func TestExpenseManualClassificationOnEntry(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	ctx := context.Background()
	userID := seedUser(t, gw, "spender3")

	svc := NewExpenseService(gw, NewAuditor(gw, logger), logger)
	id, c, err := svc.Add(ctx, ExpenseInput{
		UserID:         userID,
		Amount:         40.00,
		Description:    "Misc",
		Vendor:         "Shop",
		DateIncurred:   "2026-02-05",
		Classification: ClassificationCampaign,
	}, testActor)
	require.NoError(t, err)
	require.Equal(t, 1.0, c.Confidence)

	row, err := gw.Get(ctx, "SELECT manual_override, fec_reportable FROM campaign_expenses WHERE id = ?", id)
	require.NoError(t, err)
	require.True(t, row.Bool("manual_override"))
	require.False(t, row.Bool("fec_reportable"), "below threshold even though campaign")

	_, _, err = svc.Add(ctx, ExpenseInput{UserID: userID, Amount: 1, Classification: "bogus"}, testActor)
	require.Error(t, err)
}

func TestExpenseOverrideClassification(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	ctx := context.Background()
	userID := seedUser(t, gw, "spender4")

	svc := NewExpenseService(gw, NewAuditor(gw, logger), logger)
	id, c, err := svc.Add(ctx, ExpenseInput{
		UserID:       userID,
		Amount:       350.00,
		Description:  "Red clown nose for performance art project",
		Vendor:       "French Art Supply Co",
		DateIncurred: "2026-01-15",
	}, testActor)
	require.NoError(t, err)
	require.Equal(t, ClassificationPending, c.Classification)

	require.NoError(t, svc.OverrideClassification(ctx, userID, id, ClassificationCampaign, "Prop for rally", testActor))

	row, err := gw.Get(ctx, `
		SELECT classification, manual_override, fec_reportable FROM campaign_expenses WHERE id = ?`, id)
	require.NoError(t, err)
	require.Equal(t, ClassificationCampaign, row.String("classification"))
	require.True(t, row.Bool("manual_override"))
	require.True(t, row.Bool("fec_reportable"))

	// Moving it to personal clears reportability.
	require.NoError(t, svc.OverrideClassification(ctx, userID, id, ClassificationPersonal, "Actually personal", testActor))
	row, err = gw.Get(ctx, "SELECT fec_reportable FROM campaign_expenses WHERE id = ?", id)
	require.NoError(t, err)
	require.False(t, row.Bool("fec_reportable"))

	require.Error(t, svc.OverrideClassification(ctx, userID, 9999, ClassificationCampaign, "", testActor))
}

func TestExpenseListUnreconciled(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	ctx := context.Background()
	userID := seedUser(t, gw, "lister")

	svc := NewExpenseService(gw, NewAuditor(gw, logger), logger)
	first, _, err := svc.Add(ctx, ExpenseInput{
		UserID: userID, Amount: 50, Description: "Clown nose", Vendor: "Art Supply", DateIncurred: "2026-01-10",
	}, testActor)
	require.NoError(t, err)
	second, _, err := svc.Add(ctx, ExpenseInput{
		UserID: userID, Amount: 250, Description: "Campaign flyers", Vendor: "Print Shop", DateIncurred: "2026-01-12",
	}, testActor)
	require.NoError(t, err)

	list, err := svc.ListUnreconciled(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, first, list[0].ID)
	require.Equal(t, second, list[1].ID)

	_, err = gw.Run(ctx,
		"UPDATE campaign_expenses SET reconciled = TRUE WHERE id = ?", first)
	require.NoError(t, err)

	list, err = svc.ListUnreconciled(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, second, list[0].ID)
}
