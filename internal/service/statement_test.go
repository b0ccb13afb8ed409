package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleStatement = `Date,Description,Amount,Balance,Reference
2024-01-15,"French Art Supply Co - Red clown nose",-50.00,2450.00,TXN123456
2024-01-20,"Campaign Print Shop - Flyers",-250.00,2200.00,TXN123457
2024-01-22,"Grocery Store - Personal",-85.50,2114.50,TXN123458
2024-01-25,"Square - Donation via QR code",25.00,2139.50,TXN123459`

func TestParseStatementSample(t *testing.T) {
	t.Parallel()

	txs := ParseStatement(sampleStatement)
	require.Len(t, txs, 4)

	amounts := make([]float64, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount
	}
	require.Equal(t, []float64{-50.00, -250.00, -85.50, 25.00}, amounts)

	require.Equal(t, "2024-01-15", txs[0].Date)
	require.Equal(t, "French Art Supply Co - Red clown nose", txs[0].Description)
	require.NotNil(t, txs[0].Balance)
	require.Equal(t, 2450.00, *txs[0].Balance)
	require.Equal(t, "TXN123456", txs[0].Reference)
}

func TestParseStatementQuotedCommas(t *testing.T) {
	t.Parallel()

	raw := "Date,Description,Amount,Balance\n" +
		`2024-02-01,"Smith, Jones & Co",-10.00,100.00`
	txs := ParseStatement(raw)
	require.Len(t, txs, 1)
	require.Equal(t, "Smith, Jones & Co", txs[0].Description)
	require.Equal(t, -10.00, txs[0].Amount)
}

func TestParseStatementDropsBadAmounts(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"Date,Description,Amount,Balance",
		"2024-02-01,Okay,-10.00,100.00",
		"2024-02-02,Broken,not-a-number,90.00",
		"",
		"2024-02-03,Short,-5.00", // too few columns
		"2024-02-04,Fine,5.00,95.00",
	}, "\n")
	txs := ParseStatement(raw)
	require.Len(t, txs, 2)
	require.Equal(t, "Okay", txs[0].Description)
	require.Equal(t, "Fine", txs[1].Description)
}

func TestParseStatementOptionalFields(t *testing.T) {
	t.Parallel()

	raw := "Date,Description,Amount,Balance\n2024-02-01,No balance,-10.00,"
	txs := ParseStatement(raw)
	require.Len(t, txs, 1)
	require.Nil(t, txs[0].Balance)
	require.Empty(t, txs[0].Reference)
}

func TestStatementImportPersistsTransactions(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	ctx := context.Background()
	userID := seedUser(t, gw, "importer")

	importer := NewStatementImporter(gw, NewAuditor(gw, logger), logger)
	res, err := importer.Import(ctx, userID, "Campaign Checking", sampleStatement, testActor)
	require.NoError(t, err)
	require.Equal(t, 4, res.Parsed)
	require.Equal(t, 4, res.Inserted)
	require.Empty(t, res.Errors)

	rows, err := gw.Query(ctx, `
		SELECT description, amount, transaction_type, reconciled
		FROM bank_transactions WHERE user_id = ? ORDER BY id`, userID)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	require.Equal(t, "debit", rows[0].String("transaction_type"))
	require.Equal(t, "credit", rows[3].String("transaction_type"))
	for _, row := range rows {
		require.False(t, row.Bool("reconciled"))
	}

	require.Equal(t, int64(1), auditCount(t, gw, "statement_upload"))
}
