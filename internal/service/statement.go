package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
)

// StatementTransaction is one normalised line of a bank statement.
type StatementTransaction struct {
	Date        string
	Description string
	Amount      float64
	Balance     *float64
	Reference   string
}

// ParseStatement converts raw delimited bank-statement text into normalised
// transactions. The header line is skipped; rows whose amount fails numeric
// parsing are dropped rather than aborting the import. The caller compares
// input line count against the returned row count to report discrepancies.
func ParseStatement(raw string) []StatementTransaction {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	var out []StatementTransaction

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		fields := splitStatementLine(line)
		if len(fields) < 4 {
			continue
		}

		amount, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}

		t := StatementTransaction{
			Date:        fields[0],
			Description: fields[1],
			Amount:      amount,
		}
		if fields[3] != "" {
			if bal, err := strconv.ParseFloat(fields[3], 64); err == nil {
				t.Balance = &bal
			}
		}
		if len(fields) > 4 {
			t.Reference = fields[4]
		}
		out = append(out, t)
	}
	return out
}

// splitStatementLine tokenizes on commas while respecting double-quoted
// fields: a quote toggles the in-quotes flag and a comma only splits when the
// flag is off. Quotes themselves are not emitted.
func splitStatementLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// StatementImporter persists parsed statements as bank transactions.
type StatementImporter struct {
	Gateway *database.Gateway
	Audit   *Auditor
	Log     *logrus.Entry
}

func NewStatementImporter(gw *database.Gateway, audit *Auditor, logger *logrus.Logger) *StatementImporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StatementImporter{Gateway: gw, Audit: audit, Log: logger.WithField("component", "statement-import")}
}

// ImportResult summarises one statement upload.
type ImportResult struct {
	Parsed   int
	Inserted int
	Errors   []string
}

// Import parses raw statement text and inserts each transaction, deriving
// debit/credit from the amount sign. Insert failures are collected per row;
// the upload itself is audited once.
func (s *StatementImporter) Import(ctx context.Context, userID int64, accountName, raw string, actor Actor) (ImportResult, error) {
	transactions := ParseStatement(raw)
	res := ImportResult{Parsed: len(transactions)}

	for i, t := range transactions {
		txType := "credit"
		if t.Amount < 0 {
			txType = "debit"
		}

		var balance any
		if t.Balance != nil {
			balance = *t.Balance
		}
		var reference any
		if t.Reference != "" {
			reference = t.Reference
		}

		_, err := s.Gateway.Run(ctx, `
			INSERT INTO bank_transactions
			(user_id, account_name, transaction_date, description, amount, transaction_type, reference_number, balance_after, imported_from)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'csv_upload')`,
			userID, accountName, t.Date, t.Description, t.Amount, txType, reference, balance)
		if err != nil {
			res.Errors = append(res.Errors, "row "+strconv.Itoa(i+1)+": "+err.Error())
			continue
		}
		res.Inserted++
	}

	s.Audit.Record(ctx, userID, "statement_upload", "bank_transactions", 0, actor, map[string]any{
		"account":  accountName,
		"parsed":   res.Parsed,
		"inserted": res.Inserted,
	})
	s.Log.WithFields(logrus.Fields{
		"account":  accountName,
		"parsed":   res.Parsed,
		"inserted": res.Inserted,
	}).Info("statement imported")
	return res, nil
}
