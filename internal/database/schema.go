package database

import "context"

// tableDef carries one table's DDL in each backend's native identity and
// timestamp-default syntax.
type tableDef struct {
	name     string
	embedded string
	cloud    string
}

// schemaTables is applied in order on startup. Each statement is idempotent;
// a failure on one table is logged and skipped so a single malformed
// definition cannot keep the rest of the schema down.
var schemaTables = []tableDef{
	{
		name: "users",
		embedded: `CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			email TEXT UNIQUE,
			reset_token TEXT,
			reset_token_expires DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			email TEXT UNIQUE,
			reset_token TEXT,
			reset_token_expires TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "entries",
		embedded: `CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			type TEXT,
			content TEXT,
			tags TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS entries (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			type TEXT,
			content TEXT,
			tags TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "agent_responses",
		embedded: `CREATE TABLE IF NOT EXISTS agent_responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			agent_name TEXT,
			user_message TEXT,
			agent_response TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS agent_responses (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			agent_name TEXT,
			user_message TEXT,
			agent_response TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "campaign_expenses",
		embedded: `CREATE TABLE IF NOT EXISTS campaign_expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			amount DECIMAL(10,2) NOT NULL,
			description TEXT NOT NULL,
			vendor_name TEXT,
			category TEXT,
			subcategory TEXT,
			classification TEXT,
			confidence_score DECIMAL(3,2),
			reasoning TEXT,
			manual_override INTEGER DEFAULT 0,
			authorized_by TEXT,
			fec_reportable INTEGER DEFAULT 0,
			reconciled INTEGER DEFAULT 0,
			reconciled_date DATETIME,
			date_incurred DATE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS campaign_expenses (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			amount DECIMAL(10,2) NOT NULL,
			description TEXT NOT NULL,
			vendor_name TEXT,
			category TEXT,
			subcategory TEXT,
			classification TEXT,
			confidence_score DECIMAL(3,2),
			reasoning TEXT,
			manual_override BOOLEAN DEFAULT FALSE,
			authorized_by TEXT,
			fec_reportable BOOLEAN DEFAULT FALSE,
			reconciled BOOLEAN DEFAULT FALSE,
			reconciled_date TIMESTAMP,
			date_incurred DATE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "campaign_donors",
		embedded: `CREATE TABLE IF NOT EXISTS campaign_donors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			address TEXT,
			city TEXT,
			state TEXT,
			zip TEXT,
			employer TEXT,
			occupation TEXT,
			contribution_amount DECIMAL(10,2),
			contribution_date DATE,
			contribution_type TEXT,
			compliance_status TEXT DEFAULT 'compliant',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS campaign_donors (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			address TEXT,
			city TEXT,
			state TEXT,
			zip TEXT,
			employer TEXT,
			occupation TEXT,
			contribution_amount DECIMAL(10,2),
			contribution_date DATE,
			contribution_type TEXT,
			compliance_status TEXT DEFAULT 'compliant',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "campaign_voters",
		embedded: `CREATE TABLE IF NOT EXISTS campaign_voters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			address TEXT,
			city TEXT,
			county TEXT,
			zip TEXT,
			party_affiliation TEXT,
			support_level TEXT,
			contact_method TEXT,
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS campaign_voters (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			address TEXT,
			city TEXT,
			county TEXT,
			zip TEXT,
			party_affiliation TEXT,
			support_level TEXT,
			contact_method TEXT,
			notes TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "campaign_events",
		embedded: `CREATE TABLE IF NOT EXISTS campaign_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			title TEXT NOT NULL,
			event_type TEXT NOT NULL,
			description TEXT,
			location TEXT,
			event_date DATE NOT NULL,
			expected_attendance INTEGER DEFAULT 0,
			actual_attendance INTEGER DEFAULT 0,
			budget DECIMAL(10,2) DEFAULT 0,
			expenses DECIMAL(10,2) DEFAULT 0,
			status TEXT DEFAULT 'planning',
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS campaign_events (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			title TEXT NOT NULL,
			event_type TEXT NOT NULL,
			description TEXT,
			location TEXT,
			event_date DATE NOT NULL,
			expected_attendance INTEGER DEFAULT 0,
			actual_attendance INTEGER DEFAULT 0,
			budget DECIMAL(10,2) DEFAULT 0,
			expenses DECIMAL(10,2) DEFAULT 0,
			status TEXT DEFAULT 'planning',
			notes TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "bank_transactions",
		embedded: `CREATE TABLE IF NOT EXISTS bank_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			account_name TEXT,
			transaction_date DATE NOT NULL,
			description TEXT NOT NULL,
			amount DECIMAL(10,2) NOT NULL,
			transaction_type TEXT,
			reference_number TEXT,
			balance_after DECIMAL(10,2),
			imported_from TEXT,
			reconciled INTEGER DEFAULT 0,
			reconciled_date DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS bank_transactions (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			account_name TEXT,
			transaction_date DATE NOT NULL,
			description TEXT NOT NULL,
			amount DECIMAL(10,2) NOT NULL,
			transaction_type TEXT,
			reference_number TEXT,
			balance_after DECIMAL(10,2),
			imported_from TEXT,
			reconciled BOOLEAN DEFAULT FALSE,
			reconciled_date TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "reconciliation_matches",
		embedded: `CREATE TABLE IF NOT EXISTS reconciliation_matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			match_type TEXT,
			source_table TEXT NOT NULL,
			source_id INTEGER NOT NULL,
			target_table TEXT NOT NULL,
			target_id INTEGER NOT NULL,
			match_confidence DECIMAL(3,2),
			match_criteria TEXT,
			reconciled_by TEXT DEFAULT 'system',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS reconciliation_matches (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			match_type TEXT,
			source_table TEXT NOT NULL,
			source_id INTEGER NOT NULL,
			target_table TEXT NOT NULL,
			target_id INTEGER NOT NULL,
			match_confidence DECIMAL(3,2),
			match_criteria TEXT,
			reconciled_by TEXT DEFAULT 'system',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	{
		name: "audit_log",
		embedded: `CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER REFERENCES users(id),
			action TEXT NOT NULL,
			table_name TEXT,
			record_id INTEGER,
			ip_address TEXT,
			user_agent TEXT,
			details TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		cloud: `CREATE TABLE IF NOT EXISTS audit_log (
			id SERIAL PRIMARY KEY,
			user_id INTEGER REFERENCES users(id),
			action TEXT NOT NULL,
			table_name TEXT,
			record_id INTEGER,
			ip_address TEXT,
			user_agent TEXT,
			details TEXT,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	},
}

var schemaIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_bank_transactions_reconciled ON bank_transactions(user_id, reconciled)",
	"CREATE INDEX IF NOT EXISTS idx_campaign_expenses_reconciled ON campaign_expenses(user_id, reconciled)",
	"CREATE INDEX IF NOT EXISTS idx_campaign_donors_name ON campaign_donors(user_id, first_name, last_name)",
	"CREATE INDEX IF NOT EXISTS idx_audit_log_user ON audit_log(user_id)",
}

// initSchema brings the schema up table by table and then signals readiness.
// The degraded backend persists nothing, so it skips straight to ready.
func (g *Gateway) initSchema() {
	defer close(g.ready)

	if g.backend.Kind() == KindDegraded {
		g.log.Warn("degraded backend active; schema initialisation skipped")
		return
	}

	ctx := context.Background()
	created := 0
	for _, t := range schemaTables {
		ddl := t.embedded
		if g.backend.Kind() == KindCloud {
			ddl = t.cloud
		}
		if _, err := g.backend.Exec(ctx, ddl); err != nil {
			g.log.WithError(err).WithField("table", t.name).Error("table creation failed; continuing")
			continue
		}
		created++
	}
	for _, ddl := range schemaIndexes {
		if _, err := g.backend.Exec(ctx, ddl); err != nil {
			g.log.WithError(err).Warn("index creation failed; continuing")
		}
	}
	g.log.WithField("tables", created).Info("schema initialised")
}
