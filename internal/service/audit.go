package service

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
)

// Actor identifies who (or what) performed a state-changing operation.
type Actor struct {
	IP        string
	UserAgent string
}

// Auditor appends immutable audit rows for every state-changing operation.
// Audit persistence failures are logged, never surfaced to the mutating path;
// a failed audit write must not roll back the business mutation.
type Auditor struct {
	Gateway *database.Gateway
	Log     *logrus.Entry
}

func NewAuditor(gw *database.Gateway, logger *logrus.Logger) *Auditor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Auditor{Gateway: gw, Log: logger.WithField("component", "audit")}
}

// Record writes one audit_log row. recordID of zero is stored as NULL for
// actions that touch no single row (uploads, sweeps).
func (a *Auditor) Record(ctx context.Context, userID int64, action, tableName string, recordID int64, actor Actor, detail map[string]any) {
	payload := "{}"
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			payload = string(b)
		} else {
			a.Log.WithError(err).WithField("action", action).Warn("audit detail not serialisable")
		}
	}

	var rid any
	if recordID != 0 {
		rid = recordID
	}

	_, err := a.Gateway.Run(ctx, `
		INSERT INTO audit_log (user_id, action, table_name, record_id, ip_address, user_agent, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, action, tableName, rid, actor.IP, actor.UserAgent, payload)
	if err != nil {
		a.Log.WithError(err).WithFields(logrus.Fields{
			"action": action,
			"table":  tableName,
		}).Error("audit write failed")
	}
}
