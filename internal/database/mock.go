package database

import (
	"context"

	"github.com/sirupsen/logrus"
)

// mockBackend is the degraded-mode floor of the fallback chain. Every read
// returns one synthetic authenticated user so the login path stays testable
// during a partial outage; every write reports success with a synthetic id.
// It must never serve a real deployment.
type mockBackend struct {
	log *logrus.Entry
}

func newMockBackend(log *logrus.Entry) Backend {
	log.Warn("ALL BACKENDS FAILED - running in degraded mock mode; authentication testing only, no data is persisted")
	return &mockBackend{log: log}
}

func (m *mockBackend) Kind() Kind { return KindDegraded }

func (m *mockBackend) Query(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	return []Row{{
		"id":       int64(1),
		"username": "degraded",
		"email":    "degraded@localhost",
		"password": "$2b$12$degraded-mode-placeholder-hash",
	}}, nil
}

func (m *mockBackend) Exec(ctx context.Context, stmt string, args ...any) (Result, error) {
	return Result{InsertID: 1, RowsChanged: 1}, nil
}

func (m *mockBackend) Close() error { return nil }
