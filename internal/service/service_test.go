package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
)

var testActor = Actor{IP: "127.0.0.1", UserAgent: "tests"}

func newTestGateway(t *testing.T) (*database.Gateway, *logrus.Logger) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	backend := database.Select(database.Options{
		Descriptor: "sqlite:" + filepath.Join(t.TempDir(), "test.db"),
		Logger:     logger,
	})
	gw := database.New(backend, logger)
	t.Cleanup(func() { _ = gw.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, gw.Ready(ctx))
	return gw, logger
}

// seedUser creates a user row so foreign keys on user_id are satisfiable.
func seedUser(t *testing.T, gw *database.Gateway, username string) int64 {
	t.Helper()

	res, err := gw.Run(context.Background(),
		"INSERT INTO users (username, password, email) VALUES (?, ?, ?)",
		username, "hash", username+"@example.com")
	require.NoError(t, err)
	return res.InsertID
}

func auditCount(t *testing.T, gw *database.Gateway, action string) int64 {
	t.Helper()

	row, err := gw.Get(context.Background(),
		"SELECT COUNT(*) AS n FROM audit_log WHERE action = ?", action)
	require.NoError(t, err)
	require.NotNil(t, row)
	return row.Int64("n")
}
