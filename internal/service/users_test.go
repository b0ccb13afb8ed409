package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	ctx := context.Background()
	svc := NewUserService(gw, NewAuditor(gw, logger), logger)

	id, err := svc.Register(ctx, "djohn", "djohn@example.com", "s3cret-pass", testActor)
	require.NoError(t, err)
	require.NotZero(t, id)

	u, err := svc.Authenticate(ctx, "djohn", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "djohn@example.com", u.Email)

	// The stored password is a hash, never the plaintext.
	row, err := gw.Get(ctx, "SELECT password FROM users WHERE id = ?", id)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", row.String("password"))

	_, err = svc.Authenticate(ctx, "djohn", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "s3cret-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.Equal(t, int64(1), auditCount(t, gw, "user_registered"))
}

func TestPasswordResetLifecycle(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	ctx := context.Background()
	svc := NewUserService(gw, NewAuditor(gw, logger), logger)

	_, err := svc.Register(ctx, "resetme", "resetme@example.com", "old-pass", testActor)
	require.NoError(t, err)

	token, err := svc.StartPasswordReset(ctx, "resetme@example.com", testActor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, svc.CompleteReset(ctx, token, "new-pass", testActor))

	_, err = svc.Authenticate(ctx, "resetme", "old-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	u, err := svc.Authenticate(ctx, "resetme", "new-pass")
	require.NoError(t, err)
	require.Equal(t, "resetme", u.Username)

	// Tokens are single use.
	require.ErrorIs(t, svc.CompleteReset(ctx, token, "another", testActor), ErrInvalidCredentials)

	require.Equal(t, int64(1), auditCount(t, gw, "password_reset_requested"))
	require.Equal(t, int64(1), auditCount(t, gw, "password_reset_completed"))
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	svc := NewUserService(gw, NewAuditor(gw, logger), logger)

	token, err := svc.StartPasswordReset(context.Background(), "ghost@example.com", testActor)
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestCompleteResetRejectsBadToken(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	svc := NewUserService(gw, NewAuditor(gw, logger), logger)

	err := svc.CompleteReset(context.Background(), "not-a-token", "pw", testActor)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
