package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntriesAppendAndList(t *testing.T) {
	t.Parallel()

	gw, logger := newTestGateway(t)
	ctx := context.Background()
	userID := seedUser(t, gw, "notetaker")
	otherID := seedUser(t, gw, "bystander")

	svc := &EntryService{Gateway: gw, Audit: NewAuditor(gw, logger)}

	_, err := svc.Add(ctx, userID, "", "Call the county clerk", "todo", testActor)
	require.NoError(t, err)
	taskID, err := svc.Add(ctx, userID, "task", "Book the hall", "events", testActor)
	require.NoError(t, err)
	_, err = svc.Add(ctx, otherID, "note", "Not yours", "", testActor)
	require.NoError(t, err)

	entries, err := svc.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first; ties on created_at break by id.
	require.Equal(t, taskID, entries[0].ID)
	require.Equal(t, "task", entries[0].Type)
	require.Equal(t, "note", entries[1].Type, "empty type defaults to note")

	require.Equal(t, int64(3), auditCount(t, gw, "entry_created"))
}
