package service

import (
	"context"
	"fmt"

	"github.com/DJohnMcD/mcdairmant-campaign-infrastructure/internal/database"
)

// Entry is a free-text note or task owned by a user. Append-only from the
// caller's perspective.
type Entry struct {
	ID        int64
	UserID    int64
	Type      string
	Content   string
	Tags      string
	CreatedAt string
}

// EntryService appends and lists entries.
type EntryService struct {
	Gateway *database.Gateway
	Audit   *Auditor
}

// Add appends one entry.
func (s *EntryService) Add(ctx context.Context, userID int64, entryType, content, tags string, actor Actor) (int64, error) {
	if entryType == "" {
		entryType = "note"
	}
	res, err := s.Gateway.Run(ctx,
		"INSERT INTO entries (user_id, type, content, tags) VALUES (?, ?, ?, ?)",
		userID, entryType, content, tags)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	s.Audit.Record(ctx, userID, "entry_created", "entries", res.InsertID, actor, map[string]any{"type": entryType})
	return res.InsertID, nil
}

// ListByUser returns a user's entries newest first.
func (s *EntryService) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	rows, err := s.Gateway.Query(ctx,
		"SELECT id, user_id, type, content, tags, created_at FROM entries WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, Entry{
			ID:        row.Int64("id"),
			UserID:    row.Int64("user_id"),
			Type:      row.String("type"),
			Content:   row.String("content"),
			Tags:      row.String("tags"),
			CreatedAt: row.String("created_at"),
		})
	}
	return out, nil
}
