package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/iamwavecut/tool"

	"github.com/anyme/vcbot/internal/db"
)

func (c *sqliteClient) LogUsage(ctx context.Context, actorID string, action string, at time.Time) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	err := tool.Err(c.db.ExecContext(ctx,
		`INSERT INTO usage_log (actor_id, action, created_at) VALUES (?, ?, ?)`,
		actorID, action, at.UTC(),
	))
	if err != nil {
		return fmt.Errorf("failed to log usage %s: %w", action, err)
	}
	return nil
}

// ListUsage returns the most recent entries of an actor, newest first.
func (c *sqliteClient) ListUsage(ctx context.Context, actorID string, limit int) ([]*db.UsageEntry, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	var entries []*db.UsageEntry
	err := c.db.SelectContext(ctx, &entries, `
		SELECT id, actor_id, action, created_at
		FROM usage_log
		WHERE actor_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}
	return entries, nil
}
