package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/anyme/vcbot/internal/db"
)

func tableFor(list db.List) (string, error) {
	switch list {
	case db.ListMuted:
		return "muted_members", nil
	case db.ListTethered:
		return "tethered_members", nil
	}
	return "", fmt.Errorf("unknown moderation list %q", list)
}

// UpsertModerationRecord inserts the record or refreshes applied_by and
// applied_at of an existing one. The original name of an existing record is
// kept as it was first captured.
func (c *sqliteClient) UpsertModerationRecord(ctx context.Context, record *db.ModerationRecord) error {
	table, err := tableFor(record.List)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	query := `
		INSERT INTO ` + table + ` (member_id, original_name, applied_by, applied_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET
		applied_by = excluded.applied_by,
		applied_at = excluded.applied_at
	`
	if _, err := c.db.ExecContext(ctx, query,
		record.MemberID,
		record.OriginalName,
		record.AppliedBy,
		record.AppliedAt.UTC(),
	); err != nil {
		return errors.Wrapf(err, "upsert %s record", record.List)
	}
	return nil
}

// TakeModerationRecord reads and deletes a record in one transaction.
// It returns nil without error when the member has no record.
func (c *sqliteClient) TakeModerationRecord(ctx context.Context, list db.List, memberID string) (*db.ModerationRecord, error) {
	table, err := tableFor(list)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin take")
	}
	defer tx.Rollback()

	record := &db.ModerationRecord{}
	err = tx.GetContext(ctx, record, `
		SELECT member_id, original_name, applied_by, applied_at
		FROM `+table+`
		WHERE member_id = ?
	`, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "select %s record", list)
	}
	record.List = list

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE member_id = ?`, memberID); err != nil {
		return nil, errors.Wrapf(err, "delete %s record", list)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit take")
	}
	return record, nil
}

func (c *sqliteClient) HasModerationRecord(ctx context.Context, list db.List, memberID string) (bool, error) {
	table, err := tableFor(list)
	if err != nil {
		return false, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var found int
	err = c.db.GetContext(ctx, &found, `SELECT 1 FROM `+table+` WHERE member_id = ? LIMIT 1`, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrapf(err, "lookup %s record", list)
	}
	return true, nil
}

func (c *sqliteClient) ListModerationRecords(ctx context.Context, list db.List) ([]*db.ModerationRecord, error) {
	table, err := tableFor(list)
	if err != nil {
		return nil, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var records []*db.ModerationRecord
	err = c.db.SelectContext(ctx, &records, `
		SELECT member_id, original_name, applied_by, applied_at
		FROM `+table+`
		ORDER BY applied_at, member_id
	`)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s records", list)
	}
	for _, record := range records {
		record.List = list
	}
	return records, nil
}

func (c *sqliteClient) ListMembersByApplier(ctx context.Context, list db.List, appliedBy string) ([]string, error) {
	table, err := tableFor(list)
	if err != nil {
		return nil, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var memberIDs []string
	err = c.db.SelectContext(ctx, &memberIDs, `SELECT member_id FROM `+table+` WHERE applied_by = ? ORDER BY member_id`, appliedBy)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s records by applier", list)
	}
	return memberIDs, nil
}
