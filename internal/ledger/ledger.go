// Package ledger is the single source of truth for which members are muted or
// tethered. Every enforcement decision reads it and nothing else.
package ledger

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/db"
	vcerrors "github.com/anyme/vcbot/internal/errors"
)

const lockStripes = 64

// Store is the part of the database client the ledger needs.
type Store interface {
	UpsertModerationRecord(ctx context.Context, record *db.ModerationRecord) error
	TakeModerationRecord(ctx context.Context, list db.List, memberID string) (*db.ModerationRecord, error)
	HasModerationRecord(ctx context.Context, list db.List, memberID string) (bool, error)
	ListModerationRecords(ctx context.Context, list db.List) ([]*db.ModerationRecord, error)
	ListMembersByApplier(ctx context.Context, list db.List, appliedBy string) ([]string, error)
}

type Ledger struct {
	store   Store
	stripes [lockStripes]sync.Mutex
	now     func() time.Time
	logger  *log.Entry
}

func New(store Store) *Ledger {
	return &Ledger{
		store:  store,
		now:    time.Now,
		logger: log.WithField("object", "Ledger"),
	}
}

// WithClock replaces the time source used for applied_at.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// lock serializes mutations of one (list, member) key.
func (l *Ledger) lock(list db.List, memberID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(list))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(memberID))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

// Put creates the record or refreshes who applied it and when.
func (l *Ledger) Put(ctx context.Context, list db.List, memberID string, originalName *string, appliedBy string) error {
	unlock := l.lock(list, memberID)
	defer unlock()

	record := &db.ModerationRecord{
		List:         list,
		MemberID:     memberID,
		OriginalName: originalName,
		AppliedBy:    appliedBy,
		AppliedAt:    l.now(),
	}
	if err := l.store.UpsertModerationRecord(ctx, record); err != nil {
		return &vcerrors.StorageError{Op: "put", List: list.String(), Err: err}
	}
	l.logger.WithFields(log.Fields{
		"list":       list,
		"member_id":  memberID,
		"applied_by": appliedBy,
	}).Debug("record stored")
	return nil
}

// Remove deletes the record and returns the name captured when it was created.
// found is false when the member had no record.
func (l *Ledger) Remove(ctx context.Context, list db.List, memberID string) (originalName *string, found bool, err error) {
	unlock := l.lock(list, memberID)
	defer unlock()

	record, err := l.store.TakeModerationRecord(ctx, list, memberID)
	if err != nil {
		return nil, false, &vcerrors.StorageError{Op: "remove", List: list.String(), Err: err}
	}
	if record == nil {
		return nil, false, nil
	}
	l.logger.WithFields(log.Fields{
		"list":      list,
		"member_id": memberID,
	}).Debug("record removed")
	return record.OriginalName, true, nil
}

func (l *Ledger) IsRestricted(ctx context.Context, list db.List, memberID string) (bool, error) {
	found, err := l.store.HasModerationRecord(ctx, list, memberID)
	if err != nil {
		return false, &vcerrors.StorageError{Op: "lookup", List: list.String(), Err: err}
	}
	return found, nil
}

func (l *Ledger) ListAll(ctx context.Context, list db.List) ([]*db.ModerationRecord, error) {
	records, err := l.store.ListModerationRecords(ctx, list)
	if err != nil {
		return nil, &vcerrors.StorageError{Op: "list", List: list.String(), Err: err}
	}
	return records, nil
}

func (l *Ledger) ListByApplier(ctx context.Context, list db.List, appliedBy string) ([]string, error) {
	memberIDs, err := l.store.ListMembersByApplier(ctx, list, appliedBy)
	if err != nil {
		return nil, &vcerrors.StorageError{Op: "list_by_applier", List: list.String(), Err: err}
	}
	return memberIDs, nil
}
