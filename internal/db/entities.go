package db

import (
	"time"
)

// List names one of the moderation ledgers. A member may hold a record in
// every list independently.
type List string

const (
	ListMuted    List = "muted"
	ListTethered List = "tethered"
)

var Lists = []List{ListMuted, ListTethered}

func (l List) Valid() bool {
	switch l {
	case ListMuted, ListTethered:
		return true
	}
	return false
}

func (l List) String() string {
	return string(l)
}

type (
	ModerationRecord struct {
		List         List      `db:"-"`
		MemberID     string    `db:"member_id"`
		OriginalName *string   `db:"original_name"`
		AppliedBy    string    `db:"applied_by"`
		AppliedAt    time.Time `db:"applied_at"`
	}

	UsageEntry struct {
		ID        int64     `db:"id"`
		ActorID   string    `db:"actor_id"`
		Action    string    `db:"action"`
		CreatedAt time.Time `db:"created_at"`
	}
)

// OriginalNameOr returns the captured name or fallback when none was captured.
func (r *ModerationRecord) OriginalNameOr(fallback string) string {
	if r == nil || r.OriginalName == nil {
		return fallback
	}
	return *r.OriginalName
}
