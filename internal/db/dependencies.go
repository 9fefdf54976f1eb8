package db

import (
	"context"
	"time"
)

type Client interface {
	Close() error

	UpsertModerationRecord(ctx context.Context, record *ModerationRecord) error
	TakeModerationRecord(ctx context.Context, list List, memberID string) (*ModerationRecord, error)
	HasModerationRecord(ctx context.Context, list List, memberID string) (bool, error)
	ListModerationRecords(ctx context.Context, list List) ([]*ModerationRecord, error)
	ListMembersByApplier(ctx context.Context, list List, appliedBy string) ([]string, error)

	LogUsage(ctx context.Context, actorID string, action string, at time.Time) error
	ListUsage(ctx context.Context, actorID string, limit int) ([]*UsageEntry, error)

	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key string, value string) error
}
