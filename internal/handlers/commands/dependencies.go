package commands

import (
	"context"
	"time"

	"github.com/anyme/vcbot/internal/db"
	"github.com/anyme/vcbot/internal/handlers/moderation"
	"github.com/anyme/vcbot/internal/platform"
)

type (
	// auditStore is the usage log and the persisted bot presence.
	auditStore interface {
		LogUsage(ctx context.Context, actorID string, action string, at time.Time) error
		GetKV(ctx context.Context, key string) (string, error)
		SetKV(ctx context.Context, key string, value string) error
	}

	restrictionService interface {
		Add(ctx context.Context, guildID string, list db.List, operator platform.Member, targetID string) (*moderation.AddResult, error)
		Remove(ctx context.Context, guildID string, list db.List, targetID string) (bool, error)
		List(ctx context.Context, list db.List) ([]*db.ModerationRecord, error)
	}
)
