package moderation

import (
	"context"

	"github.com/anyme/vcbot/internal/db"
	"github.com/anyme/vcbot/internal/platform"
)

type (
	restrictionReader interface {
		IsRestricted(ctx context.Context, list db.List, memberID string) (bool, error)
		ListByApplier(ctx context.Context, list db.List, appliedBy string) ([]string, error)
	}

	restrictionStore interface {
		Put(ctx context.Context, list db.List, memberID string, originalName *string, appliedBy string) error
		Remove(ctx context.Context, list db.List, memberID string) (originalName *string, found bool, err error)
		ListAll(ctx context.Context, list db.List) ([]*db.ModerationRecord, error)
	}

	enforcementPlatform interface {
		DeleteMessage(ctx context.Context, channelID, messageID string) error
		RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error
		DisconnectMember(ctx context.Context, guildID, userID string) error
	}

	memberPlatform interface {
		Member(ctx context.Context, guildID, userID string) (*platform.Member, error)
		MoveMember(ctx context.Context, guildID, userID, channelID string) error
		DisconnectMember(ctx context.Context, guildID, userID string) error
		SetNickname(ctx context.Context, guildID, userID, nick string) error
	}
)
