package moderation

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/db"
	"github.com/anyme/vcbot/internal/observability"
)

const relocationParallelism = 4

// FollowCoordinator moves tethered members into the voice channel their
// operator just moved to.
type FollowCoordinator struct {
	ledger   restrictionReader
	platform memberPlatform
	logger   *log.Entry
}

func NewFollowCoordinator(ledger restrictionReader, client memberPlatform) *FollowCoordinator {
	return &FollowCoordinator{
		ledger:   ledger,
		platform: client,
		logger:   log.WithField("object", "FollowCoordinator"),
	}
}

func (f *FollowCoordinator) Handle(ctx context.Context, event bot.Event) (bool, error) {
	ev, ok := event.(bot.VoicePresenceChanged)
	if !ok || ev.Bot || !ev.Moved() || ev.New == "" {
		return true, nil
	}

	entry := f.logger.WithFields(log.Fields{
		"event_id":    bot.EventID(ctx),
		"operator_id": ev.UserID,
		"channel_id":  ev.New,
	})

	memberIDs, err := f.ledger.ListByApplier(ctx, db.ListTethered, ev.UserID)
	if err != nil {
		entry.WithError(err).Error("cant list tethered members")
		observability.RecordIndeterminate(ev.Kind())
		return true, nil
	}
	if len(memberIDs) == 0 {
		return true, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(relocationParallelism)
	for _, memberID := range memberIDs {
		g.Go(func() error {
			f.relocate(gctx, entry.WithField("member_id", memberID), ev.GuildID(), memberID, ev.New)
			return nil
		})
	}
	_ = g.Wait()
	return true, nil
}

func (f *FollowCoordinator) relocate(ctx context.Context, entry *log.Entry, guildID, memberID, channelID string) {
	member, err := f.platform.Member(ctx, guildID, memberID)
	if err != nil {
		entry.WithError(err).Warn("cant fetch tethered member")
		observability.RecordRelocation(observability.ResultFailed)
		return
	}
	if !member.InVoice() || member.VoiceChannelID == channelID {
		return
	}
	moved := attempt(ctx, entry, "follow_move", func(ctx context.Context) error {
		return f.platform.MoveMember(ctx, guildID, memberID, channelID)
	})
	if moved {
		observability.RecordRelocation(observability.ResultOK)
		entry.Debug("tethered member relocated")
		return
	}
	observability.RecordRelocation(observability.ResultFailed)
}
