package moderation

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/db"
	"github.com/anyme/vcbot/internal/observability"
)

// Enforcer keeps muted members from posting, reacting and staying in voice.
type Enforcer struct {
	ledger   restrictionReader
	platform enforcementPlatform
	logger   *log.Entry
}

func NewEnforcer(ledger restrictionReader, client enforcementPlatform) *Enforcer {
	return &Enforcer{
		ledger:   ledger,
		platform: client,
		logger:   log.WithField("object", "Enforcer"),
	}
}

func (e *Enforcer) Handle(ctx context.Context, event bot.Event) (bool, error) {
	switch ev := event.(type) {
	case bot.ContentPosted:
		if ev.AuthorBot || !e.muted(ctx, ev.Kind(), ev.AuthorID) {
			return true, nil
		}
		attempt(ctx, e.entry(ctx, ev.AuthorID), "delete_message", func(ctx context.Context) error {
			return e.platform.DeleteMessage(ctx, ev.ChannelID, ev.MessageID)
		})

	case bot.ReactionAttempted:
		if ev.UserBot || !e.muted(ctx, ev.Kind(), ev.UserID) {
			return true, nil
		}
		attempt(ctx, e.entry(ctx, ev.UserID), "remove_reaction", func(ctx context.Context) error {
			return e.platform.RemoveReaction(ctx, ev.ChannelID, ev.MessageID, ev.Emoji, ev.UserID)
		})

	case bot.VoicePresenceChanged:
		if ev.Bot || ev.New == "" || !e.muted(ctx, ev.Kind(), ev.UserID) {
			return true, nil
		}
		attempt(ctx, e.entry(ctx, ev.UserID), "disconnect", func(ctx context.Context) error {
			return e.platform.DisconnectMember(ctx, ev.GuildID(), ev.UserID)
		})
	}
	return true, nil
}

// muted treats an unreadable ledger as not muted. The event is logged and
// counted as indeterminate.
func (e *Enforcer) muted(ctx context.Context, kind, memberID string) bool {
	restricted, err := e.ledger.IsRestricted(ctx, db.ListMuted, memberID)
	if err != nil {
		e.entry(ctx, memberID).WithError(err).WithField("event", kind).Error("cant check mute state")
		observability.RecordIndeterminate(kind)
		return false
	}
	return restricted
}

func (e *Enforcer) entry(ctx context.Context, memberID string) *log.Entry {
	return e.logger.WithFields(log.Fields{
		"event_id":  bot.EventID(ctx),
		"member_id": memberID,
	})
}
