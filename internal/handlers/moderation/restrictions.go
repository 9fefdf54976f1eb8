package moderation

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/db"
	vcerrors "github.com/anyme/vcbot/internal/errors"
	"github.com/anyme/vcbot/internal/platform"
)

const (
	EmojiMuted    = "🔇"
	EmojiTethered = "🐕"
	emojiOperator = "👑"
)

func Emoji(list db.List) string {
	if list == db.ListMuted {
		return EmojiMuted
	}
	return EmojiTethered
}

// DecoratedNick is the nickname shown while a member is on list.
func DecoratedNick(list db.List, original, operator string) string {
	return platform.TruncateNick(fmt.Sprintf("%s %s (%s %s)", Emoji(list), original, emojiOperator, operator))
}

// undecorated strips a decoration applied by DecoratedNick, so a member
// already on one list keeps its plain name when added to the other.
func undecorated(name string) string {
	for _, list := range db.Lists {
		prefix := Emoji(list) + " "
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		name = strings.TrimPrefix(name, prefix)
		if i := strings.LastIndex(name, " ("+emojiOperator); i >= 0 {
			name = name[:i]
		}
		// Truncation may leave part of the operator suffix behind.
		return strings.TrimRight(name, " (")
	}
	return name
}

type AddResult struct {
	Target    platform.Member
	Renamed   bool
	Relocated bool
}

// Restrictions implements add, remove and list for both moderation lists.
type Restrictions struct {
	ledger   restrictionStore
	platform memberPlatform
	logger   *log.Entry
}

func NewRestrictions(ledger restrictionStore, client memberPlatform) *Restrictions {
	return &Restrictions{
		ledger:   ledger,
		platform: client,
		logger:   log.WithField("object", "Restrictions"),
	}
}

// Add records target on list, then renames it and applies the immediate
// voice effect. Only the ledger write can fail the call.
func (r *Restrictions) Add(ctx context.Context, guildID string, list db.List, operator platform.Member, targetID string) (*AddResult, error) {
	entry := r.logger.WithFields(log.Fields{
		"event_id":  bot.EventID(ctx),
		"list":      list,
		"member_id": targetID,
	})

	target, err := r.platform.Member(ctx, guildID, targetID)
	if err != nil {
		return nil, vcerrors.PlatformError("fetch member", err)
	}
	original := undecorated(target.DisplayName())
	if err := r.ledger.Put(ctx, list, target.ID, &original, operator.ID); err != nil {
		return nil, err
	}

	result := &AddResult{Target: *target}
	result.Renamed = attempt(ctx, entry, "rename", func(ctx context.Context) error {
		return r.platform.SetNickname(ctx, guildID, target.ID, DecoratedNick(list, original, operator.Username))
	})

	switch list {
	case db.ListTethered:
		if !target.InVoice() {
			break
		}
		current, err := r.platform.Member(ctx, guildID, operator.ID)
		if err != nil {
			entry.WithError(err).Warn("cant fetch operator voice state")
			break
		}
		if !current.InVoice() || current.VoiceChannelID == target.VoiceChannelID {
			break
		}
		result.Relocated = attempt(ctx, entry, "tether_move", func(ctx context.Context) error {
			return r.platform.MoveMember(ctx, guildID, target.ID, current.VoiceChannelID)
		})
	case db.ListMuted:
		if target.InVoice() {
			result.Relocated = attempt(ctx, entry, "disconnect", func(ctx context.Context) error {
				return r.platform.DisconnectMember(ctx, guildID, target.ID)
			})
		}
	}

	entry.WithField("applied_by", operator.ID).Info("member added")
	return result, nil
}

// Remove deletes the record and restores the captured nickname. A missing
// record is reported as ErrNotFound and nothing is renamed.
func (r *Restrictions) Remove(ctx context.Context, guildID string, list db.List, targetID string) (restored bool, err error) {
	original, found, err := r.ledger.Remove(ctx, list, targetID)
	if err != nil {
		return false, err
	}
	if !found {
		mention := "<@" + targetID + ">"
		if list == db.ListMuted {
			return false, vcerrors.NotFound("%s is not in the muted list.", mention)
		}
		return false, vcerrors.NotFound("%s is not in the tethered list.", mention)
	}

	entry := r.logger.WithFields(log.Fields{
		"event_id":  bot.EventID(ctx),
		"list":      list,
		"member_id": targetID,
	})
	nick := ""
	if original != nil {
		nick = *original
	}
	restored = attempt(ctx, entry, "restore_nick", func(ctx context.Context) error {
		return r.platform.SetNickname(ctx, guildID, targetID, nick)
	})
	entry.Info("member removed")
	return restored, nil
}

func (r *Restrictions) List(ctx context.Context, list db.List) ([]*db.ModerationRecord, error) {
	return r.ledger.ListAll(ctx, list)
}
