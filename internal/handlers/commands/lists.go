package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/anyme/vcbot/internal/db"
	vcerrors "github.com/anyme/vcbot/internal/errors"
	"github.com/anyme/vcbot/internal/handlers/moderation"
	"github.com/anyme/vcbot/internal/i18n"
	"github.com/anyme/vcbot/internal/platform"
)

const (
	actionAdd    = "add"
	actionRemove = "remove"
	actionList   = "list"
)

func (r *Router) tethered(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	return r.manageList(ctx, inv, db.ListTethered)
}

func (r *Router) muted(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	return r.manageList(ctx, inv, db.ListMuted)
}

func (r *Router) manageList(ctx context.Context, inv *invocation, list db.List) (*platform.Reply, error) {
	action, _ := inv.options.String(optAction)
	action = strings.ToLower(action)

	if action == actionList {
		return r.listRecords(ctx, inv, list)
	}
	if action != actionAdd && action != actionRemove {
		return nil, vcerrors.Precondition("Invalid action, use add / remove / list")
	}
	targetID, ok := inv.options.String(optMember)
	if !ok {
		return nil, vcerrors.Precondition("You must provide a member for add/remove!")
	}

	if action == actionAdd {
		result, err := r.restrictions.Add(ctx, inv.guildID, list, inv.invoker, targetID)
		if err != nil {
			return nil, err
		}
		id := result.Target.ID
		if list == db.ListMuted {
			return r.notice(moderation.EmojiMuted, fmt.Sprintf(
				i18n.Get("%s `(%s)` was added to the muted list by %s", inv.lang),
				mention(id), id, mention(inv.invoker.ID),
			)).reply(), nil
		}
		return r.notice(moderation.EmojiTethered, fmt.Sprintf(
			i18n.Get("%s `(%s)` was added to the tethered list by %s", inv.lang),
			mention(id), id, mention(inv.invoker.ID),
		)).reply(), nil
	}

	if _, err := r.restrictions.Remove(ctx, inv.guildID, list, targetID); err != nil {
		return nil, err
	}
	if list == db.ListMuted {
		return r.notice("✔️", fmt.Sprintf(
			i18n.Get("%s `(%s)` was removed from the muted list and their nickname was reset.", inv.lang),
			mention(targetID), targetID,
		)).reply(), nil
	}
	return r.notice("✔️", fmt.Sprintf(
		i18n.Get("%s `(%s)` was removed from the tethered list and their nickname was reset.", inv.lang),
		mention(targetID), targetID,
	)).reply(), nil
}

func (r *Router) listRecords(ctx context.Context, inv *invocation, list db.List) (*platform.Reply, error) {
	records, err := r.restrictions.List(ctx, list)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		if list == db.ListMuted {
			return r.notice("✔️", i18n.Get("No member in the muted list.", inv.lang)).reply(), nil
		}
		return r.notice("✔️", i18n.Get("No member in the tethered list.", inv.lang)).reply(), nil
	}

	line := i18n.Get("%s %s — added by %s", inv.lang)
	var b strings.Builder
	for _, record := range records {
		fmt.Fprintf(&b, line+"\n", "``"+moderation.Emoji(list)+"``", mention(record.MemberID), mention(record.AppliedBy))
	}
	return &platform.Reply{Embeds: []platform.Embed{{
		Color:       r.cfg.Commands.EmbedColor,
		Description: strings.TrimSuffix(b.String(), "\n"),
	}}}, nil
}
