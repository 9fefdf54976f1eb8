package commands

import (
	"context"
	"fmt"
	"strings"

	vcerrors "github.com/anyme/vcbot/internal/errors"
	"github.com/anyme/vcbot/internal/i18n"
	"github.com/anyme/vcbot/internal/platform"
)

func (r *Router) stats(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	stats, err := r.platform.GuildStats(ctx, inv.guildID)
	if err != nil {
		return nil, vcerrors.PlatformError("guild stats", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "``👥`` ***%s :*** ``%d``\n", i18n.Get("Members", inv.lang), stats.Members)
	fmt.Fprintf(&b, "``🌍`` ***%s :*** ``%d``\n", i18n.Get("Online", inv.lang), stats.Online)
	fmt.Fprintf(&b, "``🎤`` ***%s :*** ``%d``\n", i18n.Get("In voice", inv.lang), stats.InVoice)
	fmt.Fprintf(&b, "``🔮`` ***%s :*** ``%d``", i18n.Get("Boosts", inv.lang), stats.Boosts)

	return &platform.Reply{Embeds: []platform.Embed{{
		Title:       fmt.Sprintf(i18n.Get("💮%s #Statistics!", inv.lang), stats.Name),
		URL:         r.cfg.Commands.StatsURL,
		Color:       r.cfg.Commands.EmbedColor,
		Thumbnail:   stats.IconURL,
		Image:       stats.BannerURL,
		Description: b.String(),
	}}}, nil
}

// access grants Connect and Speak on a voice channel, SendMessages otherwise.
func (r *Router) access(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	memberID, ok := inv.options.String(optMember)
	if !ok {
		return nil, vcerrors.Precondition("You must provide a member!")
	}
	channelID, ok := inv.options.String(optChannel)
	if !ok {
		return nil, vcerrors.Precondition("You must provide a channel!")
	}
	channel, err := r.platform.Channel(ctx, channelID)
	if err != nil {
		return nil, vcerrors.PlatformError("fetch channel", err)
	}
	if err := r.platform.GrantAccess(ctx, channel.ID, memberID, platform.AccessFor(channel.Kind)); err != nil {
		return nil, vcerrors.PlatformError("grant access", err)
	}
	return r.notice("✔️", fmt.Sprintf(
		i18n.Get("%s `(%s)` was granted access to **%s** | %s", inv.lang),
		mention(memberID), memberID, channel.Name, channelMention(channel.ID),
	)).reply(), nil
}
