package commands

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/anyme/vcbot/internal/bot"
	vcerrors "github.com/anyme/vcbot/internal/errors"
	"github.com/anyme/vcbot/internal/i18n"
	"github.com/anyme/vcbot/internal/platform"
)

const (
	minWakeups       = 1
	maxWakeups       = 5
	bringParallelism = 5
)

func clampWakeups(n int64) int {
	switch {
	case n < minWakeups:
		return minWakeups
	case n > maxWakeups:
		return maxWakeups
	}
	return int(n)
}

func (r *Router) requireMember(ctx context.Context, inv *invocation) (*platform.Member, error) {
	memberID, ok := inv.options.String(optMember)
	if !ok {
		return nil, vcerrors.Precondition("You must provide a member!")
	}
	member, err := r.platform.Member(ctx, inv.guildID, memberID)
	if err != nil {
		return nil, vcerrors.PlatformError("fetch member", err)
	}
	return member, nil
}

func (r *Router) requireVoiceChannel(ctx context.Context, inv *invocation) (*platform.Channel, error) {
	channelID, ok := inv.options.String(optChannel)
	if !ok {
		return nil, vcerrors.Precondition("You must provide a channel!")
	}
	channel, err := r.platform.Channel(ctx, channelID)
	if err != nil {
		return nil, vcerrors.PlatformError("fetch channel", err)
	}
	if !channel.IsVoice() {
		return nil, vcerrors.Precondition("The selected channel is not a voice channel!")
	}
	return channel, nil
}

// wakeup moves the member through random voice channels one at a time, then
// back where they were, then sends them the message.
func (r *Router) wakeup(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	target, err := r.requireMember(ctx, inv)
	if err != nil {
		return nil, err
	}
	if !target.InVoice() {
		return nil, vcerrors.Precondition("%s `(%s)` is not in voice!", mention(target.ID), target.ID)
	}
	times, _ := inv.options.Int(optTimes)
	count := clampWakeups(times)
	message, _ := inv.options.String(optDM)

	channels, err := r.platform.GuildChannels(ctx, inv.guildID)
	if err != nil {
		return nil, vcerrors.PlatformError("list channels", err)
	}
	origin := target.VoiceChannelID
	candidates := make([]platform.Channel, 0, len(channels))
	for _, c := range channels {
		if c.IsVoice() && c.ID != origin {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, vcerrors.Precondition("No other voice channel available.")
	}

	entry := r.logger.WithFields(log.Fields{
		"event_id":  bot.EventID(ctx),
		"member_id": target.ID,
	})
	for i := 0; i < count; i++ {
		next := candidates[r.pick(len(candidates))]
		if err := r.platform.MoveMember(ctx, inv.guildID, target.ID, next.ID); err != nil {
			entry.WithError(err).WithField("channel_id", next.ID).Warn("wakeup move skipped")
		}
		if err := r.sleep(ctx, r.cfg.Commands.WakeupDelay); err != nil {
			return nil, err
		}
	}
	if err := r.platform.MoveMember(ctx, inv.guildID, target.ID, origin); err != nil {
		entry.WithError(err).Warn("cant move member back to origin")
	}
	if message != "" {
		if err := r.platform.SendDirect(ctx, target.ID, message); err != nil {
			entry.WithError(err).Warn("cant send wakeup message")
		}
	}

	return r.notice("💤", fmt.Sprintf(
		i18n.Get("%s `(%s)` was woken up **%d** times and is back in their original voice channel %s", inv.lang),
		mention(target.ID), target.ID, count, channelMention(origin),
	)).reply(), nil
}

func (r *Router) directMessage(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	memberID, ok := inv.options.String(optMember)
	if !ok {
		return nil, vcerrors.Precondition("You must provide a member!")
	}
	message, ok := inv.options.String(optMessage)
	if !ok {
		return nil, vcerrors.Precondition("You must provide a message!")
	}
	if err := r.platform.SendDirect(ctx, memberID, message); err != nil {
		return nil, vcerrors.PlatformError("send direct message", err)
	}
	return r.notice("💉", fmt.Sprintf(
		i18n.Get("The message was sent to %s `(%s)`", inv.lang),
		mention(memberID), memberID,
	)).reply(), nil
}

func (r *Router) find(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	target, err := r.requireMember(ctx, inv)
	if err != nil {
		return nil, err
	}
	if !target.InVoice() {
		return r.notice("⚙️", fmt.Sprintf(
			i18n.Get("%s `(%s)` is not in voice!", inv.lang),
			mention(target.ID), target.ID,
		)).reply(), nil
	}
	name := target.VoiceChannelID
	if channel, err := r.platform.Channel(ctx, target.VoiceChannelID); err == nil {
		name = channel.Name
	}
	return r.notice("✔️", fmt.Sprintf(
		i18n.Get("%s `(%s)` is in voice channel **%s** | %s", inv.lang),
		mention(target.ID), target.ID, name, channelMention(target.VoiceChannelID),
	)).reply(), nil
}

// join moves the operator to a member's voice channel or into a channel.
// Exactly one of the two options must be given.
func (r *Router) join(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	hasMember, hasChannel := inv.options.Has(optMember), inv.options.Has(optChannel)
	switch {
	case hasMember && hasChannel:
		return nil, vcerrors.Precondition("You cannot use **membre** and **salon** at the same time!")
	case !hasMember && !hasChannel:
		return nil, vcerrors.Precondition("You must provide either a member or a channel!")
	}

	var destination *platform.Channel
	if hasMember {
		target, err := r.requireMember(ctx, inv)
		if err != nil {
			return nil, err
		}
		if !target.InVoice() {
			return nil, vcerrors.Precondition("%s `(%s)` the targeted member is not in voice!", mention(inv.invoker.ID), inv.invoker.ID)
		}
		destination = &platform.Channel{ID: target.VoiceChannelID, Name: target.VoiceChannelID, Kind: platform.ChannelVoice}
		if channel, err := r.platform.Channel(ctx, target.VoiceChannelID); err == nil {
			destination = channel
		}
	} else {
		channel, err := r.requireVoiceChannel(ctx, inv)
		if err != nil {
			return nil, err
		}
		destination = channel
	}

	self, err := r.platform.Member(ctx, inv.guildID, inv.invoker.ID)
	if err != nil {
		return nil, vcerrors.PlatformError("fetch invoker", err)
	}
	if !self.InVoice() {
		return nil, vcerrors.Precondition("%s `(%s)` you must be in voice to use this command!", mention(self.ID), self.ID)
	}
	if err := r.platform.MoveMember(ctx, inv.guildID, self.ID, destination.ID); err != nil {
		return nil, vcerrors.PlatformError("move invoker", err)
	}
	return r.notice("✔️", fmt.Sprintf(
		i18n.Get("%s `(%s)` was moved to **%s** | %s", inv.lang),
		mention(self.ID), self.ID, destination.Name, channelMention(destination.ID),
	)).reply(), nil
}

func (r *Router) move(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	target, err := r.requireMember(ctx, inv)
	if err != nil {
		return nil, err
	}
	channel, err := r.requireVoiceChannel(ctx, inv)
	if err != nil {
		return nil, err
	}
	if err := r.platform.MoveMember(ctx, inv.guildID, target.ID, channel.ID); err != nil {
		return nil, vcerrors.PlatformError("move member", err)
	}
	return r.notice("🔀", fmt.Sprintf(
		i18n.Get("%s `(%s)` was moved to **%s** | %s", inv.lang),
		mention(target.ID), target.ID, channel.Name, channelMention(channel.ID),
	)).reply(), nil
}

// bringCategory scatters every member in voice across the voice channels of
// a category. Individual move failures are logged.
func (r *Router) bringCategory(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	categoryID, ok := inv.options.String(optCategory)
	if !ok {
		return nil, vcerrors.Precondition("Invalid category!")
	}
	category, err := r.platform.Channel(ctx, categoryID)
	if err != nil || category.Kind != platform.ChannelCategory {
		return nil, vcerrors.Precondition("Invalid category!")
	}

	channels, err := r.platform.GuildChannels(ctx, inv.guildID)
	if err != nil {
		return nil, vcerrors.PlatformError("list channels", err)
	}
	targets := make([]platform.Channel, 0)
	for _, c := range channels {
		if c.IsVoice() && c.ParentID == category.ID {
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return nil, vcerrors.Precondition("No voice channel in this category!")
	}

	inVoice, err := r.platform.VoiceMembers(ctx, inv.guildID)
	if err != nil {
		return nil, vcerrors.PlatformError("list voice members", err)
	}
	entry := r.logger.WithField("event_id", bot.EventID(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bringParallelism)
	for memberID := range inVoice {
		next := targets[r.pick(len(targets))]
		g.Go(func() error {
			if err := r.platform.MoveMember(gctx, inv.guildID, memberID, next.ID); err != nil {
				entry.WithError(err).WithField("member_id", memberID).Warn("bringcc move failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	return r.notice("🔀", fmt.Sprintf(
		i18n.Get("All members in voice were randomly moved into category %s", inv.lang),
		channelMention(category.ID),
	)).reply(), nil
}
