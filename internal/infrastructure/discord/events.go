package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/anyme/vcbot/internal/bot"
)

func contentPosted(m *discordgo.MessageCreate) (bot.ContentPosted, bool) {
	if m.Message == nil || m.GuildID == "" {
		return bot.ContentPosted{}, false
	}
	ev := bot.ContentPosted{
		Base:      bot.Base{Guild: m.GuildID},
		ChannelID: m.ChannelID,
		MessageID: m.ID,
	}
	if m.Author != nil {
		ev.AuthorID = m.Author.ID
		ev.AuthorBot = m.Author.Bot
	}
	return ev, ev.AuthorID != ""
}

func reactionAttempted(r *discordgo.MessageReactionAdd) (bot.ReactionAttempted, bool) {
	if r.MessageReaction == nil || r.GuildID == "" {
		return bot.ReactionAttempted{}, false
	}
	ev := bot.ReactionAttempted{
		Base:      bot.Base{Guild: r.GuildID},
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.APIName(),
	}
	if r.Member != nil && r.Member.User != nil {
		ev.UserBot = r.Member.User.Bot
	}
	return ev, true
}

// voicePresenceChanged needs the previous state, which the session only
// knows when voice states are tracked.
func voicePresenceChanged(v *discordgo.VoiceStateUpdate) (bot.VoicePresenceChanged, bool) {
	if v.VoiceState == nil || v.GuildID == "" {
		return bot.VoicePresenceChanged{}, false
	}
	ev := bot.VoicePresenceChanged{
		Base:   bot.Base{Guild: v.GuildID},
		UserID: v.UserID,
		New:    v.ChannelID,
	}
	if v.BeforeUpdate != nil {
		ev.Old = v.BeforeUpdate.ChannelID
	}
	if v.Member != nil && v.Member.User != nil {
		ev.Bot = v.Member.User.Bot
	}
	return ev, ev.Moved()
}

func voiceChannelIn(state *discordgo.State, guildID, userID string) string {
	if state == nil {
		return ""
	}
	vs, err := state.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}
