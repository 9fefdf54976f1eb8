package commands

import (
	"github.com/anyme/vcbot/internal/platform"
)

const (
	optMember      = "membre"
	optTimes       = "fois"
	optDM          = "mp"
	optMessage     = "message"
	optChannel     = "salon"
	optCategory    = "categorie"
	optType        = "type"
	optDescription = "description"
	optAction      = "action"
)

type reply platform.Reply

func (r *reply) ephemeral() *platform.Reply {
	r.Ephemeral = true
	return (*platform.Reply)(r)
}

func (r *reply) reply() *platform.Reply {
	return (*platform.Reply)(r)
}

// notice builds the single-embed reply used by every command.
func (r *Router) notice(emoji, text string) *reply {
	return &reply{Embeds: []platform.Embed{{
		Color:       r.cfg.Commands.EmbedColor,
		Description: "``" + emoji + "`` " + text,
	}}}
}

func mention(userID string) string {
	return "<@" + userID + ">"
}

func channelMention(channelID string) string {
	return "<#" + channelID + ">"
}
