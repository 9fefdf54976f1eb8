package commands

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/i18n"
	"github.com/anyme/vcbot/internal/platform"
)

const (
	ButtonHelpTethered = "help_toutou"
	ButtonHelpMuted    = "help_chut"
	ButtonHelpStats    = "help_vc"
)

func (r *Router) help(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	name := ""
	if stats, err := r.platform.GuildStats(ctx, inv.guildID); err == nil {
		name = stats.Name
	}
	lang := inv.lang
	fields := []platform.EmbedField{
		{Name: "/wakeup", Value: "`/wakeup membre: @user fois: 1-5 mp: \"message\"`"},
		{Name: "/mp", Value: "`/mp membre: @user message: \"text\"`"},
		{Name: "/find", Value: "`/find membre: @user`"},
		{Name: "/join", Value: i18n.Get("`/join membre: @user` or `/join salon: #voice`", lang)},
		{Name: "/mv", Value: "`/mv membre: @user salon: #voice`"},
		{Name: "/vc", Value: i18n.Get("`/vc` (statistics)", lang)},
		{Name: "/toutou", Value: "`/toutou add/remove/list membre:@user`"},
		{Name: "/chut", Value: "`/chut add/remove/list membre:@user`"},
		{Name: "/bringcc", Value: "`/bringcc categorie: ID`"},
		{Name: "/access", Value: "`/access membre: @user salon: #channel`"},
		{Name: "/bot-avatar|bot-name|bot-status|bot-activities", Value: i18n.Get("Bot commands (owner only)", lang)},
	}
	return &platform.Reply{
		Embeds: []platform.Embed{{
			Title:       fmt.Sprintf(i18n.Get("💮 %s #Help", lang), name),
			Color:       r.cfg.Commands.EmbedColor,
			Description: i18n.Get("**Available commands**", lang),
			Fields:      fields,
			Footer:      i18n.Get("Click a button to see a quick usage (ephemeral reply).", lang),
		}},
		Buttons: []platform.Button{
			{CustomID: ButtonHelpTethered, Label: "Toutou", Style: platform.ButtonPrimary},
			{CustomID: ButtonHelpMuted, Label: "Chut", Style: platform.ButtonPrimary},
			{CustomID: ButtonHelpStats, Label: "VC Stats", Style: platform.ButtonSecondary},
		},
		Ephemeral: true,
	}, nil
}

// component answers the help buttons. They only reveal usage text, so they
// are not restricted to the operator.
func (r *Router) component(ctx context.Context, ev bot.ComponentInvoked) error {
	lang := r.cfg.DefaultLanguage
	var usage string
	switch ev.CustomID {
	case ButtonHelpTethered:
		usage = i18n.Get("`/toutou add membre: @user` to add\n`/toutou remove membre: @user` to remove\n`/toutou list` to list", lang)
	case ButtonHelpMuted:
		usage = i18n.Get("`/chut add membre: @user` to add\n`/chut remove membre: @user` to remove\n`/chut list` to list", lang)
	case ButtonHelpStats:
		usage = i18n.Get("`/vc` shows the server statistics (members, online, in voice, boosts)", lang)
	default:
		r.logger.WithFields(log.Fields{
			"event_id":  bot.EventID(ctx),
			"custom_id": ev.CustomID,
		}).Debug("unknown component")
		return nil
	}
	return ev.Reply.Respond(ctx, &platform.Reply{
		Embeds:    []platform.Embed{{Color: r.cfg.Commands.EmbedColor, Description: usage}},
		Ephemeral: true,
	})
}
