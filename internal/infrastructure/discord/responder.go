package discord

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/anyme/vcbot/internal/platform"
)

// responder answers one interaction. After Defer the answer replaces the
// placeholder, unless it must be ephemeral while the placeholder is not.
type responder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction

	mu                sync.Mutex
	deferred          bool
	deferredEphemeral bool
}

var _ platform.Responder = (*responder)(nil)

func newResponder(session *discordgo.Session, interaction *discordgo.Interaction) *responder {
	return &responder{session: session, interaction: interaction}
}

func (r *responder) Defer(ctx context.Context, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to defer interaction")
	}
	r.deferred = true
	r.deferredEphemeral = ephemeral
	return nil
}

func (r *responder) Respond(ctx context.Context, reply *platform.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	embeds := embedsFrom(reply)
	components := componentsFrom(reply)
	var flags discordgo.MessageFlags
	if reply.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	if !r.deferred {
		err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds:     embeds,
				Components: components,
				Flags:      flags,
			},
		}, discordgo.WithContext(ctx))
		return errors.Wrap(err, "failed to respond to interaction")
	}

	if reply.Ephemeral && !r.deferredEphemeral {
		if err := r.session.InteractionResponseDelete(r.interaction, discordgo.WithContext(ctx)); err != nil {
			return errors.Wrap(err, "failed to delete deferred response")
		}
		_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
			Embeds:     embeds,
			Components: components,
			Flags:      flags,
		}, discordgo.WithContext(ctx))
		return errors.Wrap(err, "failed to send ephemeral followup")
	}

	_, err := r.session.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	return errors.Wrap(err, "failed to edit deferred response")
}
