package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/infra"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions

type (
	eventProcessor interface {
		Process(ctx context.Context, event bot.Event) error
	}

	// ReadyHook runs after every gateway Ready, once commands are registered.
	ReadyHook func(ctx context.Context) error

	// Gateway turns gateway events into bot events. It is a lifecycle
	// component: Start opens the session, Stop closes it.
	Gateway struct {
		session   *discordgo.Session
		processor eventProcessor
		guildID   string
		hooks     []ReadyHook

		ctx      context.Context
		cancel   context.CancelFunc
		removers []func()
		logger   *log.Entry
	}
)

// NewSession creates a bot session with the intents and state tracking the
// gateway relies on.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create discord session")
	}
	session.Identify.Intents = intents
	session.State.TrackVoice = true
	session.State.TrackMembers = true
	session.State.TrackPresences = true
	session.State.TrackChannels = true
	return session, nil
}

// NewGateway registers commands in guildID, or globally when it is empty.
func NewGateway(session *discordgo.Session, processor eventProcessor, guildID string, hooks ...ReadyHook) *Gateway {
	return &Gateway{
		session:   session,
		processor: processor,
		guildID:   guildID,
		hooks:     hooks,
		logger:    log.WithField("object", "DiscordGateway"),
	}
}

func (g *Gateway) Start(_ context.Context) error {
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.removers = []func(){
		g.session.AddHandler(g.onReady),
		g.session.AddHandler(g.onMessageCreate),
		g.session.AddHandler(g.onReactionAdd),
		g.session.AddHandler(g.onVoiceStateUpdate),
		g.session.AddHandler(g.onInteractionCreate),
	}
	if err := g.session.Open(); err != nil {
		g.cancel()
		return errors.Wrap(err, "failed to open discord session")
	}
	g.logger.Info("gateway connected")
	return nil
}

func (g *Gateway) Stop(_ context.Context) error {
	if g.cancel != nil {
		g.cancel()
	}
	for _, remove := range g.removers {
		remove()
	}
	g.removers = nil
	if err := g.session.Close(); err != nil {
		return errors.Wrap(err, "failed to close discord session")
	}
	g.logger.Info("gateway closed")
	return nil
}

func (g *Gateway) dispatch(event bot.Event) {
	defer infra.Recover("discord_event:" + event.Kind())
	if err := g.processor.Process(g.ctx, event); err != nil {
		g.logger.WithError(err).WithField("event", event.Kind()).Warn("cant process event")
	}
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.logger.WithField("user", r.User.Username).Info("gateway ready")
	appID := r.User.ID
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}
	go infra.GoRecoverable(1, "discord_ready", func() {
		g.ready(appID)
	})
}

func (g *Gateway) ready(appID string) {
	registered, err := g.session.ApplicationCommandBulkOverwrite(appID, g.guildID, Commands(), discordgo.WithContext(g.ctx))
	if err != nil {
		g.logger.WithError(err).Error("cant register commands")
	} else {
		g.logger.WithField("guild_id", g.guildID).Infof("registered %d commands", len(registered))
	}
	for i, hook := range g.hooks {
		if err := hook(g.ctx); err != nil {
			g.logger.WithError(err).WithField("hook", i).Warn("ready hook failed")
		}
	}
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if ev, ok := contentPosted(m); ok {
		g.dispatch(ev)
	}
}

func (g *Gateway) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if ev, ok := reactionAttempted(r); ok {
		g.dispatch(ev)
	}
}

func (g *Gateway) onVoiceStateUpdate(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if ev, ok := voicePresenceChanged(v); ok {
		g.dispatch(ev)
	}
}

func (g *Gateway) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Interaction == nil || i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return
	}
	reply := newResponder(s, i.Interaction)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		g.dispatch(bot.CommandInvoked{
			Base:    bot.Base{Guild: i.GuildID},
			Invoker: memberFrom(i.Member, voiceChannelIn(s.State, i.GuildID, i.Member.User.ID)),
			Name:    data.Name,
			Options: optionsFrom(data.Options),
			Reply:   reply,
		})
	case discordgo.InteractionMessageComponent:
		g.dispatch(bot.ComponentInvoked{
			Base:     bot.Base{Guild: i.GuildID},
			UserID:   i.Member.User.ID,
			CustomID: i.MessageComponentData().CustomID,
			Reply:    reply,
		})
	default:
		g.logger.WithField("type", fmt.Sprint(i.Type)).Trace("ignored interaction")
	}
}
