package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iamwavecut/tool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/config"
	vcerrors "github.com/anyme/vcbot/internal/errors"
	"github.com/anyme/vcbot/internal/i18n"
	"github.com/anyme/vcbot/internal/observability"
	"github.com/anyme/vcbot/internal/platform"
	"github.com/anyme/vcbot/internal/policy/permissions"
)

type (
	invocation struct {
		guildID string
		invoker platform.Member
		options bot.Options
		lang    string
	}

	route struct {
		run func(ctx context.Context, inv *invocation) (*platform.Reply, error)
		// failure renders the generic reply used when a platform call fails.
		failure func(lang string) string
		// deferred commands acknowledge first and answer once done.
		deferred bool
		// audited commands are written to the usage log on success.
		audited bool
	}

	// Router answers slash commands and help buttons. Every slash command is
	// restricted to the operator and produces exactly one reply.
	Router struct {
		cfg          config.Config
		platform     platform.Client
		restrictions restrictionService
		store        auditStore
		commands     map[string]route

		now    func() time.Time
		sleep  func(ctx context.Context, d time.Duration) error
		pick   func(n int) int
		logger *log.Entry
	}
)

func NewRouter(cfg config.Config, client platform.Client, restrictions restrictionService, store auditStore) *Router {
	r := &Router{
		cfg:          cfg,
		platform:     client,
		restrictions: restrictions,
		store:        store,
		now:          time.Now,
		sleep:        sleepContext,
		pick:         randomIndex,
		logger:       log.WithField("object", "Router"),
	}
	r.commands = r.table()
	return r
}

func (r *Router) table() map[string]route {
	return map[string]route{
		"wakeup": {run: r.wakeup, deferred: true, audited: true, failure: func(lang string) string {
			return i18n.Get("An error occurred during the wakeup.", lang)
		}},
		"mp": {run: r.directMessage, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to send the direct message.", lang)
		}},
		"find": {run: r.find, failure: func(lang string) string {
			return i18n.Get("Unable to find the member.", lang)
		}},
		"join": {run: r.join, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to move you into the channel.", lang)
		}},
		"mv": {run: r.move, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to move the member.", lang)
		}},
		"bringcc": {run: r.bringCategory, deferred: true, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to move the members.", lang)
		}},
		"vc": {run: r.stats, failure: func(lang string) string {
			return i18n.Get("Unable to read the server statistics.", lang)
		}},
		"access": {run: r.access, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to change the permissions.", lang)
		}},
		"toutou": {run: r.tethered, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to update the tethered list.", lang)
		}},
		"chut": {run: r.muted, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to update the muted list.", lang)
		}},
		"bot-avatar": {run: r.botAvatar, deferred: true, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to change the avatar.", lang)
		}},
		"bot-name": {run: r.botName, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to change the name.", lang)
		}},
		"bot-status": {run: r.botStatus, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to change the status.", lang)
		}},
		"bot-activities": {run: r.botActivity, audited: true, failure: func(lang string) string {
			return i18n.Get("Unable to change the activity.", lang)
		}},
		"help": {run: r.help, failure: func(lang string) string {
			return i18n.Get("Unable to display the help.", lang)
		}},
	}
}

// Names lists the commands the router answers.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	return names
}

func (r *Router) Handle(ctx context.Context, event bot.Event) (bool, error) {
	switch ev := event.(type) {
	case bot.CommandInvoked:
		return false, r.dispatch(ctx, ev)
	case bot.ComponentInvoked:
		return false, r.component(ctx, ev)
	}
	return true, nil
}

func (r *Router) dispatch(ctx context.Context, ev bot.CommandInvoked) error {
	ctx, span := observability.Tracer("vcbot/commands").Start(ctx, "command."+ev.Name)
	span.SetAttributes(attribute.String("command", ev.Name))
	defer span.End()

	inv := &invocation{
		guildID: ev.GuildID(),
		invoker: ev.Invoker,
		options: ev.Options,
		lang:    r.cfg.DefaultLanguage,
	}
	entry := r.logger.WithFields(log.Fields{
		"event_id":   bot.EventID(ctx),
		"command":    ev.Name,
		"invoker_id": ev.Invoker.ID,
	})

	if !permissions.CanRunCommand(r.cfg.OwnerID, &ev.Invoker) {
		entry.WithError(vcerrors.ErrAuthorizationDenied).Warn("command denied")
		observability.RecordCommand(ev.Name, observability.ResultDenied)
		return ev.Reply.Respond(ctx, r.denied(inv))
	}

	cmd, ok := r.commands[ev.Name]
	if !ok {
		observability.RecordCommand(ev.Name, observability.ResultFailed)
		return ev.Reply.Respond(ctx, r.notice("⚙️", i18n.Get("Unknown command.", inv.lang)).ephemeral())
	}

	if cmd.deferred {
		if err := ev.Reply.Defer(ctx, false); err != nil {
			entry.WithError(err).Warn("cant defer reply")
		}
	}

	reply, err := cmd.run(ctx, inv)
	result := observability.ResultOK
	if err != nil {
		result = observability.ResultFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		reply = r.failure(inv, cmd, err)
		if errors.Is(err, vcerrors.ErrPreconditionFailed) {
			entry.WithError(err).Debug("command precondition failed")
		} else {
			entry.WithError(err).Error("command failed")
		}
	} else if cmd.audited {
		r.audit(ctx, entry, inv, ev.Name)
	}
	observability.RecordCommand(ev.Name, result)
	entry.Debug(tool.ExecTemplate(`Command {{ .command }} answered with {{ .result }}`, map[string]any{
		"command": ev.Name,
		"result":  result,
	}))

	return ev.Reply.Respond(ctx, reply)
}

func (r *Router) failure(inv *invocation, cmd route, err error) *platform.Reply {
	var precondition *vcerrors.PreconditionError
	switch {
	case errors.As(err, &precondition):
		return r.notice("⚙️", fmt.Sprintf(i18n.Get(precondition.Reason, inv.lang), precondition.Args...)).ephemeral()
	case errors.Is(err, vcerrors.ErrStorage):
		return r.notice("⚙️", i18n.Get("Database error.", inv.lang)).reply()
	default:
		return r.notice("⚙️", cmd.failure(inv.lang)).reply()
	}
}

func (r *Router) denied(inv *invocation) *platform.Reply {
	return r.notice("⚙️", fmt.Sprintf(
		i18n.Get("%s `(%s)` you do not have the permission required to use this command", inv.lang),
		mention(inv.invoker.ID), inv.invoker.ID,
	)).ephemeral()
}

// audit appends the command to the usage log. Failures are only logged.
func (r *Router) audit(ctx context.Context, entry *log.Entry, inv *invocation, name string) {
	action := name
	if sub, ok := inv.options.String(optAction); ok {
		action = name + ":" + strings.ToLower(sub)
	}
	if err := r.store.LogUsage(ctx, inv.invoker.ID, action, r.now()); err != nil {
		entry.WithError(err).Warn("cant write usage log")
	}
}

// randomIndex returns an index in [0, n).
func randomIndex(n int) int {
	if n <= 1 {
		return 0
	}
	return tool.RandInt(0, n)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
