package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"

	vcerrors "github.com/anyme/vcbot/internal/errors"
	"github.com/anyme/vcbot/internal/i18n"
	"github.com/anyme/vcbot/internal/platform"
)

const (
	kvPresenceStatus       = "presence_status"
	kvPresenceActivityType = "presence_activity_type"
	kvPresenceActivityText = "presence_activity_text"

	defaultStatus = "online"
)

func (r *Router) botAvatar(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	imageURL, ok := inv.options.String(optType)
	if !ok {
		return nil, vcerrors.Precondition("You must provide an image link!")
	}
	if err := r.platform.SetAvatar(ctx, imageURL); err != nil {
		return nil, vcerrors.PlatformError("set avatar", err)
	}
	self := r.platform.SelfID()
	return r.notice("💊", fmt.Sprintf(
		i18n.Get("The avatar of bot %s `(%s)` was changed successfully!", inv.lang),
		mention(self), self,
	)).reply(), nil
}

func (r *Router) botName(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	name, ok := inv.options.String(optType)
	if !ok {
		return nil, vcerrors.Precondition("You must provide a name!")
	}
	if err := r.platform.SetUsername(ctx, name); err != nil {
		return nil, vcerrors.PlatformError("set username", err)
	}
	self := r.platform.SelfID()
	return r.notice("🍀", fmt.Sprintf(
		i18n.Get("The name of bot %s `(%s)` was changed to **%s**", inv.lang),
		mention(self), self, name,
	)).reply(), nil
}

func (r *Router) botStatus(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	status, _ := inv.options.String(optType)
	status = strings.ToLower(status)
	if !tool.In(status, platform.Statuses...) {
		return nil, vcerrors.Precondition("Invalid status!")
	}

	presence, err := r.storedPresence(ctx)
	if err != nil {
		return nil, err
	}
	presence.Status = status
	if err := r.platform.SetPresence(ctx, presence); err != nil {
		return nil, vcerrors.PlatformError("set status", err)
	}
	if err := r.store.SetKV(ctx, kvPresenceStatus, status); err != nil {
		return nil, &vcerrors.StorageError{Op: "save presence", Err: err}
	}

	self := r.platform.SelfID()
	return r.notice("🦋", fmt.Sprintf(
		i18n.Get("The status of bot %s `(%s)` was changed to **%s**", inv.lang),
		mention(self), self, status,
	)).reply(), nil
}

func (r *Router) botActivity(ctx context.Context, inv *invocation) (*platform.Reply, error) {
	kind, _ := inv.options.String(optType)
	kind = strings.ToLower(kind)
	if !tool.In(kind, platform.ActivityTypes...) {
		return nil, vcerrors.Precondition("Invalid activity!")
	}
	activity := platform.ActivityType(kind)
	text, ok := inv.options.String(optDescription)
	if !ok {
		return nil, vcerrors.Precondition("You must provide a description!")
	}

	presence, err := r.storedPresence(ctx)
	if err != nil {
		return nil, err
	}
	presence.ActivityType = activity
	presence.ActivityText = text
	presence.URL = r.streamingURL(activity)
	if err := r.platform.SetPresence(ctx, presence); err != nil {
		return nil, vcerrors.PlatformError("set activity", err)
	}
	for key, value := range map[string]string{
		kvPresenceActivityType: string(activity),
		kvPresenceActivityText: text,
	} {
		if err := r.store.SetKV(ctx, key, value); err != nil {
			return nil, &vcerrors.StorageError{Op: "save presence", Err: err}
		}
	}

	self := r.platform.SelfID()
	return r.notice("🍦", fmt.Sprintf(
		i18n.Get("The activity of bot %s `(%s)` was changed to **%s**", inv.lang),
		mention(self), self, activity,
	)).reply(), nil
}

func (r *Router) streamingURL(activity platform.ActivityType) string {
	if activity == platform.ActivityStreaming {
		return r.cfg.Commands.StreamingURL
	}
	return ""
}

func (r *Router) storedPresence(ctx context.Context) (platform.Presence, error) {
	values := make(map[string]string, 3)
	for _, key := range []string{kvPresenceStatus, kvPresenceActivityType, kvPresenceActivityText} {
		value, err := r.store.GetKV(ctx, key)
		if err != nil {
			return platform.Presence{}, &vcerrors.StorageError{Op: "load presence", Err: err}
		}
		values[key] = value
	}
	presence := platform.Presence{
		Status:       values[kvPresenceStatus],
		ActivityType: platform.ActivityType(values[kvPresenceActivityType]),
		ActivityText: values[kvPresenceActivityText],
	}
	if presence.Status == "" {
		presence.Status = defaultStatus
	}
	presence.URL = r.streamingURL(presence.ActivityType)
	return presence, nil
}

// RestorePresence re-applies the last status and activity set by command.
// It does nothing when none was ever set.
func (r *Router) RestorePresence(ctx context.Context) error {
	presence, err := r.storedPresence(ctx)
	if err != nil {
		return err
	}
	if presence.Status == defaultStatus && presence.ActivityType == "" {
		return nil
	}
	if err := r.platform.SetPresence(ctx, presence); err != nil {
		return errors.WithMessage(err, "restore presence")
	}
	r.logger.WithField("status", presence.Status).Info("presence restored")
	return nil
}
