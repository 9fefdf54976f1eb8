package bot

import (
	"context"
	"errors"

	"github.com/pborman/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/anyme/vcbot/internal/observability"
)

type eventIDKey struct{}

type namedHandler struct {
	name    string
	handler Handler
}

// UpdateProcessor runs every registered handler for each event. Handlers are
// independent: a failing handler is logged and the next one still runs.
type UpdateProcessor struct {
	guildID  string
	handlers []namedHandler
	logger   *log.Entry
}

// NewUpdateProcessor accepts events from guildID only, or from any guild when
// guildID is empty.
func NewUpdateProcessor(guildID string) *UpdateProcessor {
	return &UpdateProcessor{
		guildID: guildID,
		logger:  log.WithField("object", "UpdateProcessor"),
	}
}

func (up *UpdateProcessor) Register(name string, handler Handler) {
	if handler == nil {
		up.logger.Warnf("nil handler: %s", name)
		return
	}
	up.handlers = append(up.handlers, namedHandler{name: name, handler: handler})
}

func (up *UpdateProcessor) Process(ctx context.Context, event Event) error {
	if event == nil {
		return errors.New("event is nil")
	}
	if event.GuildID() == "" {
		return nil
	}
	if up.guildID != "" && event.GuildID() != up.guildID {
		log.WithField("guild_id", event.GuildID()).Trace("skipping foreign guild")
		return nil
	}

	eventID := uuid.New()
	ctx = context.WithValue(ctx, eventIDKey{}, eventID)
	done := observability.StartEventProcessing(event.Kind())
	defer done()

	ctx, span := observability.Tracer("vcbot/bot").Start(ctx, "event."+event.Kind())
	span.SetAttributes(
		attribute.String("event.id", eventID),
		attribute.String("guild.id", event.GuildID()),
	)
	defer span.End()

	entry := up.logger.WithFields(log.Fields{
		"event_id": eventID,
		"event":    event.Kind(),
	})

	var errs error
	for _, h := range up.handlers {
		if err := ctx.Err(); err != nil {
			return errors.Join(errs, err)
		}
		proceed, err := h.handler.Handle(ctx, event)
		if err != nil {
			entry.WithField("handler", h.name).WithError(err).Error("handler failed")
			errs = errors.Join(errs, err)
		}
		if !proceed {
			entry.WithField("handler", h.name).Trace("not proceeding")
			break
		}
	}
	if errs != nil {
		span.RecordError(errs)
		span.SetStatus(codes.Error, "handler failed")
	}
	return errs
}

// EventID returns the id attached to ctx by the processor.
func EventID(ctx context.Context) string {
	if id, ok := ctx.Value(eventIDKey{}).(string); ok {
		return id
	}
	return ""
}
