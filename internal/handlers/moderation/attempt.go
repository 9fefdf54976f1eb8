package moderation

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/observability"
)

// attempt runs a corrective platform call. Failures are logged and counted,
// never returned.
func attempt(ctx context.Context, entry *log.Entry, action string, call func(ctx context.Context) error) bool {
	if err := call(ctx); err != nil {
		entry.WithError(err).WithField("action", action).Warn("corrective action failed")
		observability.RecordEnforcement(action, observability.ResultFailed)
		return false
	}
	observability.RecordEnforcement(action, observability.ResultOK)
	return true
}
