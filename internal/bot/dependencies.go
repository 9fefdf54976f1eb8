package bot

import (
	"context"

	"github.com/anyme/vcbot/internal/db"
	"github.com/anyme/vcbot/internal/ledger"
	"github.com/anyme/vcbot/internal/platform"
)

type ServicePlatform interface {
	GetPlatform() platform.Client
}

type ServiceDB interface {
	GetDB() db.Client
}

// Service bundles the shared dependencies handed to handlers.
type Service interface {
	ServicePlatform
	ServiceDB
	GetLedger() *ledger.Ledger
}

// Handler reacts to events. Returning proceed=false stops the chain for
// that event.
type Handler interface {
	Handle(ctx context.Context, event Event) (proceed bool, err error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) (bool, error)

func (f HandlerFunc) Handle(ctx context.Context, event Event) (bool, error) {
	return f(ctx, event)
}
