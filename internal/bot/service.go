package bot

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/db"
	"github.com/anyme/vcbot/internal/ledger"
	"github.com/anyme/vcbot/internal/platform"
)

type service struct {
	platform platform.Client
	db       db.Client
	ledger   *ledger.Ledger
	logger   *log.Entry
}

var _ Service = (*service)(nil)

func NewService(client platform.Client, dbClient db.Client, logger *log.Entry) *service {
	return &service{
		platform: client,
		db:       dbClient,
		ledger:   ledger.New(dbClient),
		logger:   logger,
	}
}

func (s *service) GetPlatform() platform.Client {
	return s.platform
}

func (s *service) GetDB() db.Client {
	return s.db
}

func (s *service) GetLedger() *ledger.Ledger {
	return s.ledger
}

func (s *service) Start(ctx context.Context) error {
	_ = ctx
	s.logger.Debug("service started")
	return nil
}

// Stop closes the database. It runs last since the service is registered first.
func (s *service) Stop(ctx context.Context) error {
	_ = ctx
	s.logger.Debug("closing database")
	return s.db.Close()
}
