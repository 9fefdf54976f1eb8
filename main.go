package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/iamwavecut/tool"
	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/config"
	"github.com/anyme/vcbot/internal/db/sqlite"
	"github.com/anyme/vcbot/internal/handlers/commands"
	"github.com/anyme/vcbot/internal/handlers/moderation"
	"github.com/anyme/vcbot/internal/i18n"
	"github.com/anyme/vcbot/internal/infra"
	"github.com/anyme/vcbot/internal/infrastructure/discord"
	"github.com/anyme/vcbot/internal/lifecycle"
	"github.com/anyme/vcbot/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.SetFormatter(&config.VcFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing()

	dotPath, err := infra.WorkDir(cfg.DotPath)
	if err != nil {
		log.WithError(err).Fatalln("cant prepare work dir")
	}
	dbClient, err := sqlite.NewSQLiteClient(ctx, dotPath, cfg.DBFile)
	if err != nil {
		log.WithError(err).Fatalln("cant open database")
	}

	session, err := discord.NewSession(cfg.Token)
	if err != nil {
		log.WithError(err).Fatalln("cant initialize discord session")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		session.LogLevel = discordgo.LogDebug
	}

	service := bot.NewService(discord.NewOperations(session), dbClient, log.WithField("object", "Service"))
	restrictions := moderation.NewRestrictions(service.GetLedger(), service.GetPlatform())
	router := commands.NewRouter(cfg, service.GetPlatform(), restrictions, service.GetDB())

	processor := bot.NewUpdateProcessor(cfg.GuildID)
	processor.Register("enforcer", moderation.NewEnforcer(service.GetLedger(), service.GetPlatform()))
	processor.Register("follow", moderation.NewFollowCoordinator(service.GetLedger(), service.GetPlatform()))
	processor.Register("commands", router)

	watcher := infra.NewExecutableWatcher()
	runtime := lifecycle.NewRuntime().
		Register("service", service).
		Register("metrics", observability.NewMetricsServer(cfg.MetricsAddr)).
		Register("executable", watcher).
		Register("gateway", discord.NewGateway(session, processor, cfg.GuildID, router.RestorePresence))

	if err := runtime.Start(ctx); err != nil {
		log.WithError(err).Fatalln("cant start")
	}
	log.WithFields(log.Fields{
		"commands": len(router.Names()),
		"lang":     i18n.GetLanguageName(cfg.DefaultLanguage),
	}).Info("vcbot is running")

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case <-watcher.Changed():
		log.Warn("executable file was modified, restarting")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := runtime.Stop(stopCtx); tool.Try(err) {
		log.WithError(err).Error("stop failed")
	}
	if err := shutdownTracing(stopCtx); tool.Try(err) {
		log.WithError(err).Warn("cant flush traces")
	}
}
