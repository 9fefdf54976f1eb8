package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/i18n"
)

const envPrefix = "VC_"

type (
	Config struct {
		Token           string `env:"TOKEN,required"`
		OwnerID         string `env:"OWNER_ID,required"`
		GuildID         string `env:"GUILD_ID"`
		DefaultLanguage string `env:"LANG,default=fr"`
		LogLevel        int    `env:"LOG_LEVEL,default=4"`
		DotPath         string `env:"DOT_PATH,default=~/.vcbot"`
		DBFile          string `env:"DB_FILE,default=bot.db"`
		MetricsAddr     string `env:"METRICS_ADDR,default=:2112"`
		Commands        Commands
	}

	Commands struct {
		WakeupDelay  time.Duration `env:"WAKEUP_DELAY,default=800ms"`
		StreamingURL string        `env:"STREAMING_URL,default=https://twitch.tv/serial"`
		StatsURL     string        `env:"STATS_URL,default=https://discord.gg/anyme"`
		// 0x2F3136
		EmbedColor int `env:"EMBED_COLOR,default=3092790"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

// Load reads the process environment once and caches the result.
func Load() (Config, error) {
	once.Do(func() {
		cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

// LoadWith processes the VC_ prefixed variables visible through lookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper(envPrefix, lookuper),
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, fmt.Errorf("expand dot path: %w", err)
	}
	cfg.DotPath = dotPath
	if !i18n.IsSupported(cfg.DefaultLanguage) {
		return nil, fmt.Errorf("unsupported language %q", cfg.DefaultLanguage)
	}
	if cfg.Commands.WakeupDelay < 0 {
		cfg.Commands.WakeupDelay = 0
	}
	return cfg, nil
}
