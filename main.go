package main

import (
	"context"

	"github.com/rs/zerolog/log"

	groupcfgx "github.com/openhearth/hearth/hearth/groupcfg"
	memberx "github.com/openhearth/hearth/hearth/member"
	sessionx "github.com/openhearth/hearth/hearth/session"
	toolx "github.com/openhearth/hearth/hearth/tool"
	configx "github.com/openhearth/hearth/pkg/config"
	logx "github.com/openhearth/hearth/pkg/logger"
)

type AppConfig struct {
	StateDir        string `envconfig:"STATE_DIR" default:"./state"`
	GroupConfigPath string `envconfig:"GROUP_CONFIG" default:"hearth.yaml"`
	LogDebug        bool   `envconfig:"LOG_DEBUG" default:"false"`
	LogPretty       bool   `envconfig:"LOG_PRETTY" default:"false"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("HEARTH")
	logx.Init(logx.Config{Debug: appCfg.LogDebug, PrettyFormat: appCfg.LogPretty})

	cfg, err := groupcfgx.Load(appCfg.GroupConfigPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load group config")
	}
	if !cfg.Enabled {
		log.Info().Msg("multi-party features disabled; nothing to do")
		return
	}

	registry, err := memberx.NewRegistry(appCfg.StateDir)
	if err != nil {
		log.Fatal().Err(err).Msg("open member registry")
	}
	defer func() {
		if err := registry.Close(); err != nil {
			log.Error().Err(err).Msg("close member registry")
		}
	}()

	ctx := context.Background()
	if err := memberx.SyncFromConfig(ctx, registry, cfg.Groups); err != nil {
		log.Fatal().Err(err).Msg("sync members from config")
	}

	tracker := sessionx.NewMemoryTracker()
	catalog := toolx.NewCatalog(registry, cfg.Groups, tracker)
	_ = catalog

	log.Info().
		Int("groups", len(cfg.Groups)).
		Int("tools", len(toolx.Infos())).
		Msg("identity and privacy core ready")
}
