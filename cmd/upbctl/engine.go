package main

import (
	"context"

	"github.com/arloliu/go-upb/logger"
	"github.com/arloliu/go-upb/pim"
)

// startEngine creates and starts a delivery engine on p.
func startEngine(ctx context.Context, p port, l pim.Listener, cfg *Config) (*pim.Engine, error) {
	engineCfg, err := pim.NewEngineConfig(cfg.EngineOptions(logger.GetLogger())...)
	if err != nil {
		return nil, err
	}

	engine, err := pim.NewEngine(ctx, pim.NewLineTransport(p), l, engineCfg)
	if err != nil {
		return nil, err
	}

	if err := engine.Start(); err != nil {
		return nil, err
	}

	return engine, nil
}
