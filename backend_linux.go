//go:build linux && !mock

package main

import (
	"context"
	"log/slog"

	"github.com/shazow/nmctl/internal/config"
	"github.com/shazow/nmctl/network"
	"github.com/shazow/nmctl/network/nmcli"
)

func GetBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (network.Manager, error) {
	t := nmcli.NewExecTransport(logger)
	t.Programs[nmcli.TargetTool] = cfg.NMCLI
	t.Programs[nmcli.TargetSecretBus] = cfg.DBusSend
	t.Timeout = cfg.CommandTimeout

	c, err := nmcli.New(ctx, t, clientOptions(cfg, logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("using nmcli", "version", c.Version())
	return c, nil
}
