//go:build mock

package main

import (
	"context"
	"log/slog"

	"github.com/shazow/nmctl/internal/config"
	"github.com/shazow/nmctl/network"
	"github.com/shazow/nmctl/network/nmcli"
	"github.com/shazow/nmctl/network/nmcli/fake"
)

func GetBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (network.Manager, error) {
	opts := clientOptions(cfg, logger)
	opts.Secrets = nil
	return nmcli.New(ctx, fake.New(), opts)
}
