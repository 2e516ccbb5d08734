package main

import (
	"log/slog"

	"github.com/shazow/nmctl/internal/config"
	"github.com/shazow/nmctl/network/nmcli"
)

// clientOptions maps the config file onto nmcli.Client options.
func clientOptions(cfg config.Config, logger *slog.Logger) nmcli.Options {
	opts := nmcli.Options{
		MinVersion: cfg.MinVersion,
		ResetDelay: cfg.ResetDelay,
		Logger:     logger,
	}
	if cfg.SecretSource == config.SecretsDBus {
		opts.Secrets = nmcli.DBusSecrets{}
	}
	return opts
}
