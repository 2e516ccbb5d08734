//go:build !linux && !mock

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shazow/nmctl/internal/config"
	"github.com/shazow/nmctl/network"
)

// GetBackend returns an error for operating systems without NetworkManager.
func GetBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (network.Manager, error) {
	return nil, fmt.Errorf("unsupported operating system: %w", network.ErrNotSupported)
}
