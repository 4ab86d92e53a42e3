package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compose-network/ctf-client/configs"
	"github.com/compose-network/ctf-client/internal/ctf"
	"github.com/compose-network/ctf-client/internal/network"
	"github.com/compose-network/ctf-client/internal/provider"
)

// open validates the loaded configuration and bootstraps a contract handle
// from it. The caller closes the handle.
func open(ctx context.Context, cfg configs.Config) (*ctf.Ctf, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry, err := network.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load network registry: %w", err)
	}

	slog.With("networks", registry.Names()).With("provider_url", cfg.Provider.URL).Debug("bootstrapping contract handle")

	return ctf.Bootstrap(ctx, ctf.Options{
		Host:             provider.EndpointHost{URL: cfg.Provider.URL},
		Registry:         registry,
		LocalDevelopment: cfg.Provider.LocalDevelopment,
		Relay:            cfg.Relay,
	})
}
