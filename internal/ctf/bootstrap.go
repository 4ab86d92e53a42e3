package ctf

import (
	"context"
	"fmt"

	"github.com/compose-network/ctf-client/configs"
	"github.com/compose-network/ctf-client/internal/network"
	"github.com/compose-network/ctf-client/internal/provider"
	"github.com/compose-network/ctf-client/internal/relay"
)

type Options struct {
	Host             provider.Host
	Registry         *network.Registry
	LocalDevelopment bool
	Relay            configs.Relay
	// Server defaults to the HTTP relayer at Relay.URL.
	Server relay.Server
}

// Bootstrap resolves the wallet's network, negotiates the relay and binds
// the contract, in that order. The first failure is returned unchanged.
func Bootstrap(ctx context.Context, opts Options) (*Ctf, error) {
	conn, err := network.NewResolver(opts.Host, opts.Registry, opts.LocalDevelopment).Resolve(ctx)
	if err != nil {
		return nil, err
	}

	server := opts.Server
	if server == nil {
		server = relay.NewHTTPServer(opts.Relay.URL, nil)
	}

	channel, err := relay.NewNegotiator(opts.Relay, server).Negotiate(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	c, err := New(conn, channel)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create contract handle: %w", err)
	}

	return c, nil
}
