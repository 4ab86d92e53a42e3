package network

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/compose-network/ctf-client/internal/logger"
	"github.com/compose-network/ctf-client/internal/provider"
)

// ChainConnection binds the wallet provider to a registered deployment.
// It owns the provider client.
type ChainConnection struct {
	ChainID *big.Int
	// NetworkVersion is net_version as the wallet reports it. It may
	// disagree with ChainID.
	NetworkVersion string
	Network        NetworkDescriptor

	// Client is the direct read connection.
	Client   *ethclient.Client
	Injected *rpc.Client
}

func (c *ChainConnection) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// Resolver validates the wallet's chain against the registry.
type Resolver struct {
	host             provider.Host
	registry         *Registry
	localDevelopment bool
	logger           *slog.Logger
}

type ResolverOption func(*Resolver)

func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver creates a resolver. localDevelopment selects which error an
// unregistered chain produces.
func NewResolver(host provider.Host, registry *Registry, localDevelopment bool, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		host:             host,
		registry:         registry,
		localDevelopment: localDevelopment,
		logger:           logger.Named("network_resolver"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve connects to the wallet provider and matches its chain against
// the registry. The connection owns the provider client; it is closed when
// resolution fails.
func (r *Resolver) Resolve(ctx context.Context) (_ *ChainConnection, err error) {
	injected, err := r.host.Injected(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			injected.Close()
		}
	}()

	client := ethclient.NewClient(injected)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	var netVersion string
	if err := injected.CallContext(ctx, &netVersion, "net_version"); err != nil {
		return nil, fmt.Errorf("failed to get network version: %w", err)
	}

	log := r.logger.With("chain_id", chainID.String()).With("network_id", netVersion)
	log.Debug("wallet network identified")

	if !sameNetwork(chainID, netVersion) {
		log.Warn(fmt.Sprintf("incompatible network id %s and chain id %s: for the wallet to work, they should be the same", netVersion, chainID))
	}

	var (
		net NetworkDescriptor
		ok  bool
	)
	if chainID.IsUint64() {
		net, ok = r.registry.Lookup(chainID.Uint64())
	}
	if !ok {
		if r.localDevelopment {
			return nil, &LocalSetupIncompleteError{ChainID: chainID}
		}
		return nil, &UnsupportedNetworkError{ChainID: chainID, Known: r.registry.Names()}
	}

	log.With("network", net.Name).With("ctf", net.ContractAddress.Hex()).Info("network resolved")

	return &ChainConnection{
		ChainID:        chainID,
		NetworkVersion: netVersion,
		Network:        net,
		Client:         client,
		Injected:       injected,
	}, nil
}

func sameNetwork(chainID *big.Int, netVersion string) bool {
	v, ok := new(big.Int).SetString(netVersion, 10)
	return ok && v.Cmp(chainID) == 0
}
