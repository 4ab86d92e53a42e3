package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/ctf-client/configs"
	"github.com/compose-network/ctf-client/internal/contracts/bindings"
	"github.com/compose-network/ctf-client/internal/logger"
	"github.com/compose-network/ctf-client/internal/network"
)

var ErrRelayConfig = errors.New("relay configuration failed")

// Config is the negotiated relay configuration for one session.
type Config struct {
	PaymasterAddress common.Address `json:"paymasterAddress"`
	LogLevel         int            `json:"logLevel"`
	// LoggerURL only appears in the configuration dump. Records stay local.
	LoggerURL            string `json:"loggerUrl"`
	MethodSuffix         string `json:"methodSuffix"`
	JSONStringifyRequest bool   `json:"jsonStringifyRequest"`

	RelayURL            string         `json:"relayUrl"`
	RelayHubAddress     common.Address `json:"relayHubAddress"`
	ForwarderAddress    common.Address `json:"forwarderAddress"`
	RelayWorkerAddress  common.Address `json:"relayWorkerAddress"`
	RelayManagerAddress common.Address `json:"relayManagerAddress"`
	ChainID             uint64         `json:"chainId"`
	ServerVersion       string         `json:"serverVersion"`
}

// SignMethod is the wallet RPC used to sign relay requests.
func (c Config) SignMethod() string {
	return "eth_signTypedData" + c.MethodSuffix
}

// Negotiator resolves the relay configuration for a resolved chain.
type Negotiator struct {
	settings configs.Relay
	server   Server
	logger   *slog.Logger
}

func NewNegotiator(settings configs.Relay, server Server) *Negotiator {
	return &Negotiator{
		settings: settings,
		server:   server,
		logger:   logger.Named("relay_negotiator"),
	}
}

// Negotiate combines the deployment's paymaster, the paymaster's on-chain
// wiring and the relayer's self description into a Config, and returns a
// channel that submits through it. Every failure wraps ErrRelayConfig.
func (n *Negotiator) Negotiate(ctx context.Context, conn *network.ChainConnection) (*Channel, error) {
	paymaster := conn.Network.PaymasterAddress
	if paymaster == (common.Address{}) {
		return nil, fmt.Errorf("%w: network %s has no paymaster", ErrRelayConfig, conn.Network.Name)
	}

	pm, err := bindings.NewPaymasterCaller(paymaster, conn.Client)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to bind paymaster: %w", ErrRelayConfig, err)
	}

	opts := &bind.CallOpts{Context: ctx}
	hub, err := pm.GetHubAddr(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read relay hub from paymaster %s: %w", ErrRelayConfig, paymaster.Hex(), err)
	}
	if hub == (common.Address{}) {
		return nil, fmt.Errorf("%w: paymaster %s has no relay hub", ErrRelayConfig, paymaster.Hex())
	}

	forwarder, err := pm.TrustedForwarder(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read forwarder from paymaster %s: %w", ErrRelayConfig, paymaster.Hex(), err)
	}

	ping, err := n.server.GetAddr(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRelayConfig, err)
	}
	if !ping.Ready {
		return nil, fmt.Errorf("%w: relayer %s is not ready", ErrRelayConfig, n.server.URL())
	}

	chainID, ok := new(big.Int).SetString(ping.ChainID.String(), 10)
	if !ok || chainID.Cmp(conn.ChainID) != 0 {
		return nil, fmt.Errorf("%w: relayer serves chain %q, wallet is on chain %s", ErrRelayConfig, ping.ChainID, conn.ChainID)
	}
	if ping.RelayHubAddress != hub {
		return nil, fmt.Errorf("%w: relayer uses hub %s, paymaster uses hub %s", ErrRelayConfig, ping.RelayHubAddress.Hex(), hub.Hex())
	}

	cfg := Config{
		PaymasterAddress:     paymaster,
		LogLevel:             n.settings.LogLevel,
		LoggerURL:            n.settings.LoggerURL,
		MethodSuffix:         n.settings.MethodSuffix,
		JSONStringifyRequest: n.settings.JSONStringifyRequest,
		RelayURL:             n.server.URL(),
		RelayHubAddress:      hub,
		ForwarderAddress:     forwarder,
		RelayWorkerAddress:   ping.RelayWorkerAddress,
		RelayManagerAddress:  ping.RelayManagerAddress,
		ChainID:              chainID.Uint64(),
		ServerVersion:        ping.Version,
	}

	if dump, err := json.MarshalIndent(cfg, "", "    "); err == nil {
		n.logger.With("config", string(dump)).Info("relay configuration negotiated")
	}

	return NewChannel(cfg, n.server, conn.Injected, conn.Client), nil
}
