package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

var ErrNoProviderFound = errors.New("no wallet provider found: install a wallet extension such as MetaMask, or set provider.url to its RPC endpoint")

// Caller is the part of the wallet provider every component needs: raw
// JSON-RPC requests. *rpc.Client satisfies it.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// Host is the environment the wallet provider is injected into.
type Host interface {
	Injected(ctx context.Context) (*rpc.Client, error)
}

// EndpointHost reaches the wallet provider through a JSON-RPC endpoint
// (http, ws or ipc).
type EndpointHost struct {
	URL string
}

func (h EndpointHost) Injected(ctx context.Context) (*rpc.Client, error) {
	if h.URL == "" {
		return nil, ErrNoProviderFound
	}

	client, err := rpc.DialContext(ctx, h.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to dial %s: %v", ErrNoProviderFound, h.URL, err)
	}

	return client, nil
}

// StaticHost hands out an already connected provider. A nil client means
// nothing was injected.
type StaticHost struct {
	Client *rpc.Client
}

func (h StaticHost) Injected(context.Context) (*rpc.Client, error) {
	if h.Client == nil {
		return nil, ErrNoProviderFound
	}
	return h.Client, nil
}

// Accounts returns the accounts the wallet exposes, asking the wallet to
// unlock them when none are visible yet.
func Accounts(ctx context.Context, c Caller) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) > 0 {
		return accounts, nil
	}

	if err := c.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, fmt.Errorf("failed to request accounts: %w", err)
	}

	return accounts, nil
}

// PrimaryAccount returns the account that drives submissions.
func PrimaryAccount(ctx context.Context, c Caller) (common.Address, error) {
	accounts, err := Accounts(ctx, c)
	if err != nil {
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		return common.Address{}, errors.New("wallet provider exposes no accounts")
	}

	return accounts[0], nil
}
