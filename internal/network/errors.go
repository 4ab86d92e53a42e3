package network

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrUnsupportedNetwork   = errors.New("unsupported network")
	ErrLocalSetupIncomplete = errors.New("local setup incomplete")
)

// UnsupportedNetworkError is returned when the wallet is on a chain with no
// known deployment.
type UnsupportedNetworkError struct {
	ChainID *big.Int
	Known   []string
}

func (e *UnsupportedNetworkError) Error() string {
	return fmt.Sprintf("unsupported network (chain id %d). please switch to one of: %s", e.ChainID, strings.Join(e.Known, "/"))
}

func (e *UnsupportedNetworkError) Is(target error) bool {
	return target == ErrUnsupportedNetwork
}

// LocalSetupIncompleteError is returned in local development when the local
// chain has no deployment registered yet.
type LocalSetupIncompleteError struct {
	ChainID *big.Int
}

func (e *LocalSetupIncompleteError) Error() string {
	return fmt.Sprintf("no deployment for local chain id %d: start the local chain and deploy the contracts, then regenerate the networks file before continuing", e.ChainID)
}

func (e *LocalSetupIncompleteError) Is(target error) bool {
	return target == ErrLocalSetupIncomplete
}
