// Package providertest serves a scripted wallet provider over an
// in-process JSON-RPC server.
package providertest

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

// Wallet holds what the fake provider reports. Fields may be changed
// between calls; access is serialized.
type Wallet struct {
	mu sync.Mutex

	ChainID uint64
	// WideChainID, when set, is reported instead of ChainID.
	WideChainID *big.Int
	NetVersion  string
	Accounts    []common.Address
	// Locked hides Accounts from eth_accounts until eth_requestAccounts.
	Locked bool

	Signature []byte
	SignErr   error

	// Calls maps a 4-byte selector (hex, no prefix) to the eth_call result.
	Calls    map[string][]byte
	GasPrice int64
	TxCount  uint64
	Balances map[common.Address]int64
	SendErr  error

	// Head is the latest block number. Logs answer eth_getLogs.
	Head uint64
	Logs []types.Log

	SignRequests []SignRequest
	Broadcast    []hexutil.Bytes
}

// SignRequest records one eth_signTypedData* call.
type SignRequest struct {
	Method string
	From   common.Address
	Data   json.RawMessage
}

// Word left-pads b into a 32-byte ABI word, for Calls results.
func Word(b []byte) []byte {
	return common.LeftPadBytes(b, 32)
}

// Requests returns a copy of the recorded signing requests.
func (w *Wallet) Requests() []SignRequest {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]SignRequest(nil), w.SignRequests...)
}

// Mine appends l to the wallet's logs and advances Head to its block.
func (w *Wallet) Mine(l types.Log) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.Logs = append(w.Logs, l)
	w.Head = max(w.Head, l.BlockNumber)
}

// Serve registers the wallet's eth and net namespaces on an in-process
// server and returns a client connected to it. Both are closed on test
// cleanup.
func Serve(t *testing.T, w *Wallet) *rpc.Client {
	t.Helper()

	server := newServer(t, w)
	client := rpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})

	return client
}

// ServeHTTP exposes the wallet as an HTTP JSON-RPC endpoint and returns its
// URL.
func ServeHTTP(t *testing.T, w *Wallet) string {
	t.Helper()

	server := newServer(t, w)
	endpoint := httptest.NewServer(server)
	t.Cleanup(func() {
		endpoint.Close()
		server.Stop()
	})

	return endpoint.URL
}

func newServer(t *testing.T, w *Wallet) *rpc.Server {
	t.Helper()

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", &ethService{w: w}))
	require.NoError(t, server.RegisterName("net", &netService{w: w}))

	return server
}

type ethService struct {
	w *Wallet
}

func (s *ethService) ChainId() *hexutil.Big {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	if s.w.WideChainID != nil {
		return (*hexutil.Big)(s.w.WideChainID)
	}
	return (*hexutil.Big)(new(big.Int).SetUint64(s.w.ChainID))
}

func (s *ethService) BlockNumber() hexutil.Uint64 {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	return hexutil.Uint64(s.w.Head)
}

type filterArgs struct {
	FromBlock string           `json:"fromBlock"`
	ToBlock   string           `json:"toBlock"`
	Address   []common.Address `json:"address"`
}

func (s *ethService) GetLogs(args filterArgs) ([]types.Log, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	from, err := blockArg(args.FromBlock, 0)
	if err != nil {
		return nil, err
	}
	to, err := blockArg(args.ToBlock, s.w.Head)
	if err != nil {
		return nil, err
	}

	logs := []types.Log{}
	for _, l := range s.w.Logs {
		if l.BlockNumber < from || l.BlockNumber > to {
			continue
		}
		if len(args.Address) > 0 && !slices.Contains(args.Address, l.Address) {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// blockArg decodes a hex block number. Tags such as "latest" resolve to
// fallback.
func blockArg(arg string, fallback uint64) (uint64, error) {
	if !strings.HasPrefix(arg, "0x") {
		return fallback, nil
	}
	return hexutil.DecodeUint64(arg)
}

func (s *ethService) Accounts() []common.Address {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	if s.w.Locked {
		return []common.Address{}
	}
	return s.w.Accounts
}

func (s *ethService) RequestAccounts() []common.Address {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	s.w.Locked = false
	return s.w.Accounts
}

type callArgs struct {
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

func (s *ethService) Call(args callArgs, block json.RawMessage) (hexutil.Bytes, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	input := args.Input
	if len(input) == 0 {
		input = args.Data
	}
	if len(input) < 4 {
		return nil, errors.New("execution reverted")
	}

	out, ok := s.w.Calls[hex.EncodeToString(input[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return out, nil
}

func (s *ethService) GasPrice() *hexutil.Big {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	return (*hexutil.Big)(big.NewInt(s.w.GasPrice))
}

func (s *ethService) GetBalance(addr common.Address, block json.RawMessage) *hexutil.Big {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	return (*hexutil.Big)(big.NewInt(s.w.Balances[addr]))
}

func (s *ethService) GetTransactionCount(addr common.Address, block json.RawMessage) hexutil.Uint64 {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	return hexutil.Uint64(s.w.TxCount)
}

func (s *ethService) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	if s.w.SendErr != nil {
		return common.Hash{}, s.w.SendErr
	}
	s.w.Broadcast = append(s.w.Broadcast, raw)
	return crypto.Keccak256Hash(raw), nil
}

func (s *ethService) SignTypedData_v3(from common.Address, data json.RawMessage) (hexutil.Bytes, error) {
	return s.sign("eth_signTypedData_v3", from, data)
}

func (s *ethService) SignTypedData_v4(from common.Address, data json.RawMessage) (hexutil.Bytes, error) {
	return s.sign("eth_signTypedData_v4", from, data)
}

func (s *ethService) sign(method string, from common.Address, data json.RawMessage) (hexutil.Bytes, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	s.w.SignRequests = append(s.w.SignRequests, SignRequest{Method: method, From: from, Data: data})
	if s.w.SignErr != nil {
		return nil, s.w.SignErr
	}
	return s.w.Signature, nil
}

type netService struct {
	w *Wallet
}

func (s *netService) Version() string {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	return s.w.NetVersion
}
