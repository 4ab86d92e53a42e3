package relay

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/ctf-client/internal/provider/providertest"
)

var (
	testFrom      = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	testCTF       = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testPaymaster = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	testHub       = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	testForwarder = common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9")
	testWorker    = common.HexToAddress("0xDc64a140Aa3E981100a9becA4E685f962f0cF6C9")
	testManager   = common.HexToAddress("0x5FC8d32690cc91D4c39d9d3abcBD16989F875707")
)

const (
	selectorGetNonce         = "2d0335ab"
	selectorGetHubAddr       = "74e861d6"
	selectorTrustedForwarder = "7da0a877"
)

// fakeServer is a scripted relayer.
type fakeServer struct {
	mu sync.Mutex

	ping     *PingResponse
	pingErr  error
	signedTx hexutil.Bytes
	relayErr error

	requests []*TransactionRequest
}

func (s *fakeServer) URL() string {
	return "http://relayer.test"
}

func (s *fakeServer) GetAddr(context.Context) (*PingResponse, error) {
	return s.ping, s.pingErr
}

func (s *fakeServer) Relay(_ context.Context, req *TransactionRequest) (hexutil.Bytes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	return s.signedTx, s.relayErr
}

func (s *fakeServer) received() []*TransactionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*TransactionRequest(nil), s.requests...)
}

func readyPing() *PingResponse {
	return &PingResponse{
		RelayWorkerAddress:  testWorker,
		RelayManagerAddress: testManager,
		RelayHubAddress:     testHub,
		ChainID:             json.Number("31337"),
		Ready:               true,
		Version:             "2.2.6",
	}
}

func testWallet() *providertest.Wallet {
	return &providertest.Wallet{
		ChainID:    31337,
		NetVersion: "31337",
		Accounts:   []common.Address{testFrom},
		Signature:  make([]byte, 65),
		Calls: map[string][]byte{
			selectorGetNonce:         providertest.Word(big.NewInt(7).Bytes()),
			selectorGetHubAddr:       providertest.Word(testHub.Bytes()),
			selectorTrustedForwarder: providertest.Word(testForwarder.Bytes()),
		},
		GasPrice: 1_000_000_000,
		TxCount:  10,
	}
}

func testConfig() Config {
	return Config{
		PaymasterAddress:     testPaymaster,
		LogLevel:             0,
		LoggerURL:            "https://gsn-logger.netlify.app",
		MethodSuffix:         "_v3",
		JSONStringifyRequest: true,
		RelayURL:             "http://relayer.test",
		RelayHubAddress:      testHub,
		ForwarderAddress:     testForwarder,
		RelayWorkerAddress:   testWorker,
		RelayManagerAddress:  testManager,
		ChainID:              31337,
		ServerVersion:        "2.2.6",
	}
}

func relayedTx(t *testing.T, key *ecdsa.PrivateKey, nonce uint64, to common.Address) (*types.Transaction, hexutil.Bytes) {
	t.Helper()

	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      500_000,
		GasPrice: big.NewInt(1_000_000_000),
		Data:     []byte{0x01},
	}), types.HomesteadSigner{}, key)
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	return tx, raw
}

func newTestChannel(t *testing.T, w *providertest.Wallet, cfg Config, server Server) *Channel {
	t.Helper()

	injected := providertest.Serve(t, w)
	return NewChannel(cfg, server, injected, ethclient.NewClient(injected))
}

var errBoom = errors.New("boom")
