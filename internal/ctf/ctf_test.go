package ctf

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/ctf-client/internal/contracts/bindings"
	"github.com/compose-network/ctf-client/internal/network"
	"github.com/compose-network/ctf-client/internal/provider/providertest"
	"github.com/compose-network/ctf-client/internal/relay"
)

var (
	testSigner    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	testCTF       = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testPaymaster = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	testHub       = common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	testForwarder = common.HexToAddress("0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9")
	testWorker    = common.HexToAddress("0xDc64a140Aa3E981100a9becA4E685f962f0cF6C9")

	holderA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	holderB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	holderC = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	testNetwork = network.NetworkDescriptor{
		ChainID:          31337,
		Name:             "local",
		ContractAddress:  testCTF,
		PaymasterAddress: testPaymaster,
	}
)

const (
	selectorCurrentHolder    = "004225b8"
	selectorGetNonce         = "2d0335ab"
	selectorGetHubAddr       = "74e861d6"
	selectorTrustedForwarder = "7da0a877"
)

// fakeBackend serves the contract's reads and logs. Methods it does not
// override panic.
type fakeBackend struct {
	Backend

	mu        sync.Mutex
	holder    common.Address
	callErr   error
	logs      []types.Log
	filterErr error
	queries   []ethereum.FilterQuery

	live event.Feed
}

func (b *fakeBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.callErr != nil {
		return nil, b.callErr
	}
	return providertest.Word(b.holder.Bytes()), nil
}

func (b *fakeBackend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queries = append(b.queries, q)
	if b.filterErr != nil {
		return nil, b.filterErr
	}

	var out []types.Log
	for _, l := range b.logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (b *fakeBackend) SubscribeFilterLogs(_ context.Context, _ ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return b.live.Subscribe(ch), nil
}

// mine delivers l to live subscribers and reports how many received it.
func (b *fakeBackend) mine(l types.Log) int {
	return b.live.Send(l)
}

func flagLog(t *testing.T, block uint64, previous, current common.Address) types.Log {
	t.Helper()

	parsed, err := bindings.CaptureTheFlagMetaData.GetAbi()
	require.NoError(t, err)

	ev := parsed.Events["FlagCaptured"]
	data, err := ev.Inputs.NonIndexed().Pack(previous, current)
	require.NoError(t, err)

	return types.Log{
		Address:     testCTF,
		Topics:      []common.Hash{ev.ID},
		Data:        data,
		BlockNumber: block,
		TxHash:      crypto.Keccak256Hash(new(big.Int).SetUint64(block).Bytes()),
	}
}

type fakeServer struct {
	mu       sync.Mutex
	ping     *relay.PingResponse
	signedTx hexutil.Bytes
	requests []*relay.TransactionRequest
}

func (s *fakeServer) URL() string {
	return "http://relayer.test"
}

func (s *fakeServer) GetAddr(context.Context) (*relay.PingResponse, error) {
	return s.ping, nil
}

func (s *fakeServer) Relay(_ context.Context, req *relay.TransactionRequest) (hexutil.Bytes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	return s.signedTx, nil
}

func readyPing() *relay.PingResponse {
	return &relay.PingResponse{
		RelayWorkerAddress: testWorker,
		RelayHubAddress:    testHub,
		ChainID:            json.Number("31337"),
		Ready:              true,
		Version:            "2.2.6",
	}
}

func testWallet() *providertest.Wallet {
	return &providertest.Wallet{
		ChainID:    31337,
		NetVersion: "31337",
		Accounts:   []common.Address{testSigner},
		Signature:  make([]byte, 65),
		Calls: map[string][]byte{
			selectorCurrentHolder:    providertest.Word(holderB.Bytes()),
			selectorGetNonce:         providertest.Word(big.NewInt(0).Bytes()),
			selectorGetHubAddr:       providertest.Word(testHub.Bytes()),
			selectorTrustedForwarder: providertest.Word(testForwarder.Bytes()),
		},
		GasPrice: 1_000_000_000,
	}
}

func relayedTx(t *testing.T, key *ecdsa.PrivateKey) (*types.Transaction, hexutil.Bytes) {
	t.Helper()

	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		To:       &testHub,
		Gas:      500_000,
		GasPrice: big.NewInt(1_000_000_000),
	}), types.HomesteadSigner{}, key)
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	return tx, raw
}

func newTestCtf(t *testing.T, backend *fakeBackend, server *fakeServer) *Ctf {
	t.Helper()

	injected := providertest.Serve(t, testWallet())
	channel := relay.NewChannel(relay.Config{
		PaymasterAddress:   testPaymaster,
		MethodSuffix:       "_v3",
		RelayURL:           server.URL(),
		RelayHubAddress:    testHub,
		ForwarderAddress:   testForwarder,
		RelayWorkerAddress: testWorker,
		ChainID:            31337,
	}, server, injected, ethclient.NewClient(injected))

	c, err := newCtf(testNetwork, backend, channel)
	require.NoError(t, err)

	return c
}

func TestCurrentFlagHolder(t *testing.T) {
	t.Parallel()

	c := newTestCtf(t, &fakeBackend{holder: holderA}, &fakeServer{})

	holder, err := c.CurrentFlagHolder(t.Context())
	require.NoError(t, err)
	assert.Equal(t, holderA, holder)
}

func TestCurrentFlagHolder_WrapsReadError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	c := newTestCtf(t, &fakeBackend{callErr: cause}, &fakeServer{})

	_, err := c.CurrentFlagHolder(t.Context())
	require.ErrorIs(t, err, ErrReadCallFailed)
	require.ErrorIs(t, err, cause)
}

func TestPastEvents_TruncatesFromTheStart(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{logs: []types.Log{
		flagLog(t, 10, common.Address{}, holderA),
		flagLog(t, 20, holderA, holderB),
		flagLog(t, 30, holderB, holderC),
	}}
	c := newTestCtf(t, backend, &fakeServer{})

	events, err := c.PastEvents(t.Context(), 2)
	require.NoError(t, err)
	assert.Equal(t, []FlagEvent{
		{PreviousHolder: common.Address{}, CurrentHolder: holderA},
		{PreviousHolder: holderA, CurrentHolder: holderB},
	}, events)

	require.Len(t, backend.queries, 1)
	assert.Equal(t, big.NewInt(1), backend.queries[0].FromBlock)
	assert.Equal(t, []common.Address{testCTF}, backend.queries[0].Addresses)
}

func TestPastEvents_Limits(t *testing.T) {
	t.Parallel()

	var logs []types.Log
	holders := []common.Address{{}}
	for i := 1; i <= 8; i++ {
		holders = append(holders, common.BigToAddress(big.NewInt(int64(i))))
		logs = append(logs, flagLog(t, uint64(i*10), holders[i-1], holders[i]))
	}

	tests := []struct {
		name      string
		giveLogs  []types.Log
		giveLimit int
		wantLen   int
	}{
		{name: "negative limit uses default", giveLogs: logs, giveLimit: -1, wantLen: DefaultPastEventsLimit},
		{name: "zero limit returns none", giveLogs: logs, giveLimit: 0, wantLen: 0},
		{name: "limit above count", giveLogs: logs[:3], giveLimit: 10, wantLen: 3},
		{name: "exact count", giveLogs: logs, giveLimit: 8, wantLen: 8},
		{name: "no events", giveLogs: nil, giveLimit: 5, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestCtf(t, &fakeBackend{logs: tt.giveLogs}, &fakeServer{})

			events, err := c.PastEvents(t.Context(), tt.giveLimit)
			require.NoError(t, err)
			require.Len(t, events, tt.wantLen)
			for i, ev := range events {
				assert.Equal(t, holders[i], ev.PreviousHolder)
				assert.Equal(t, holders[i+1], ev.CurrentHolder)
			}
		})
	}
}

func TestPastEvents_FilterError(t *testing.T) {
	t.Parallel()

	c := newTestCtf(t, &fakeBackend{filterErr: errors.New("query returned more than 10000 results")}, &fakeServer{})

	_, err := c.PastEvents(t.Context(), 5)
	require.ErrorIs(t, err, ErrReadCallFailed)
	assert.ErrorContains(t, err, "more than 10000 results")
}

func TestCapture_SubmitsThroughRelay(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx, raw := relayedTx(t, key)

	server := &fakeServer{signedTx: raw}
	c := newTestCtf(t, &fakeBackend{}, server)

	pending, err := c.Capture(t.Context())
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), pending.Hash)

	require.Len(t, server.requests, 1)
	req := server.requests[0].RelayRequest.Request
	assert.Equal(t, testSigner, req.From)
	assert.Equal(t, testCTF, req.To)
	assert.Equal(t, hexutil.Bytes{0x23, 0x9e, 0x26, 0xf2}, req.Data)
}

func TestCapture_SubmissionFailure(t *testing.T) {
	t.Parallel()

	c := newTestCtf(t, &fakeBackend{}, &fakeServer{signedTx: hexutil.Bytes{0x01}})

	_, err := c.Capture(t.Context())
	require.ErrorIs(t, err, ErrSubmissionFailed)
	require.ErrorIs(t, err, relay.ErrSubmissionFailed)

	// the handle stays usable
	_, err = c.PastEvents(t.Context(), 1)
	require.NoError(t, err)
}

func TestSigner(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	c := newTestCtf(t, backend, &fakeServer{})

	signer, err := c.Signer(t.Context())
	require.NoError(t, err)
	assert.Equal(t, testSigner, signer)
	assert.NotNil(t, c.Provider())
	assert.Equal(t, testCTF, c.Address())
	assert.Equal(t, testNetwork, c.Network())
	assert.Same(t, backend, c.Chain())
}

func TestListenToEvents_DeliversBothSources(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, raw := relayedTx(t, key)

	backend := &fakeBackend{}
	c := newTestCtf(t, backend, &fakeServer{signedTx: raw})

	flags := make(chan FlagEvent, 4)
	progress := make(chan relay.Progress, 8)

	listeners, err := c.ListenToEvents(t.Context(),
		func(ev FlagEvent) { flags <- ev },
		func(p relay.Progress) { progress <- p },
	)
	require.NoError(t, err)
	defer c.StopListenToEvents(listeners)

	mined := flagLog(t, 40, holderA, holderB)
	require.Eventually(t, func() bool {
		return backend.mine(mined) == 1
	}, time.Second, 10*time.Millisecond)

	select {
	case ev := <-flags:
		assert.Equal(t, FlagEvent{PreviousHolder: holderA, CurrentHolder: holderB}, ev)
	case <-time.After(time.Second):
		t.Fatal("flag event not delivered")
	}

	_, err = c.Capture(t.Context())
	require.NoError(t, err)

	var kinds []relay.ProgressKind
	for len(kinds) < 5 {
		select {
		case p := <-progress:
			kinds = append(kinds, p.Kind)
		case <-time.After(time.Second):
			t.Fatalf("progress stalled after %v", kinds)
		}
	}
	assert.Equal(t, []relay.ProgressKind{
		relay.ProgressInit,
		relay.ProgressSignRequest,
		relay.ProgressSendToRelayer,
		relay.ProgressRelayerResponse,
		relay.ProgressBroadcast,
	}, kinds)
}

func TestStopListenToEvents_SilencesCallbacks(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, raw := relayedTx(t, key)

	backend := &fakeBackend{}
	c := newTestCtf(t, backend, &fakeServer{signedTx: raw})

	var calls atomic.Int32
	listeners, err := c.ListenToEvents(t.Context(),
		func(FlagEvent) { calls.Add(1) },
		func(relay.Progress) { calls.Add(1) },
	)
	require.NoError(t, err)

	c.StopListenToEvents(listeners)

	assert.Zero(t, backend.mine(flagLog(t, 50, holderB, holderC)))
	_, err = c.Capture(t.Context())
	require.NoError(t, err)

	assert.Zero(t, calls.Load())
}

func TestListenToEvents_IndependentSubscriptions(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	c := newTestCtf(t, backend, &fakeServer{})

	flags := make(chan FlagEvent, 1)
	listeners, err := c.ListenToEvents(t.Context(), func(ev FlagEvent) { flags <- ev }, func(relay.Progress) {})
	require.NoError(t, err)
	require.NotNil(t, listeners.Flag)
	require.NotNil(t, listeners.Progress)

	listeners.Progress.Unsubscribe()

	mined := flagLog(t, 60, holderC, holderA)
	require.Eventually(t, func() bool {
		return backend.mine(mined) == 1
	}, time.Second, 10*time.Millisecond)
	select {
	case <-flags:
	case <-time.After(time.Second):
		t.Fatal("flag subscription stopped with the progress one")
	}

	c.StopListenToEvents(listeners)
}

func TestListenToEvents_NilCallbacks(t *testing.T) {
	t.Parallel()

	c := newTestCtf(t, &fakeBackend{}, &fakeServer{})

	listeners, err := c.ListenToEvents(t.Context(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, listeners.Flag)
	assert.Nil(t, listeners.Progress)

	c.StopListenToEvents(listeners)
	c.StopListenToEvents(nil)
}

func newHTTPCtf(t *testing.T, w *providertest.Wallet) *Ctf {
	t.Helper()

	client, err := ethclient.DialContext(t.Context(), providertest.ServeHTTP(t, w))
	require.NoError(t, err)
	t.Cleanup(client.Close)

	c, err := newCtf(testNetwork, client, nil)
	require.NoError(t, err)
	c.pollInterval = 10 * time.Millisecond

	return c
}

func TestListenToEvents_PollsOverHTTP(t *testing.T) {
	t.Parallel()

	w := testWallet()
	w.Head = 40
	w.Mine(flagLog(t, 30, common.Address{}, holderA))
	c := newHTTPCtf(t, w)

	flags := make(chan FlagEvent, 4)
	listeners, err := c.ListenToEvents(t.Context(), func(ev FlagEvent) { flags <- ev }, nil)
	require.NoError(t, err)
	defer c.StopListenToEvents(listeners)

	w.Mine(flagLog(t, 41, holderA, holderB))
	w.Mine(flagLog(t, 43, holderB, holderC))

	for _, want := range []FlagEvent{
		{PreviousHolder: holderA, CurrentHolder: holderB},
		{PreviousHolder: holderB, CurrentHolder: holderC},
	} {
		select {
		case ev := <-flags:
			assert.Equal(t, want, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("event %+v not delivered", want)
		}
	}

	select {
	case ev := <-flags:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStopListenToEvents_SilencesPolling(t *testing.T) {
	t.Parallel()

	w := testWallet()
	w.Head = 10
	c := newHTTPCtf(t, w)

	var calls atomic.Int32
	listeners, err := c.ListenToEvents(t.Context(), func(FlagEvent) { calls.Add(1) }, nil)
	require.NoError(t, err)

	c.StopListenToEvents(listeners)

	w.Mine(flagLog(t, 11, holderA, holderB))
	time.Sleep(100 * time.Millisecond)

	assert.Zero(t, calls.Load())
}
