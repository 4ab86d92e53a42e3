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
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/compose-network/ctf-client/internal/contracts/bindings"
	"github.com/compose-network/ctf-client/internal/logger"
	"github.com/compose-network/ctf-client/internal/provider"
)

var ErrSubmissionFailed = errors.New("relayed submission failed")

const (
	DefaultCallGas = 300_000

	// relayNonceGap bounds how far ahead of the worker's pending nonce the
	// relayer may place our transaction.
	relayNonceGap = 3

	domainName    = "GSN Relayed Transaction"
	domainVersion = "2"
	clientID      = "1"
)

var relayRequestTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"RelayRequest": {
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "gas", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "data", Type: "bytes"},
		{Name: "validUntil", Type: "uint256"},
		{Name: "relayData", Type: "RelayData"},
	},
	"RelayData": {
		{Name: "gasPrice", Type: "uint256"},
		{Name: "pctRelayFee", Type: "uint256"},
		{Name: "baseRelayFee", Type: "uint256"},
		{Name: "relayWorker", Type: "address"},
		{Name: "paymaster", Type: "address"},
		{Name: "forwarder", Type: "address"},
		{Name: "paymasterData", Type: "bytes"},
		{Name: "clientId", Type: "uint256"},
	},
}

// ChainReader is the direct chain access a channel needs. *ethclient.Client
// satisfies it.
type ChainReader interface {
	bind.ContractCaller
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Call is a contract call to be relayed on behalf of the wallet account.
type Call struct {
	To   common.Address
	Data []byte
	// Gas defaults to DefaultCallGas.
	Gas uint64
}

// Channel submits calls through the negotiated relayer. The wallet signs,
// the relayer pays.
type Channel struct {
	config   Config
	server   Server
	injected provider.Caller
	reader   ChainReader

	progress event.Feed
	logger   *slog.Logger
}

func NewChannel(cfg Config, server Server, injected provider.Caller, reader ChainReader) *Channel {
	return &Channel{
		config:   cfg,
		server:   server,
		injected: injected,
		reader:   reader,
		logger:   logger.AtLevel(logger.Named("relay_channel"), logger.RelayLevel(cfg.LogLevel)),
	}
}

func (c *Channel) Config() Config {
	return c.config
}

// Injected is the raw wallet provider the channel signs with.
func (c *Channel) Injected() provider.Caller {
	return c.injected
}

// SubscribeProgress delivers every Progress emitted by Submit to ch. The
// channel must be drained: a slow subscriber stalls submissions.
func (c *Channel) SubscribeProgress(ch chan<- Progress) event.Subscription {
	return c.progress.Subscribe(ch)
}

// Submit signs call with the wallet account and hands it to the relayer.
// It returns once the relayer has produced the transaction, without
// waiting for it to be mined. Every failure wraps ErrSubmissionFailed.
func (c *Channel) Submit(ctx context.Context, call Call) (*PendingTransaction, error) {
	c.emit(ProgressInit, common.Hash{})

	from, err := provider.PrimaryAccount(ctx, c.injected)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	req, err := c.buildRequest(ctx, from, call)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	log := c.logger.With("from", from.Hex()).With("to", call.To.Hex()).With("nonce", req.RelayRequest.Request.Nonce)

	typed := typedRelayRequest(c.config, req.RelayRequest)
	digest, _, err := apitypes.TypedDataAndHash(typed)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash relay request: %w", ErrSubmissionFailed, err)
	}

	c.emit(ProgressSignRequest, common.Hash{})
	log.Debug("requesting wallet signature", "method", c.config.SignMethod(), "digest", hexutil.Encode(digest))

	signature, err := c.sign(ctx, from, typed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	req.Metadata.Signature = signature

	c.emit(ProgressSendToRelayer, common.Hash{})
	log.Debug("sending request to relayer", "relay_url", c.server.URL())

	raw, err := c.server.Relay(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode relayer transaction: %w", ErrSubmissionFailed, err)
	}
	if err := c.checkRelayed(tx, req.Metadata.RelayMaxNonce); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	c.emit(ProgressRelayerResponse, tx.Hash())
	log = log.With("tx_hash", tx.Hash().Hex())
	log.Info("relayer accepted request")

	// The relayer broadcasts too, so a failed rebroadcast is not fatal.
	if err := c.reader.SendTransaction(ctx, tx); err != nil {
		log.Debug("rebroadcast failed", "err", err)
	}

	c.emit(ProgressBroadcast, tx.Hash())

	return &PendingTransaction{
		Hash:        tx.Hash(),
		Transaction: tx,
		reader:      c.reader,
	}, nil
}

func (c *Channel) buildRequest(ctx context.Context, from common.Address, call Call) (*TransactionRequest, error) {
	forwarder, err := bindings.NewForwarderCaller(c.config.ForwarderAddress, c.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to bind forwarder: %w", err)
	}

	nonce, err := forwarder.GetNonce(&bind.CallOpts{Context: ctx}, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get forwarder nonce for %s: %w", from.Hex(), err)
	}

	gasPrice, err := c.reader.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	workerNonce, err := c.reader.PendingNonceAt(ctx, c.config.RelayWorkerAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get relay worker nonce: %w", err)
	}

	gas := call.Gas
	if gas == 0 {
		gas = DefaultCallGas
	}

	return &TransactionRequest{
		RelayRequest: RelayRequest{
			Request: ForwardRequest{
				From:       from,
				To:         call.To,
				Value:      "0",
				Gas:        new(big.Int).SetUint64(gas).String(),
				Nonce:      nonce.String(),
				Data:       call.Data,
				ValidUntil: "0",
			},
			RelayData: RelayData{
				GasPrice:      gasPrice.String(),
				PctRelayFee:   "0",
				BaseRelayFee:  "0",
				RelayWorker:   c.config.RelayWorkerAddress,
				Paymaster:     c.config.PaymasterAddress,
				Forwarder:     c.config.ForwarderAddress,
				PaymasterData: hexutil.Bytes{},
				ClientID:      clientID,
			},
		},
		Metadata: Metadata{
			ApprovalData:    hexutil.Bytes{},
			RelayHubAddress: c.config.RelayHubAddress,
			RelayMaxNonce:   workerNonce + relayNonceGap,
		},
	}, nil
}

func (c *Channel) sign(ctx context.Context, from common.Address, typed apitypes.TypedData) (hexutil.Bytes, error) {
	var payload any = typed
	if c.config.JSONStringifyRequest {
		encoded, err := json.Marshal(typed)
		if err != nil {
			return nil, fmt.Errorf("failed to encode typed data: %w", err)
		}
		payload = string(encoded)
	}

	var signature hexutil.Bytes
	if err := c.injected.CallContext(ctx, &signature, c.config.SignMethod(), from, payload); err != nil {
		return nil, fmt.Errorf("failed to sign relay request: %w", err)
	}
	if len(signature) == 0 {
		return nil, errors.New("wallet returned an empty signature")
	}

	return signature, nil
}

// checkRelayed rejects a transaction the relayer could not have built for
// our request.
func (c *Channel) checkRelayed(tx *types.Transaction, maxNonce uint64) error {
	if to := tx.To(); to == nil || *to != c.config.RelayHubAddress {
		return fmt.Errorf("relayer transaction does not target relay hub %s", c.config.RelayHubAddress.Hex())
	}
	if tx.Nonce() > maxNonce {
		return fmt.Errorf("relayer transaction nonce %d exceeds %d", tx.Nonce(), maxNonce)
	}
	return nil
}

func (c *Channel) emit(kind ProgressKind, txHash common.Hash) {
	c.progress.Send(newProgress(kind, c.server.URL(), txHash))
}

func typedRelayRequest(cfg Config, req RelayRequest) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       relayRequestTypes,
		PrimaryType: "RelayRequest",
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(cfg.ChainID)),
			VerifyingContract: cfg.ForwarderAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"from":       req.Request.From.Hex(),
			"to":         req.Request.To.Hex(),
			"value":      req.Request.Value,
			"gas":        req.Request.Gas,
			"nonce":      req.Request.Nonce,
			"data":       hexutil.Encode(req.Request.Data),
			"validUntil": req.Request.ValidUntil,
			"relayData": map[string]any{
				"gasPrice":      req.RelayData.GasPrice,
				"pctRelayFee":   req.RelayData.PctRelayFee,
				"baseRelayFee":  req.RelayData.BaseRelayFee,
				"relayWorker":   req.RelayData.RelayWorker.Hex(),
				"paymaster":     req.RelayData.Paymaster.Hex(),
				"forwarder":     req.RelayData.Forwarder.Hex(),
				"paymasterData": hexutil.Encode(req.RelayData.PaymasterData),
				"clientId":      req.RelayData.ClientID,
			},
		},
	}
}
