package ctf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/compose-network/ctf-client/internal/contracts/bindings"
	"github.com/compose-network/ctf-client/internal/logger"
	"github.com/compose-network/ctf-client/internal/network"
	"github.com/compose-network/ctf-client/internal/provider"
	"github.com/compose-network/ctf-client/internal/relay"
)

const (
	DefaultPastEventsLimit = 5
	// DefaultEventPollInterval paces FlagCaptured polling on providers
	// without subscriptions.
	DefaultEventPollInterval = 4 * time.Second
)

// pastEventsFromBlock skips the genesis block.
const pastEventsFromBlock = 1

var (
	ErrReadCallFailed = errors.New("contract read failed")
	// ErrSubmissionFailed is returned by Capture. The handle stays usable.
	ErrSubmissionFailed = relay.ErrSubmissionFailed
)

// Backend is the direct read connection of a handle. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Ctf is the capture-the-flag contract as seen by one wallet: reads go
// straight to the chain, writes go through the relay.
type Ctf struct {
	contract     *bindings.CaptureTheFlag
	abi          *abi.ABI
	network      network.NetworkDescriptor
	backend      Backend
	channel      *relay.Channel
	closer       func()
	pollInterval time.Duration
	logger       *slog.Logger
}

// New binds the contract of conn's network. The handle takes ownership of
// conn.
func New(conn *network.ChainConnection, channel *relay.Channel) (*Ctf, error) {
	c, err := newCtf(conn.Network, conn.Client, channel)
	if err != nil {
		return nil, err
	}
	c.closer = conn.Close

	return c, nil
}

func newCtf(net network.NetworkDescriptor, backend Backend, channel *relay.Channel) (*Ctf, error) {
	contract, err := bindings.NewCaptureTheFlag(net.ContractAddress, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to bind contract %s: %w", net.ContractAddress.Hex(), err)
	}

	parsed, err := bindings.CaptureTheFlagMetaData.GetAbi()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}

	return &Ctf{
		contract:     contract,
		abi:          parsed,
		network:      net,
		backend:      backend,
		channel:      channel,
		pollInterval: DefaultEventPollInterval,
		logger:       logger.Named("ctf").With("network", net.Name),
	}, nil
}

func (c *Ctf) Address() common.Address {
	return c.network.ContractAddress
}

func (c *Ctf) Network() network.NetworkDescriptor {
	return c.network
}

// Relay is the negotiated relay configuration.
func (c *Ctf) Relay() relay.Config {
	return c.channel.Config()
}

// Provider is the raw wallet provider, for diagnostics.
func (c *Ctf) Provider() provider.Caller {
	return c.channel.Injected()
}

// Chain is the direct read connection, for diagnostics.
func (c *Ctf) Chain() Backend {
	return c.backend
}

// Close releases the chain connection.
func (c *Ctf) Close() {
	if c.closer != nil {
		c.closer()
	}
}

func (c *Ctf) CurrentFlagHolder(ctx context.Context) (common.Address, error) {
	holder, err := c.contract.CurrentHolder(&bind.CallOpts{Context: ctx})
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: currentHolder on %s: %w", ErrReadCallFailed, c.Address().Hex(), err)
	}

	return holder, nil
}

// Capture submits captureTheFlag through the relay. It does not wait for
// the transaction to be mined.
func (c *Ctf) Capture(ctx context.Context) (*relay.PendingTransaction, error) {
	data, err := c.abi.Pack("captureTheFlag")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to pack call: %w", ErrSubmissionFailed, err)
	}

	pending, err := c.channel.Submit(ctx, relay.Call{To: c.Address(), Data: data})
	if err != nil {
		return nil, err
	}

	c.logger.With("tx_hash", pending.Hash.Hex()).Info("flag capture submitted")

	return pending, nil
}

// Signer is the wallet account submissions are made from.
func (c *Ctf) Signer(ctx context.Context) (common.Address, error) {
	return provider.PrimaryAccount(ctx, c.channel.Injected())
}

// PastEvents returns the first limit FlagCaptured events, oldest first. A
// negative limit means DefaultPastEventsLimit; zero returns none.
func (c *Ctf) PastEvents(ctx context.Context, limit int) ([]FlagEvent, error) {
	if limit < 0 {
		limit = DefaultPastEventsLimit
	}

	it, err := c.contract.FilterFlagCaptured(&bind.FilterOpts{Start: pastEventsFromBlock, Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to filter FlagCaptured: %w", ErrReadCallFailed, err)
	}
	defer it.Close()

	var events []FlagEvent
	for it.Next() {
		events = append(events, newFlagEvent(it.Event))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("%w: failed to read FlagCaptured: %w", ErrReadCallFailed, err)
	}

	if len(events) > limit {
		events = events[:limit]
	}

	return events, nil
}

// ListenToEvents starts delivering new FlagCaptured events to onFlag and
// relay progress to onProgress. Callbacks run on their subscription's
// goroutine, in arrival order, and must not call StopListenToEvents.
func (c *Ctf) ListenToEvents(ctx context.Context, onFlag func(FlagEvent), onProgress func(relay.Progress)) (*Listeners, error) {
	listeners := &Listeners{}

	if onFlag != nil {
		flag, err := c.watchFlags(ctx, onFlag)
		if err != nil {
			return nil, err
		}
		listeners.Flag = flag
	}

	if onProgress != nil {
		updates := make(chan relay.Progress)
		feed := c.channel.SubscribeProgress(updates)

		listeners.Progress = event.NewSubscription(func(quit <-chan struct{}) error {
			defer feed.Unsubscribe()
			for {
				select {
				case p := <-updates:
					onProgress(p)
				case <-quit:
					return nil
				}
			}
		})
	}

	c.logger.Debug("listening to events", "flag", onFlag != nil, "progress", onProgress != nil)

	return listeners, nil
}

// watchFlags subscribes to FlagCaptured, falling back to polling when the
// provider has no subscriptions (plain HTTP).
func (c *Ctf) watchFlags(ctx context.Context, onFlag func(FlagEvent)) (event.Subscription, error) {
	sink := make(chan *bindings.CaptureTheFlagFlagCaptured)
	watch, err := c.contract.WatchFlagCaptured(&bind.WatchOpts{Context: ctx}, sink)
	if errors.Is(err, rpc.ErrNotificationsUnsupported) {
		return c.pollFlags(ctx, onFlag)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to FlagCaptured: %w", err)
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer watch.Unsubscribe()
		for {
			select {
			case ev := <-sink:
				onFlag(newFlagEvent(ev))
			case err := <-watch.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// pollFlags delivers FlagCaptured events mined after the current head,
// checking once per poll interval. A failed poll is retried from the same
// block on the next tick.
func (c *Ctf) pollFlags(ctx context.Context, onFlag func(FlagEvent)) (event.Subscription, error) {
	head, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get block number: %w", err)
	}

	log := c.logger.With("interval", c.pollInterval.String())
	log.Debug("provider has no subscriptions, polling FlagCaptured", "from_block", head+1)

	return event.NewSubscription(func(quit <-chan struct{}) error {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		next := head + 1
		for {
			select {
			case <-ticker.C:
				n, err := c.pollFlagsFrom(ctx, next, onFlag, quit)
				if err != nil {
					log.Warn("FlagCaptured poll failed", "from_block", next, "err", err)
					continue
				}
				next = n
			case <-ctx.Done():
				return ctx.Err()
			case <-quit:
				return nil
			}
		}
	}), nil
}

// pollFlagsFrom delivers the events in [from, latest] and returns the next
// block to poll from.
func (c *Ctf) pollFlagsFrom(ctx context.Context, from uint64, onFlag func(FlagEvent), quit <-chan struct{}) (uint64, error) {
	latest, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return from, fmt.Errorf("failed to get block number: %w", err)
	}
	if latest < from {
		return from, nil
	}

	it, err := c.contract.FilterFlagCaptured(&bind.FilterOpts{Start: from, End: &latest, Context: ctx})
	if err != nil {
		return from, err
	}
	defer it.Close()

	var events []FlagEvent
	for it.Next() {
		events = append(events, newFlagEvent(it.Event))
	}
	if err := it.Error(); err != nil {
		return from, err
	}

	for _, ev := range events {
		select {
		case <-quit:
			return latest + 1, nil
		default:
		}
		onFlag(ev)
	}

	return latest + 1, nil
}

// StopListenToEvents cancels both subscriptions of l. No callback runs
// after it returns.
func (c *Ctf) StopListenToEvents(l *Listeners) {
	l.Unsubscribe()
	c.logger.Debug("stopped listening to events")
}
