package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/compose-network/ctf-client/internal/logger"
)

// BalanceReader is the chain access the checker needs. *ethclient.Client
// satisfies it.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Checker reports the balances a relayed capture depends on: the relay
// worker pays gas up front and the paymaster's deposit on the hub refunds
// it.
type Checker struct {
	reader BalanceReader
	logger *slog.Logger
}

func NewChecker(reader BalanceReader) *Checker {
	return &Checker{
		reader: reader,
		logger: logger.Named("balance_checker"),
	}
}

// Targets names the accounts to inspect.
type Targets struct {
	Signer    common.Address
	Worker    common.Address
	Paymaster common.Address
	Hub       common.Address
}

// Balance is one line of a report. Err is set when the query failed.
type Balance struct {
	Label   string
	Address common.Address
	Wei     *big.Int
	Err     error
}

// Check queries every target. Individual failures are recorded in the
// report, not returned.
func (c *Checker) Check(ctx context.Context, t Targets) []Balance {
	report := []Balance{
		c.ethBalance(ctx, "signer", t.Signer),
		c.ethBalance(ctx, "relay worker", t.Worker),
		c.hubDeposit(ctx, t.Hub, t.Paymaster),
	}

	for _, b := range report {
		log := c.logger.With("label", b.Label).With("address", b.Address.Hex())
		if b.Err != nil {
			log.With("err", b.Err.Error()).Warn("balance query failed")
			continue
		}
		log.With("wei", b.Wei.String()).Debug("balance checked")
	}

	return report
}

func (c *Checker) ethBalance(ctx context.Context, label string, address common.Address) Balance {
	b := Balance{Label: label, Address: address}

	b.Wei, b.Err = c.reader.BalanceAt(ctx, address, nil)
	if b.Err != nil {
		b.Err = fmt.Errorf("failed to get balance: %w", b.Err)
	}

	return b
}

// hubDeposit reads the paymaster's deposit through the hub's
// balanceOf(address).
func (c *Checker) hubDeposit(ctx context.Context, hub, paymaster common.Address) Balance {
	b := Balance{Label: "paymaster deposit", Address: paymaster}

	methodID := crypto.Keccak256([]byte("balanceOf(address)"))[:4]
	data := append(methodID, common.LeftPadBytes(paymaster.Bytes(), 32)...)

	result, err := c.reader.CallContract(ctx, ethereum.CallMsg{To: &hub, Data: data}, nil)
	if err != nil {
		b.Err = fmt.Errorf("failed to call relay hub: %w", err)
		return b
	}

	b.Wei = new(big.Int).SetBytes(result)
	return b
}

// Format renders a balance for display.
func Format(b Balance) string {
	if b.Err != nil {
		return fmt.Sprintf("%s (%s): balance query failed (%v)", b.Label, b.Address.Hex(), b.Err)
	}

	eth := new(big.Float).Quo(
		new(big.Float).SetInt(b.Wei),
		new(big.Float).SetInt(big.NewInt(1e18)),
	)

	return fmt.Sprintf("%s (%s): balance %.4f ETH (%s wei)", b.Label, b.Address.Hex(), eth, b.Wei.String())
}
