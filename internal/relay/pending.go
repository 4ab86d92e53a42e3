package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const defaultReceiptInterval = time.Second

type receiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// PendingTransaction is a relayed transaction that may not be mined yet.
type PendingTransaction struct {
	Hash        common.Hash
	Transaction *types.Transaction

	reader   receiptReader
	interval time.Duration
}

// Wait polls for the receipt until it is available or ctx is done. A
// reverted transaction is returned together with an error.
func (p *PendingTransaction) Wait(ctx context.Context) (*types.Receipt, error) {
	interval := p.interval
	if interval <= 0 {
		interval = defaultReceiptInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := p.reader.TransactionReceipt(ctx, p.Hash)
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("transaction %s reverted in block %s", p.Hash.Hex(), receipt.BlockNumber)
			}
			return receipt, nil
		case !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("failed to get receipt for %s: %w", p.Hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
