package ledger

import (
	"context"

	"github.com/MartaJerkovic/devotion/internal/models"
)

// BalanceObserver is notified after a committed mutation pushed an
// account's balance from non-negative to below zero. Observers run
// outside the transaction and cannot affect its outcome.
type BalanceObserver interface {
	BalanceWentNegative(ctx context.Context, account models.Account)
}

// ObserverFunc adapts a plain function to BalanceObserver.
type ObserverFunc func(ctx context.Context, account models.Account)

func (f ObserverFunc) BalanceWentNegative(ctx context.Context, account models.Account) {
	f(ctx, account)
}
