package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MartaJerkovic/devotion/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// errBalanceConflict signals a lost compare-and-write race on an account
// balance; the enclosing operation retries with a fresh read.
var errBalanceConflict = errors.New("account balance changed concurrently")

const balanceRetries = 3

// Mutator keeps the account-balance invariant true across the expense
// lifecycle. It is the sole writer of expense amount/account_id and of
// account balances. Every operation runs in one transaction: the expense
// row and the balance(s) of the touched account(s) commit together or
// not at all.
type Mutator struct {
	db       *gorm.DB
	logger   *slog.Logger
	observer BalanceObserver
}

// NewMutator builds a Mutator. observer may be nil.
func NewMutator(db *gorm.DB, logger *slog.Logger, observer BalanceObserver) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{db: db, logger: logger, observer: observer}
}

// CreateExpenseInput carries the fields of a new expense.
type CreateExpenseInput struct {
	AccountID   string
	Amount      decimal.Decimal
	Name        string
	Description string
	Date        time.Time
	CategoryID  *string
}

// ExpensePatch carries the optional fields of an expense update. A nil
// field is left untouched. CategoryID pointing at an empty string clears
// the category reference.
type ExpensePatch struct {
	AccountID   *string
	CategoryID  *string
	Amount      *decimal.Decimal
	Name        *string
	Description *string
	Date        *time.Time
}

// CreateExpense inserts an expense and debits its account in one
// transaction. Returns the created expense and the post-write balance.
func (m *Mutator) CreateExpense(ctx context.Context, ownerID string, in CreateExpenseInput) (*models.Expense, decimal.Decimal, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, Invalidf("amount must be positive, got %s", in.Amount)
	}

	var (
		expense models.Expense
		account models.Account
		prevBal decimal.Decimal
	)
	err := m.retry(func() error {
		return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			acct, err := loadOwnedAccount(tx, ownerID, in.AccountID)
			if err != nil {
				return err
			}

			expense = models.Expense{
				AccountID:   acct.ID,
				CategoryID:  in.CategoryID,
				Amount:      in.Amount,
				Name:        in.Name,
				Description: in.Description,
				ExpenseDate: in.Date,
			}
			if err := tx.Create(&expense).Error; err != nil {
				return persistencef(err, "create expense")
			}

			prevBal = acct.Balance
			if err := writeBalance(tx, acct, acct.Balance.Sub(in.Amount)); err != nil {
				return err
			}
			account = *acct
			return nil
		})
	})
	if err != nil {
		return nil, decimal.Zero, asLedgerError(err)
	}

	m.logger.InfoContext(ctx, "expense created",
		"expense_id", expense.ID,
		"account_id", account.ID,
		"amount", in.Amount.String(),
		"balance", account.Balance.String(),
	)
	m.notifyCrossing(ctx, prevBal, account)
	return &expense, account.Balance, nil
}

// UpdateExpense applies a patch to an expense and adjusts the balance of
// the account(s) involved. Three mutually exclusive cases:
//
//  1. same account, same amount: field-only update, idempotent balance write;
//  2. same account, amount old -> new: balance -= (new - old);
//  3. account A -> B: A += old, B -= new (new defaults to old), both
//     accounts adjusted within the same transaction.
//
// Returns the updated expense and the post-write balance of the account
// the expense now resides in.
func (m *Mutator) UpdateExpense(ctx context.Context, ownerID, expenseID string, patch ExpensePatch) (*models.Expense, decimal.Decimal, error) {
	if patch.Amount != nil && patch.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, Invalidf("amount must be positive, got %s", patch.Amount)
	}

	var (
		expense models.Expense
		final   models.Account
		prevBal decimal.Decimal
	)
	err := m.retry(func() error {
		return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ?", expenseID).First(&expense).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NotFoundf("expense %s not found or access denied", expenseID)
				}
				return persistencef(err, "load expense %s", expenseID)
			}

			src, err := loadOwnedAccount(tx, ownerID, expense.AccountID)
			if err != nil {
				if IsNotFound(err) {
					// the account exists (FK), so this is an ownership miss
					return NotFoundf("expense %s not found or access denied", expenseID)
				}
				return err
			}

			oldAmount := expense.Amount
			newAmount := oldAmount
			if patch.Amount != nil {
				newAmount = *patch.Amount
			}

			if patch.AccountID != nil && *patch.AccountID != expense.AccountID {
				dst, err := loadOwnedAccount(tx, ownerID, *patch.AccountID)
				if err != nil {
					return err
				}
				// credit back the source, debit the target
				if err := writeBalance(tx, src, src.Balance.Add(oldAmount)); err != nil {
					return err
				}
				prevBal = dst.Balance
				if err := writeBalance(tx, dst, dst.Balance.Sub(newAmount)); err != nil {
					return err
				}
				expense.AccountID = dst.ID
				final = *dst
			} else {
				delta := newAmount.Sub(oldAmount)
				prevBal = src.Balance
				// a zero delta still writes, keeping one code path
				if err := writeBalance(tx, src, src.Balance.Sub(delta)); err != nil {
					return err
				}
				final = *src
			}

			expense.Amount = newAmount
			if patch.Name != nil {
				expense.Name = *patch.Name
			}
			if patch.Description != nil {
				expense.Description = *patch.Description
			}
			if patch.Date != nil {
				expense.ExpenseDate = *patch.Date
			}
			if patch.CategoryID != nil {
				if *patch.CategoryID == "" {
					expense.CategoryID = nil
				} else {
					cid := *patch.CategoryID
					expense.CategoryID = &cid
				}
			}
			if err := tx.Save(&expense).Error; err != nil {
				return persistencef(err, "save expense %s", expenseID)
			}
			return nil
		})
	})
	if err != nil {
		return nil, decimal.Zero, asLedgerError(err)
	}

	m.logger.InfoContext(ctx, "expense updated",
		"expense_id", expense.ID,
		"account_id", final.ID,
		"amount", expense.Amount.String(),
		"balance", final.Balance.String(),
	)
	m.notifyCrossing(ctx, prevBal, final)
	return &expense, final.Balance, nil
}

// DeleteExpense credits the expense amount back to its account and
// removes the row, atomically.
func (m *Mutator) DeleteExpense(ctx context.Context, ownerID, expenseID string) error {
	var expense models.Expense
	err := m.retry(func() error {
		return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ?", expenseID).First(&expense).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NotFoundf("expense %s not found", expenseID)
				}
				return persistencef(err, "load expense %s", expenseID)
			}

			acct, err := loadOwnedAccount(tx, ownerID, expense.AccountID)
			if err != nil {
				if IsNotFound(err) {
					return NotFoundf("expense %s not found or access denied", expenseID)
				}
				return err
			}

			if err := writeBalance(tx, acct, acct.Balance.Add(expense.Amount)); err != nil {
				return err
			}
			if err := tx.Delete(&models.Expense{}, "id = ?", expense.ID).Error; err != nil {
				return persistencef(err, "delete expense %s", expenseID)
			}
			return nil
		})
	})
	if err != nil {
		return asLedgerError(err)
	}

	m.logger.InfoContext(ctx, "expense deleted",
		"expense_id", expense.ID,
		"account_id", expense.AccountID,
		"amount", expense.Amount.String(),
	)
	return nil
}

// retry re-runs fn when a compare-and-write balance guard lost its race.
func (m *Mutator) retry(fn func() error) error {
	var err error
	for attempt := 0; attempt < balanceRetries; attempt++ {
		err = fn()
		if !errors.Is(err, errBalanceConflict) {
			return err
		}
	}
	return err
}

func (m *Mutator) notifyCrossing(ctx context.Context, prev decimal.Decimal, account models.Account) {
	if m.observer == nil {
		return
	}
	if prev.Sign() >= 0 && account.Balance.Sign() < 0 {
		m.observer.BalanceWentNegative(ctx, account)
	}
}

// loadOwnedAccount reads an account scoped to its owner inside the
// current transaction.
func loadOwnedAccount(tx *gorm.DB, ownerID, accountID string) (*models.Account, error) {
	var acct models.Account
	err := tx.Where("id = ? AND user_id = ?", accountID, ownerID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundf("account %s not found or doesn't belong to user", accountID)
	}
	if err != nil {
		return nil, persistencef(err, "load account %s", accountID)
	}
	return &acct, nil
}

// writeBalance applies a compare-and-write update against the balance
// read earlier in the same transaction. Zero rows affected means another
// writer got there first; the caller retries the whole operation.
func writeBalance(tx *gorm.DB, acct *models.Account, newBalance decimal.Decimal) error {
	res := tx.Model(&models.Account{}).
		Where("id = ? AND balance = ?", acct.ID, acct.Balance).
		Update("balance", newBalance)
	if res.Error != nil {
		return persistencef(res.Error, "update balance of account %s", acct.ID)
	}
	if res.RowsAffected == 0 {
		return errBalanceConflict
	}
	acct.Balance = newBalance
	return nil
}

// asLedgerError keeps typed ledger errors as-is and wraps anything else
// (rollbacks, cancelled contexts, commit failures) as persistence.
func asLedgerError(err error) error {
	if KindOf(err) != 0 {
		return err
	}
	return persistencef(err, "ledger transaction failed")
}
