package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountType enumerates the supported kinds of accounts.
type AccountType string

const (
	AccountTypeSpending   AccountType = "spending"
	AccountTypeSaving     AccountType = "saving"
	AccountTypeInvestment AccountType = "investment"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeSpending, AccountTypeSaving, AccountTypeInvestment:
		return true
	}
	return false
}

// Account holds a user's money. Balance is only ever mutated by the
// ledger package, in lockstep with the expenses referencing the account.
type Account struct {
	ID          string          `gorm:"primaryKey;size:36"`
	UserID      string          `gorm:"size:36;index;not null"`
	Type        AccountType     `gorm:"size:20;not null;default:spending"`
	Name        string          `gorm:"size:50;not null"`
	Description string          `gorm:"size:255"`
	Balance     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency    string          `gorm:"size:3;not null;default:EUR"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
