package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Expense is a single debit against an account. Amount is strictly
// positive; the category reference is optional and cleared when the
// category is removed.
type Expense struct {
	ID          string          `gorm:"primaryKey;size:36"`
	AccountID   string          `gorm:"size:36;index;not null"`
	CategoryID  *string         `gorm:"size:36;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Name        string          `gorm:"size:50;not null"`
	Description string          `gorm:"size:255"`
	ExpenseDate time.Time       `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Account  Account   `gorm:"constraint:OnDelete:CASCADE"`
	Category *Category `gorm:"constraint:OnDelete:SET NULL"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
