package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category represents an expense category scoped to one account.
// Names are unique per user, case-insensitive.
type Category struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      string `gorm:"size:36;index;not null"`
	AccountID   string `gorm:"size:36;index;not null"`
	Name        string `gorm:"size:50;not null"`
	Description string `gorm:"size:255"`
	Color       string `gorm:"size:7;default:#63305D"`
	Icon        string `gorm:"size:50;default:tag"`
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User    User    `gorm:"constraint:OnDelete:CASCADE"`
	Account Account `gorm:"constraint:OnDelete:CASCADE"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
