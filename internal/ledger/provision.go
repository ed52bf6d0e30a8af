package ledger

import (
	"context"
	"log/slog"

	"github.com/MartaJerkovic/devotion/internal/models"

	"gorm.io/gorm"
)

// DefaultCategory describes one seeded category.
type DefaultCategory struct {
	Name        string
	Description string
	Color       string
	Icon        string
}

// DefaultCategories is the fixed set seeded onto every new spending
// account.
var DefaultCategories = []DefaultCategory{
	{Name: "Groceries", Description: "Food and household items", Color: "#FF5733", Icon: "shopping-cart"},
	{Name: "Rent", Description: "Monthly housing expenses", Color: "#33FF57", Icon: "home"},
	{Name: "Utilities", Description: "Electricity, water, gas bills", Color: "#3357FF", Icon: "bolt"},
	{Name: "Transportation", Description: "Public transport and fuel costs", Color: "#FF33A1", Icon: "car"},
	{Name: "Entertainment", Description: "Movies, games, and leisure activities", Color: "#A133FF", Icon: "gamepad"},
	{Name: "Health & Fitness", Description: "Gym memberships and health expenses", Color: "#33FFF5", Icon: "dumbbell"},
}

// Provisioner seeds default categories for newly created spending
// accounts. Callers treat failures as non-fatal: a provisioning error
// is logged and the triggering account creation stands.
type Provisioner struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewProvisioner(db *gorm.DB, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{db: db, logger: logger}
}

// SeedDefaults creates the default categories for the given account in
// one transaction. All six are inserted or none.
func (p *Provisioner) SeedDefaults(ctx context.Context, ownerID, accountID string) error {
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dc := range DefaultCategories {
			category := models.Category{
				UserID:      ownerID,
				AccountID:   accountID,
				Name:        dc.Name,
				Description: dc.Description,
				Color:       dc.Color,
				Icon:        dc.Icon,
				IsActive:    true,
			}
			if err := tx.Create(&category).Error; err != nil {
				return persistencef(err, "create default category %q", dc.Name)
			}
		}
		return nil
	})
	if err != nil {
		return asLedgerError(err)
	}

	p.logger.InfoContext(ctx, "default categories created",
		"user_id", ownerID,
		"account_id", accountID,
		"count", len(DefaultCategories),
	)
	return nil
}
