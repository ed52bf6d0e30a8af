package ledger

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MartaJerkovic/devotion/internal/database"
	"github.com/MartaJerkovic/devotion/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a uniquely named in-memory SQLite database so tests
// never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := models.User{
		Username:     "tester",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "irrelevant",
		Role:         "user",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedAccount(t *testing.T, db *gorm.DB, userID, balance string) *models.Account {
	t.Helper()

	account := models.Account{
		UserID:   userID,
		Type:     models.AccountTypeSpending,
		Name:     "Checking",
		Balance:  decimal.RequireFromString(balance),
		Currency: "EUR",
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return &account
}

func accountBalance(t *testing.T, db *gorm.DB, accountID string) decimal.Decimal {
	t.Helper()

	var account models.Account
	if err := db.Where("id = ?", accountID).First(&account).Error; err != nil {
		t.Fatalf("reload account %s: %v", accountID, err)
	}
	return account.Balance
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()

	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return d
}

func assertBalance(t *testing.T, db *gorm.DB, accountID, want string) {
	t.Helper()

	got := accountBalance(t, db, accountID)
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("account %s balance = %s, want %s", accountID, got, want)
	}
}
