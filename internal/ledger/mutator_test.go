package ledger

import (
	"context"
	"testing"

	"github.com/MartaJerkovic/devotion/internal/models"

	"github.com/shopspring/decimal"
)

func TestCreateExpenseDebitsAccount(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	account := seedAccount(t, db, user.ID, "2000.00")
	m := NewMutator(db, testLogger(), nil)

	expense, balance, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("100.00"),
		Name:      "Groceries",
		Date:      mustDate(t, "2024-03-01"),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	if !balance.Equal(decimal.RequireFromString("1900.00")) {
		t.Errorf("returned balance = %s, want 1900.00", balance)
	}
	assertBalance(t, db, account.ID, "1900.00")

	var stored models.Expense
	if err := db.Where("id = ?", expense.ID).First(&stored).Error; err != nil {
		t.Fatalf("reload expense: %v", err)
	}
	if stored.AccountID != account.ID {
		t.Errorf("expense account = %s, want %s", stored.AccountID, account.ID)
	}
	if !stored.Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("expense amount = %s, want 100.00", stored.Amount)
	}
}

func TestCreateExpenseRejectsNonPositiveAmount(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	account := seedAccount(t, db, user.ID, "2000.00")
	m := NewMutator(db, testLogger(), nil)

	for _, amount := range []string{"0", "-0.01", "-100"} {
		_, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
			AccountID: account.ID,
			Amount:    decimal.RequireFromString(amount),
			Name:      "Bad",
			Date:      mustDate(t, "2024-03-01"),
		})
		if !IsValidation(err) {
			t.Errorf("CreateExpense(amount=%s) error = %v, want validation error", amount, err)
		}
	}

	var count int64
	if err := db.Model(&models.Expense{}).Count(&count).Error; err != nil {
		t.Fatalf("count expenses: %v", err)
	}
	if count != 0 {
		t.Errorf("expense count = %d, want 0", count)
	}
	assertBalance(t, db, account.ID, "2000.00")
}

func TestCreateExpenseAccountNotOwned(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db)
	other := seedUser(t, db)
	account := seedAccount(t, db, owner.ID, "2000.00")
	m := NewMutator(db, testLogger(), nil)

	_, _, err := m.CreateExpense(context.Background(), other.ID, CreateExpenseInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("10.00"),
		Name:      "Sneaky",
		Date:      mustDate(t, "2024-03-01"),
	})
	if !IsNotFound(err) {
		t.Fatalf("CreateExpense() error = %v, want not-found error", err)
	}
	assertBalance(t, db, account.ID, "2000.00")
}

func TestCreateThenDeleteRestoresBalance(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	account := seedAccount(t, db, user.ID, "2000.00")
	m := NewMutator(db, testLogger(), nil)

	expense, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("125.50"),
		Name:      "Dinner",
		Date:      mustDate(t, "2024-03-02"),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	assertBalance(t, db, account.ID, "1874.50")

	if err := m.DeleteExpense(context.Background(), user.ID, expense.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	assertBalance(t, db, account.ID, "2000.00")

	var count int64
	if err := db.Model(&models.Expense{}).Where("id = ?", expense.ID).Count(&count).Error; err != nil {
		t.Fatalf("count expenses: %v", err)
	}
	if count != 0 {
		t.Errorf("expense still present after delete")
	}
}

func TestUpdateExpenseAmountAppliesDelta(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	account := seedAccount(t, db, user.ID, "2000.00")
	m := NewMutator(db, testLogger(), nil)

	expense, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("100.00"),
		Name:      "Groceries",
		Date:      mustDate(t, "2024-03-01"),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	newAmount := decimal.RequireFromString("150.00")
	updated, balance, err := m.UpdateExpense(context.Background(), user.ID, expense.ID, ExpensePatch{
		Amount: &newAmount,
	})
	if err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}

	if !balance.Equal(decimal.RequireFromString("1850.00")) {
		t.Errorf("returned balance = %s, want 1850.00", balance)
	}
	assertBalance(t, db, account.ID, "1850.00")
	if !updated.Amount.Equal(newAmount) {
		t.Errorf("expense amount = %s, want 150.00", updated.Amount)
	}
}

func TestUpdateExpenseFieldsOnlyKeepsBalance(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	account := seedAccount(t, db, user.ID, "2000.00")
	m := NewMutator(db, testLogger(), nil)

	expense, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("100.00"),
		Name:      "Groceries",
		Date:      mustDate(t, "2024-03-01"),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	name := "Weekly shop"
	description := "market run"
	date := mustDate(t, "2024-03-05")
	updated, balance, err := m.UpdateExpense(context.Background(), user.ID, expense.ID, ExpensePatch{
		Name:        &name,
		Description: &description,
		Date:        &date,
	})
	if err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}

	if !balance.Equal(decimal.RequireFromString("1900.00")) {
		t.Errorf("returned balance = %s, want 1900.00", balance)
	}
	assertBalance(t, db, account.ID, "1900.00")
	if updated.Name != name || updated.Description != description {
		t.Errorf("fields not applied: name=%q description=%q", updated.Name, updated.Description)
	}
	if !updated.ExpenseDate.Equal(date) {
		t.Errorf("expense date = %s, want %s", updated.ExpenseDate, date)
	}
}

func TestUpdateExpenseMovesBetweenAccounts(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	src := seedAccount(t, db, user.ID, "500.00")
	dst := seedAccount(t, db, user.ID, "300.00")
	m := NewMutator(db, testLogger(), nil)

	expense, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: src.ID,
		Amount:    decimal.RequireFromString("80.00"),
		Name:      "Fuel",
		Date:      mustDate(t, "2024-03-01"),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	assertBalance(t, db, src.ID, "420.00")

	updated, balance, err := m.UpdateExpense(context.Background(), user.ID, expense.ID, ExpensePatch{
		AccountID: &dst.ID,
	})
	if err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}

	// amount credited back to the source, debited from the target
	assertBalance(t, db, src.ID, "500.00")
	assertBalance(t, db, dst.ID, "220.00")
	if !balance.Equal(decimal.RequireFromString("220.00")) {
		t.Errorf("returned balance = %s, want 220.00", balance)
	}
	if updated.AccountID != dst.ID {
		t.Errorf("expense account = %s, want %s", updated.AccountID, dst.ID)
	}
}

func TestUpdateExpenseMoveWithAmountChange(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	src := seedAccount(t, db, user.ID, "500.00")
	dst := seedAccount(t, db, user.ID, "300.00")
	m := NewMutator(db, testLogger(), nil)

	expense, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: src.ID,
		Amount:    decimal.RequireFromString("80.00"),
		Name:      "Fuel",
		Date:      mustDate(t, "2024-03-01"),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	newAmount := decimal.RequireFromString("100.00")
	_, balance, err := m.UpdateExpense(context.Background(), user.ID, expense.ID, ExpensePatch{
		AccountID: &dst.ID,
		Amount:    &newAmount,
	})
	if err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}

	assertBalance(t, db, src.ID, "500.00")
	assertBalance(t, db, dst.ID, "200.00")
	if !balance.Equal(decimal.RequireFromString("200.00")) {
		t.Errorf("returned balance = %s, want 200.00", balance)
	}
}

func TestUpdateExpenseForeignTargetRollsBack(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	other := seedUser(t, db)
	src := seedAccount(t, db, user.ID, "500.00")
	foreign := seedAccount(t, db, other.ID, "300.00")
	m := NewMutator(db, testLogger(), nil)

	expense, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: src.ID,
		Amount:    decimal.RequireFromString("80.00"),
		Name:      "Fuel",
		Date:      mustDate(t, "2024-03-01"),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	newAmount := decimal.RequireFromString("90.00")
	_, _, err = m.UpdateExpense(context.Background(), user.ID, expense.ID, ExpensePatch{
		AccountID: &foreign.ID,
		Amount:    &newAmount,
	})
	if !IsNotFound(err) {
		t.Fatalf("UpdateExpense() error = %v, want not-found error", err)
	}

	// nothing moved: source balance, target balance and the expense row
	// are all exactly as before the call
	assertBalance(t, db, src.ID, "420.00")
	assertBalance(t, db, foreign.ID, "300.00")

	var stored models.Expense
	if err := db.Where("id = ?", expense.ID).First(&stored).Error; err != nil {
		t.Fatalf("reload expense: %v", err)
	}
	if stored.AccountID != src.ID {
		t.Errorf("expense account = %s, want %s", stored.AccountID, src.ID)
	}
	if !stored.Amount.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("expense amount = %s, want 80.00", stored.Amount)
	}
}

func TestUpdateExpenseNotOwned(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	other := seedUser(t, db)
	account := seedAccount(t, db, user.ID, "500.00")
	m := NewMutator(db, testLogger(), nil)

	expense, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("10.00"),
		Name:      "Coffee",
		Date:      mustDate(t, "2024-03-01"),
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	name := "Hijack"
	if _, _, err := m.UpdateExpense(context.Background(), other.ID, expense.ID, ExpensePatch{Name: &name}); !IsNotFound(err) {
		t.Errorf("UpdateExpense() by non-owner error = %v, want not-found error", err)
	}
	if err := m.DeleteExpense(context.Background(), other.ID, expense.ID); !IsNotFound(err) {
		t.Errorf("DeleteExpense() by non-owner error = %v, want not-found error", err)
	}
	assertBalance(t, db, account.ID, "490.00")
}

func TestDeleteExpenseNotFound(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	m := NewMutator(db, testLogger(), nil)

	if err := m.DeleteExpense(context.Background(), user.ID, "no-such-expense"); !IsNotFound(err) {
		t.Errorf("DeleteExpense() error = %v, want not-found error", err)
	}
}

func TestBalanceInvariantAfterMixedOperations(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	a := seedAccount(t, db, user.ID, "1000.00")
	b := seedAccount(t, db, user.ID, "750.00")
	m := NewMutator(db, testLogger(), nil)

	create := func(accountID, amount string) *models.Expense {
		t.Helper()
		e, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
			AccountID: accountID,
			Amount:    decimal.RequireFromString(amount),
			Name:      "op",
			Date:      mustDate(t, "2024-03-01"),
		})
		if err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
		return e
	}

	e1 := create(a.ID, "100.00")
	e2 := create(a.ID, "40.25")
	e3 := create(b.ID, "300.00")

	newAmount := decimal.RequireFromString("75.75")
	if _, _, err := m.UpdateExpense(context.Background(), user.ID, e2.ID, ExpensePatch{Amount: &newAmount}); err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}
	if _, _, err := m.UpdateExpense(context.Background(), user.ID, e1.ID, ExpensePatch{AccountID: &b.ID}); err != nil {
		t.Fatalf("UpdateExpense() move error = %v", err)
	}
	if err := m.DeleteExpense(context.Background(), user.ID, e3.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}

	// balance == initial balance minus the sum of live expenses
	for _, tc := range []struct {
		account *models.Account
		initial string
	}{
		{a, "1000.00"},
		{b, "750.00"},
	} {
		var expenses []models.Expense
		if err := db.Where("account_id = ?", tc.account.ID).Find(&expenses).Error; err != nil {
			t.Fatalf("list expenses: %v", err)
		}
		sum := decimal.Zero
		for _, e := range expenses {
			sum = sum.Add(e.Amount)
		}
		want := decimal.RequireFromString(tc.initial).Sub(sum)
		got := accountBalance(t, db, tc.account.ID)
		if !got.Equal(want) {
			t.Errorf("account %s balance = %s, want %s (initial %s - expenses %s)",
				tc.account.ID, got, want, tc.initial, sum)
		}
	}
}

func TestNegativeBalanceNotifiesObserverOnce(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	account := seedAccount(t, db, user.ID, "50.00")

	var fired []decimal.Decimal
	observer := ObserverFunc(func(_ context.Context, acct models.Account) {
		fired = append(fired, acct.Balance)
	})
	m := NewMutator(db, testLogger(), observer)

	// 50.00 -> -30.00 crosses zero
	if _, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("80.00"),
		Name:      "Rent",
		Date:      mustDate(t, "2024-03-01"),
	}); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if len(fired) != 1 || !fired[0].Equal(decimal.RequireFromString("-30.00")) {
		t.Fatalf("observer calls = %v, want one call at -30.00", fired)
	}

	// already negative, no second notification
	if _, _, err := m.CreateExpense(context.Background(), user.ID, CreateExpenseInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("10.00"),
		Name:      "Snacks",
		Date:      mustDate(t, "2024-03-02"),
	}); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	if len(fired) != 1 {
		t.Errorf("observer calls = %d, want 1", len(fired))
	}
}

func TestCreateExpenseRolledBackOnCancelledContext(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	account := seedAccount(t, db, user.ID, "2000.00")
	m := NewMutator(db, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.CreateExpense(ctx, user.ID, CreateExpenseInput{
		AccountID: account.ID,
		Amount:    decimal.RequireFromString("100.00"),
		Name:      "Late",
		Date:      mustDate(t, "2024-03-01"),
	})
	if err == nil {
		t.Fatal("CreateExpense() with cancelled context succeeded, want error")
	}
	if IsNotFound(err) || IsValidation(err) {
		t.Fatalf("CreateExpense() error = %v, want persistence failure", err)
	}

	var count int64
	if err := db.Model(&models.Expense{}).Count(&count).Error; err != nil {
		t.Fatalf("count expenses: %v", err)
	}
	if count != 0 {
		t.Errorf("expense count = %d, want 0", count)
	}
	assertBalance(t, db, account.ID, "2000.00")
}
