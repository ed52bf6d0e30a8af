package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/MartaJerkovic/devotion/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sort orders for expense listings.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ExpenseFilter narrows a listing. AccountID is mandatory; every other
// field is an independent AND predicate applied when non-nil. Date and
// amount bounds are inclusive; name matching is exact, not substring.
type ExpenseFilter struct {
	AccountID  string
	CategoryID *string
	Name       *string
	StartDate  *time.Time
	EndDate    *time.Time
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
}

// ExpenseQuery is one page request over an account's expenses.
type ExpenseQuery struct {
	Filter    ExpenseFilter
	Page      int
	PerPage   int
	SortOrder string
}

// ExpensePage is the result of a listing: one page of rows, the count of
// all rows matching the filters, and the count actually returned.
type ExpensePage struct {
	Items    []models.Expense
	Total    int64
	Filtered int
}

// QueryEngine filters, sorts and paginates expenses scoped to one
// account without materializing the full result set.
type QueryEngine struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewQueryEngine(db *gorm.DB, logger *slog.Logger) *QueryEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryEngine{db: db, logger: logger}
}

// ListExpenses returns the requested page. An out-of-range page yields
// an empty item list with a correct total. Count and fetch run as two
// sequential reads.
func (q *QueryEngine) ListExpenses(ctx context.Context, query ExpenseQuery) (*ExpensePage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	perPage := query.PerPage
	if perPage < 1 {
		perPage = 1
	}
	offset := (page - 1) * perPage

	orderBy := "expense_date DESC, id DESC"
	if query.SortOrder == SortAsc {
		orderBy = "expense_date ASC, id ASC"
	}

	base := q.db.WithContext(ctx).Model(&models.Expense{}).
		Where("account_id = ?", query.Filter.AccountID)
	if query.Filter.CategoryID != nil {
		base = base.Where("category_id = ?", *query.Filter.CategoryID)
	}
	if query.Filter.Name != nil {
		base = base.Where("name = ?", *query.Filter.Name)
	}
	if query.Filter.StartDate != nil {
		base = base.Where("expense_date >= ?", *query.Filter.StartDate)
	}
	if query.Filter.EndDate != nil {
		base = base.Where("expense_date <= ?", *query.Filter.EndDate)
	}
	if query.Filter.MinAmount != nil {
		base = base.Where("amount >= ?", *query.Filter.MinAmount)
	}
	if query.Filter.MaxAmount != nil {
		base = base.Where("amount <= ?", *query.Filter.MaxAmount)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, persistencef(err, "count expenses")
	}

	items := make([]models.Expense, 0, perPage)
	if err := base.Session(&gorm.Session{}).
		Order(orderBy).
		Limit(perPage).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, persistencef(err, "list expenses")
	}

	q.logger.DebugContext(ctx, "expenses listed",
		"account_id", query.Filter.AccountID,
		"page", page,
		"total", total,
		"filtered", len(items),
	)
	return &ExpensePage{Items: items, Total: total, Filtered: len(items)}, nil
}
