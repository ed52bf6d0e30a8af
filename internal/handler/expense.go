package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MartaJerkovic/devotion/internal/ledger"
	"github.com/MartaJerkovic/devotion/internal/middleware"
	"github.com/MartaJerkovic/devotion/internal/models"
	"github.com/MartaJerkovic/devotion/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseHandler fronts the ledger mutator and query engine. All
// balance-affecting work happens inside the ledger package; this layer
// only binds requests and maps ledger errors onto the API envelope.
type ExpenseHandler struct {
	DB       *gorm.DB
	Mutator  *ledger.Mutator
	Query    *ledger.QueryEngine
	PageSize int
}

func NewExpenseHandler(db *gorm.DB, mutator *ledger.Mutator, query *ledger.QueryEngine, pageSize int) *ExpenseHandler {
	if pageSize < 1 {
		pageSize = 10
	}
	return &ExpenseHandler{DB: db, Mutator: mutator, Query: query, PageSize: pageSize}
}

type expenseResp struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	CategoryID  *string         `json:"category_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ExpenseDate string          `json:"expense_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toExpenseResp(e *models.Expense) expenseResp {
	return expenseResp{
		ID:          e.ID,
		AccountID:   e.AccountID,
		CategoryID:  e.CategoryID,
		Amount:      e.Amount,
		Name:        e.Name,
		Description: e.Description,
		ExpenseDate: e.ExpenseDate.Format("2006-01-02"),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// respondLedgerError maps ledger error kinds onto HTTP + business codes.
// Persistence details never reach the client.
func respondLedgerError(c *gin.Context, err error) {
	switch ledger.KindOf(err) {
	case ledger.KindNotFound:
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case ledger.KindValidation:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
	}
}

type createExpenseReq struct {
	AccountID   string          `json:"account_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Name        string          `json:"name" binding:"required,max=50"`
	Description string          `json:"description" binding:"max=255"`
	ExpenseDate string          `json:"expense_date"`
	CategoryID  *string         `json:"category_id"`
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var req createExpenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid expense payload")
		return
	}

	if err := util.ValidateAmount(req.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	// expense date defaults to today
	date := time.Now().Truncate(24 * time.Hour)
	if req.ExpenseDate != "" {
		parsed, err := util.ParseDate(req.ExpenseDate)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "expense_date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	expense, balance, err := h.Mutator.CreateExpense(c.Request.Context(), user.ID, ledger.CreateExpenseInput{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Name:        req.Name,
		Description: req.Description,
		Date:        date,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	util.Created(c, util.Response{
		"expense": toExpenseResp(expense),
		"balance": balance,
	})
}

func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	accountID := c.Query("account_id")
	if accountID == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "account_id is required")
		return
	}

	// listing is always scoped to one owned account
	var account models.Account
	if err := h.DB.Where("id = ? AND user_id = ?", accountID, user.ID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "account not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to retrieve account")
		}
		return
	}

	filter := ledger.ExpenseFilter{AccountID: account.ID}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := c.Query("name"); v != "" {
		filter.Name = &v
	}
	if v := c.Query("start_date"); v != "" {
		t, err := util.ParseDate(v)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := util.ParseDate(v)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end_date must be YYYY-MM-DD")
			return
		}
		filter.EndDate = &t
	}
	if v := c.Query("min_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "min_amount must be a decimal number")
			return
		}
		filter.MinAmount = &d
	}
	if v := c.Query("max_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "max_amount must be a decimal number")
			return
		}
		filter.MaxAmount = &d
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, err := strconv.Atoi(c.Query("per_page"))
	if err != nil || perPage < 1 {
		perPage = h.PageSize
	}
	sortOrder := c.DefaultQuery("sort_order", ledger.SortDesc)

	result, err := h.Query.ListExpenses(c.Request.Context(), ledger.ExpenseQuery{
		Filter:    filter,
		Page:      page,
		PerPage:   perPage,
		SortOrder: sortOrder,
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	items := make([]expenseResp, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toExpenseResp(&result.Items[i]))
	}

	util.Success(c, util.Response{
		"items":    items,
		"total":    result.Total,
		"filtered": result.Filtered,
	})
}

func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var expense models.Expense
	err := h.DB.
		Joins("JOIN accounts ON accounts.id = expenses.account_id").
		Where("expenses.id = ? AND accounts.user_id = ?", c.Param("id"), user.ID).
		First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "expense not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to retrieve expense")
		}
		return
	}

	util.Success(c, util.Response{
		"expense": toExpenseResp(&expense),
	})
}

type updateExpenseReq struct {
	AccountID   *string          `json:"account_id"`
	CategoryID  *string          `json:"category_id"`
	Amount      *decimal.Decimal `json:"amount"`
	Name        *string          `json:"name" binding:"omitempty,max=50"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
	ExpenseDate *string          `json:"expense_date"`
}

func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var req updateExpenseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid expense payload")
		return
	}

	if req.Amount != nil {
		if err := util.ValidateAmount(*req.Amount); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
	}

	patch := ledger.ExpensePatch{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Name:        req.Name,
		Description: req.Description,
	}
	if req.ExpenseDate != nil {
		parsed, err := util.ParseDate(*req.ExpenseDate)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "expense_date must be YYYY-MM-DD")
			return
		}
		patch.Date = &parsed
	}

	expense, balance, err := h.Mutator.UpdateExpense(c.Request.Context(), user.ID, c.Param("id"), patch)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	util.Success(c, util.Response{
		"expense": toExpenseResp(expense),
		"balance": balance,
	})
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	if err := h.Mutator.DeleteExpense(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		respondLedgerError(c, err)
		return
	}

	util.Success(c, util.Response{
		"message": "expense deleted successfully",
	})
}
