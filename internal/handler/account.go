package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MartaJerkovic/devotion/internal/ledger"
	"github.com/MartaJerkovic/devotion/internal/middleware"
	"github.com/MartaJerkovic/devotion/internal/models"
	"github.com/MartaJerkovic/devotion/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountHandler serves account CRUD. Creation of a spending account
// triggers default-category provisioning; a provisioning failure is
// logged and swallowed so the account creation stands.
type AccountHandler struct {
	DB              *gorm.DB
	Provisioner     *ledger.Provisioner
	Logger          *slog.Logger
	DefaultBalance  decimal.Decimal
	DefaultCurrency string
}

func NewAccountHandler(db *gorm.DB, provisioner *ledger.Provisioner, logger *slog.Logger, defaultBalance, defaultCurrency string) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	balance, err := decimal.NewFromString(defaultBalance)
	if err != nil {
		balance = decimal.RequireFromString("2000.00")
	}
	if defaultCurrency == "" {
		defaultCurrency = "EUR"
	}
	return &AccountHandler{
		DB:              db,
		Provisioner:     provisioner,
		Logger:          logger,
		DefaultBalance:  balance,
		DefaultCurrency: defaultCurrency,
	}
}

type createAccountReq struct {
	Type        string           `json:"account_type" binding:"omitempty,oneof=spending saving investment"`
	Name        string           `json:"name" binding:"required,max=50"`
	Description string           `json:"description" binding:"max=255"`
	Balance     *decimal.Decimal `json:"balance"`
	Currency    string           `json:"currency"`
}

type accountResp struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Type        models.AccountType `json:"account_type"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Balance     decimal.Decimal    `json:"balance"`
	Currency    string             `json:"currency"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
}

func toAccountResp(a *models.Account) accountResp {
	return accountResp{
		ID:          a.ID,
		UserID:      a.UserID,
		Type:        a.Type,
		Name:        a.Name,
		Description: a.Description,
		Balance:     a.Balance,
		Currency:    a.Currency,
		CreatedAt:   a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   a.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var req createAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid account payload")
		return
	}

	accountType := models.AccountType(req.Type)
	if req.Type == "" {
		accountType = models.AccountTypeSpending
	}
	balance := h.DefaultBalance
	if req.Balance != nil {
		balance = *req.Balance
	}
	currency := req.Currency
	if currency == "" {
		currency = h.DefaultCurrency
	}
	if err := util.ValidateCurrency(currency); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	account := models.Account{
		UserID:      user.ID,
		Type:        accountType,
		Name:        req.Name,
		Description: req.Description,
		Balance:     balance,
		Currency:    currency,
	}
	if err := h.DB.Create(&account).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create account")
		return
	}

	// best effort: the account stands even when seeding fails
	if account.Type == models.AccountTypeSpending {
		if err := h.Provisioner.SeedDefaults(c.Request.Context(), user.ID, account.ID); err != nil {
			h.Logger.Warn("failed to create default categories",
				"user_id", user.ID,
				"account_id", account.ID,
				"error", err,
			)
		}
	}

	util.Created(c, util.Response{
		"account": toAccountResp(&account),
	})
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var accounts []models.Account
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to retrieve accounts")
		return
	}

	items := make([]accountResp, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountResp(&accounts[i]))
	}

	util.Success(c, util.Response{
		"accounts": items,
	})
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	account, ok := h.ownedAccount(c, user.ID)
	if !ok {
		return
	}

	util.Success(c, util.Response{
		"account": toAccountResp(account),
	})
}

type updateAccountReq struct {
	Name        *string          `json:"name" binding:"omitempty,max=50"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
	Balance     *decimal.Decimal `json:"balance"`
	Currency    *string          `json:"currency"`
}

// UpdateAccount patches the account's descriptive fields. An explicit
// balance value resets the starting balance; expense-driven balance
// changes go through the ledger mutator only.
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var req updateAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid account payload")
		return
	}

	account, ok := h.ownedAccount(c, user.ID)
	if !ok {
		return
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	if req.Balance != nil {
		account.Balance = *req.Balance
	}
	if req.Currency != nil {
		if err := util.ValidateCurrency(*req.Currency); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
			return
		}
		account.Currency = *req.Currency
	}

	if err := h.DB.Save(account).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update account")
		return
	}

	util.Success(c, util.Response{
		"account": toAccountResp(account),
	})
}

// DeleteAccount removes the account and cascades its categories and
// expenses in the same transaction.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	account, ok := h.ownedAccount(c, user.ID)
	if !ok {
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Expense{}, "account_id = ?", account.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Category{}, "account_id = ?", account.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Account{}, "id = ?", account.ID).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to delete account")
		return
	}

	util.Success(c, util.Response{
		"message": "account deleted successfully",
	})
}

// GetBalance returns the account's current balance.
func (h *AccountHandler) GetBalance(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	account, ok := h.ownedAccount(c, user.ID)
	if !ok {
		return
	}

	util.Success(c, util.Response{
		"account_id": account.ID,
		"balance":    account.Balance,
	})
}

// ownedAccount loads the :id account scoped to the owner, writing the
// error response itself on failure.
func (h *AccountHandler) ownedAccount(c *gin.Context, ownerID string) (*models.Account, bool) {
	id := c.Param("id")
	if id == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "account id is required")
		return nil, false
	}

	var account models.Account
	if err := h.DB.Where("id = ? AND user_id = ?", id, ownerID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "account not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to retrieve account")
		}
		return nil, false
	}
	return &account, true
}
