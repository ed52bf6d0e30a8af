package handler

import (
	"net/http"

	"github.com/MartaJerkovic/devotion/internal/middleware"
	"github.com/MartaJerkovic/devotion/internal/models"
	"github.com/MartaJerkovic/devotion/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler serves the current-user profile endpoints.
type UserHandler struct {
	DB         *gorm.DB
	BcryptCost int
}

func NewUserHandler(db *gorm.DB, bcryptCost int) *UserHandler {
	return &UserHandler{DB: db, BcryptCost: bcryptCost}
}

// GetMe returns the authenticated user's profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"username":   user.Username,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.Role,
			"created_at": user.CreatedAt,
		},
	})
}

type updateUserReq struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=32"`
	FirstName *string `json:"first_name" binding:"omitempty,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,max=50"`
	Avatar    *string `json:"avatar" binding:"omitempty,max=255"`
}

// UpdateMe patches the authenticated user's profile fields.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var req updateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid update payload")
		return
	}
	if req.Username == nil && req.FirstName == nil && req.LastName == nil && req.Avatar == nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "no update data provided")
		return
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	if err := h.DB.Save(user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update user")
		return
	}

	util.Success(c, util.Response{
		"message": "user updated successfully",
	})
}

type changePasswordReq struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// ChangePassword verifies the current password and stores a new hash.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid password payload")
		return
	}

	if !util.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "current password is incorrect")
		return
	}
	if req.CurrentPassword == req.NewPassword {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "new password must be different than the current password")
		return
	}

	hash, err := util.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to hash password")
		return
	}

	user.PasswordHash = hash
	if err := h.DB.Save(user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to change password")
		return
	}

	util.Success(c, util.Response{
		"message": "password changed successfully",
	})
}

// DeleteMe removes the user and everything they own: accounts, categories
// and expenses go in the same transaction.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var accountIDs []string
		if err := tx.Model(&models.Account{}).
			Where("user_id = ?", user.ID).
			Pluck("id", &accountIDs).Error; err != nil {
			return err
		}
		if len(accountIDs) > 0 {
			if err := tx.Delete(&models.Expense{}, "account_id IN ?", accountIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Category{}, "user_id = ?", user.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Account{}, "user_id = ?", user.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", user.ID).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to delete user")
		return
	}

	util.Success(c, util.Response{
		"message": "account deleted successfully",
	})
}
