package router

import (
	"log/slog"

	"github.com/MartaJerkovic/devotion/internal/config"
	"github.com/MartaJerkovic/devotion/internal/handler"
	"github.com/MartaJerkovic/devotion/internal/ledger"
	"github.com/MartaJerkovic/devotion/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and wires the API handlers.
func SetupRouter(cfg *config.Config, db *gorm.DB, logger *slog.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLog(logger), gin.Recovery())

	// ledger core shared by the expense and account handlers
	mutator := ledger.NewMutator(db, logger, nil)
	queryEngine := ledger.NewQueryEngine(db, logger)
	provisioner := ledger.NewProvisioner(db, logger)

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(db, cfg.JWT.Secret, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/user/register", authHandler.Register)
	api.POST("/user/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret, db))

	userHandler := handler.NewUserHandler(db, cfg.Security.BcryptCost)
	protected.GET("/user/me", userHandler.GetMe)
	protected.PUT("/user/me", userHandler.UpdateMe)
	protected.DELETE("/user/me", userHandler.DeleteMe)
	protected.PUT("/user/me/password", userHandler.ChangePassword)

	accountHandler := handler.NewAccountHandler(db, provisioner, logger,
		cfg.Accounts.DefaultBalance, cfg.Accounts.DefaultCurrency)
	protected.POST("/accounts", accountHandler.CreateAccount)
	protected.GET("/accounts", accountHandler.ListAccounts)
	protected.GET("/accounts/:id", accountHandler.GetAccount)
	protected.PUT("/accounts/:id", accountHandler.UpdateAccount)
	protected.DELETE("/accounts/:id", accountHandler.DeleteAccount)
	protected.GET("/accounts/:id/balance", accountHandler.GetBalance)

	categoryHandler := handler.NewCategoryHandler(db)
	protected.POST("/categories", categoryHandler.CreateCategory)
	protected.GET("/categories", categoryHandler.ListCategories)
	protected.PUT("/categories/:id", categoryHandler.UpdateCategory)
	protected.DELETE("/categories/:id", categoryHandler.DeleteCategory)

	expenseHandler := handler.NewExpenseHandler(db, mutator, queryEngine, cfg.App.PageSize)
	protected.POST("/expenses", expenseHandler.CreateExpense)
	protected.GET("/expenses", expenseHandler.ListExpenses)
	protected.GET("/expenses/:id", expenseHandler.GetExpense)
	protected.PUT("/expenses/:id", expenseHandler.UpdateExpense)
	protected.DELETE("/expenses/:id", expenseHandler.DeleteExpense)

	return r
}
