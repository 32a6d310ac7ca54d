package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fin-api-ledger/internal/api_gateway/handler"
	"github.com/fin-api-ledger/internal/api_gateway/middleware"
)

// setupRouter registers middleware and the v1 routes on r.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	verifier middleware.TokenVerifier,
	userHandler *handler.UserHandler,
	statementHandler *handler.StatementHandler,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	authenticated := middleware.Authentication(verifier)

	v1 := r.Group("/api/v1")
	{
		// Identity
		v1.POST("/users", userHandler.Create)
		v1.POST("/sessions", userHandler.Authenticate)
		v1.GET("/profile", authenticated, userHandler.Profile)

		// Ledger operations on the caller's account
		statements := v1.Group("/statements", authenticated)
		{
			statements.POST("/deposit", statementHandler.Deposit)
			statements.POST("/withdraw", statementHandler.Withdraw)
			statements.POST("/transfers/:user_id", statementHandler.Transfer)
			statements.GET("/balance", statementHandler.Balance)
			statements.GET("/history", statementHandler.History)
			statements.GET("/:statement_id", statementHandler.GetByID)
		}
	}

	// liveness only; does not probe the stores
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
