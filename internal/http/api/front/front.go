// Package front registers the authenticated entity read and delete routes.
package front

import (
	"github.com/automation-hub/hub/internal/http/api/front/handlers"
	"github.com/automation-hub/hub/internal/store"
	"github.com/gin-gonic/gin"
)

// RegisterFrontRoutes registers user, bank, and transaction routes behind auth.
func RegisterFrontRoutes(r *gin.Engine, st *store.Store, auth gin.HandlerFunc) {
	if r == nil || st == nil {
		return
	}
	authed := r.Group("/v0")
	if auth != nil {
		authed.Use(auth)
	}

	userHandler := handlers.NewUserHandler(st)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	authed.DELETE("/users/:id", userHandler.Delete)
	authed.GET("/users/:id/banks", userHandler.ListBanks)

	bankHandler := handlers.NewBankHandler(st)
	authed.GET("/banks/:id", bankHandler.Get)
	authed.DELETE("/banks/:id", bankHandler.Delete)
	authed.GET("/banks/:id/transactions", bankHandler.ListTransactions)

	transactionHandler := handlers.NewTransactionHandler(st)
	authed.DELETE("/transactions/:id", transactionHandler.Delete)
}
