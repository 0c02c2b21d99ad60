package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TransactionStore is the persistence used by TransactionHandler.
type TransactionStore interface {
	DeleteTransaction(ctx context.Context, id string) (bool, error)
}

// TransactionHandler serves transaction endpoints.
type TransactionHandler struct {
	store TransactionStore
}

// NewTransactionHandler constructs a TransactionHandler.
func NewTransactionHandler(store TransactionStore) *TransactionHandler {
	return &TransactionHandler{store: store}
}

// Delete removes a single transaction.
func (h *TransactionHandler) Delete(c *gin.Context) {
	deleted, errDelete := h.store.DeleteTransaction(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete transaction failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
