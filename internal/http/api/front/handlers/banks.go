package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/automation-hub/hub/internal/models"
	"github.com/gin-gonic/gin"
)

// BankStore is the persistence used by BankHandler.
type BankStore interface {
	GetBank(ctx context.Context, id string) (*models.Bank, error)
	ListTransactionsByBank(ctx context.Context, bankID string, limit, offset int) ([]models.Transaction, error)
	DeleteBank(ctx context.Context, id string) (bool, error)
}

// BankHandler serves bank endpoints.
type BankHandler struct {
	store BankStore
}

// NewBankHandler constructs a BankHandler.
func NewBankHandler(store BankStore) *BankHandler {
	return &BankHandler{store: store}
}

// Get returns a bank by ID.
func (h *BankHandler) Get(c *gin.Context) {
	bank, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, bankView(*bank))
}

// ListTransactions returns a page of a bank's transactions, newest first.
func (h *BankHandler) ListTransactions(c *gin.Context) {
	bank, ok := h.load(c)
	if !ok {
		return
	}
	limit, offset := paging(c)
	rows, errList := h.store.ListTransactionsByBank(c.Request.Context(), bank.ID, limit, offset)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list transactions failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, transactionView(row))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

// Delete removes a bank and its transactions.
func (h *BankHandler) Delete(c *gin.Context) {
	deleted, errDelete := h.store.DeleteBank(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete bank failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BankHandler) load(c *gin.Context) (*models.Bank, bool) {
	bank, errFind := h.store.GetBank(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if bank == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return bank, true
}
