package handlers

import (
	"strconv"
	"strings"

	"github.com/automation-hub/hub/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// paging reads limit and offset query parameters, clamping them to sane bounds.
func paging(c *gin.Context) (int, int) {
	limit := defaultPageSize
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if v, errParse := strconv.Atoi(raw); errParse == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := 0
	if raw := strings.TrimSpace(c.Query("offset")); raw != "" {
		if v, errParse := strconv.Atoi(raw); errParse == nil && v > 0 {
			offset = v
		}
	}
	return limit, offset
}

func userView(u models.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"name":         u.Name,
		"email":        u.Email,
		"phone_number": u.PhoneNumber,
		"created_at":   u.CreatedAt,
		"updated_at":   u.UpdatedAt,
	}
}

func bankView(b models.Bank) gin.H {
	return gin.H{
		"id":         b.ID,
		"user_id":    b.UserID,
		"name":       b.Name,
		"type":       b.Type,
		"is_active":  b.IsActive,
		"created_at": b.CreatedAt,
		"updated_at": b.UpdatedAt,
	}
}

func transactionView(t models.Transaction) gin.H {
	return gin.H{
		"id":               t.ID,
		"bank_id":          t.BankID,
		"amount":           t.Amount,
		"description":      t.Description,
		"category":         t.Category,
		"type":             t.Type,
		"transaction_date": t.TransactionDate,
		"created_at":       t.CreatedAt,
		"updated_at":       t.UpdatedAt,
	}
}
