package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/automation-hub/hub/internal/models"
	"github.com/gin-gonic/gin"
)

// UserStore is the persistence used by UserHandler.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error)
	ListBanksByUser(ctx context.Context, userID string) ([]models.Bank, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// UserHandler serves user endpoints.
type UserHandler struct {
	store UserStore
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// List returns a page of users, optionally filtered by ?search= on name or email.
func (h *UserHandler) List(c *gin.Context) {
	limit, offset := paging(c)
	rows, errList := h.store.ListUsers(c.Request.Context(), c.Query("search"), limit, offset)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, userView(row))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Get returns a user by ID.
func (h *UserHandler) Get(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, userView(*user))
}

// ListBanks returns the banks owned by a user.
func (h *UserHandler) ListBanks(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}
	rows, errList := h.store.ListBanksByUser(c.Request.Context(), user.ID)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list banks failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, bankView(row))
	}
	c.JSON(http.StatusOK, gin.H{"banks": out})
}

// Delete removes a user with its banks and transactions. Mappings stay until orphan cleanup.
func (h *UserHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	deleted, errDelete := h.store.DeleteUser(c.Request.Context(), id)
	if errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete user failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) load(c *gin.Context) (*models.User, bool) {
	user, errFind := h.store.GetUser(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return user, true
}
