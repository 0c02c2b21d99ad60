package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/automation-hub/hub/internal/importer"
	"github.com/automation-hub/hub/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ImportHandler exposes the importer over HTTP.
type ImportHandler struct {
	importer *importer.Importer
}

// NewImportHandler constructs an ImportHandler.
func NewImportHandler(imp *importer.Importer) *ImportHandler {
	return &ImportHandler{importer: imp}
}

type importUsersRequest struct {
	Users []importer.UserInput `json:"users"`
}

type importBanksRequest struct {
	Banks []importer.BankInput `json:"banks"`
}

type importTransactionsRequest struct {
	Transactions []importer.TransactionInput `json:"transactions"`
}

// ImportUser imports one user.
func (h *ImportHandler) ImportUser(c *gin.Context) {
	var body importer.UserInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	result, errImport := h.importer.ImportUser(c.Request.Context(), body)
	if errImport != nil {
		h.fail(c, "import user failed", errImport)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportUsers imports a batch of users.
func (h *ImportHandler) ImportUsers(c *gin.Context) {
	var body importUsersRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, errImport := h.importer.ImportUsers(c.Request.Context(), body.Users)
	if errImport != nil {
		h.fail(c, "import users failed", errImport)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ImportBank imports one bank.
func (h *ImportHandler) ImportBank(c *gin.Context) {
	var body importer.BankInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	result, errImport := h.importer.ImportBank(c.Request.Context(), body)
	if errImport != nil {
		h.fail(c, "import bank failed", errImport)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportBanks imports a batch of banks.
func (h *ImportHandler) ImportBanks(c *gin.Context) {
	var body importBanksRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, errImport := h.importer.ImportBanks(c.Request.Context(), body.Banks)
	if errImport != nil {
		h.fail(c, "import banks failed", errImport)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ImportTransaction imports one transaction.
func (h *ImportHandler) ImportTransaction(c *gin.Context) {
	var body importer.TransactionInput
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	result, errImport := h.importer.ImportTransaction(c.Request.Context(), body)
	if errImport != nil {
		h.fail(c, "import transaction failed", errImport)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportTransactions imports a batch of transactions.
func (h *ImportHandler) ImportTransactions(c *gin.Context) {
	var body importTransactionsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, errImport := h.importer.ImportTransactions(c.Request.Context(), body.Transactions)
	if errImport != nil {
		h.fail(c, "import transactions failed", errImport)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Health reports local counts and module mappings.
func (h *ImportHandler) Health(c *gin.Context) {
	health, errHealth := h.importer.Health(c.Request.Context())
	if errHealth != nil {
		log.WithError(errHealth).Warn("import health check failed")
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}

// ExternalIDs lists mapped external ids of one entity type.
func (h *ImportHandler) ExternalIDs(c *gin.Context) {
	entityType := models.EntityType(strings.TrimSpace(c.Query("entity_type")))
	module := h.module(c)
	ids, errList := h.importer.ExternalIDs(c.Request.Context(), entityType, module)
	if errList != nil {
		if errors.Is(errList, importer.ErrUnknownEntityType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity_type"})
			return
		}
		h.fail(c, "list external ids failed", errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entity_type":  entityType,
		"module":       module,
		"external_ids": ids,
	})
}

// SyncStatus summarizes import runs per entity type.
func (h *ImportHandler) SyncStatus(c *gin.Context) {
	module := h.module(c)
	statuses, errStatus := h.importer.SyncStatus(c.Request.Context(), module)
	if errStatus != nil {
		h.fail(c, "sync status failed", errStatus)
		return
	}
	c.JSON(http.StatusOK, gin.H{"module": module, "statuses": statuses})
}

func (h *ImportHandler) module(c *gin.Context) string {
	if module := strings.TrimSpace(c.Query("module")); module != "" {
		return module
	}
	return h.importer.Module()
}

func (h *ImportHandler) fail(c *gin.Context, message string, err error) {
	log.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
