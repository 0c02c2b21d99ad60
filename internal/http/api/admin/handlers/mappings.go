package handlers

import (
	"net/http"
	"strings"

	"github.com/automation-hub/hub/internal/mapping"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// MappingHandler serves mapping maintenance endpoints.
type MappingHandler struct {
	mappings      *mapping.Service
	defaultModule string
}

// NewMappingHandler constructs a MappingHandler.
func NewMappingHandler(mappings *mapping.Service, defaultModule string) *MappingHandler {
	return &MappingHandler{mappings: mappings, defaultModule: defaultModule}
}

// Orphans lists mappings whose local entity is gone.
func (h *MappingHandler) Orphans(c *gin.Context) {
	module := h.module(c)
	orphans, errFind := h.mappings.FindOrphanedMappings(c.Request.Context(), module)
	if errFind != nil {
		log.WithError(errFind).Error("find orphaned mappings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "find orphans failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"module": module, "count": len(orphans), "orphans": orphans})
}

// Cleanup deletes orphaned mappings.
func (h *MappingHandler) Cleanup(c *gin.Context) {
	module := h.module(c)
	deleted, errCleanup := h.mappings.CleanupOrphanedMappings(c.Request.Context(), module)
	if errCleanup != nil {
		log.WithError(errCleanup).Error("cleanup orphaned mappings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup orphans failed"})
		return
	}
	log.Infof("orphaned mappings removed (module=%s deleted=%d)", module, deleted)
	c.JSON(http.StatusOK, gin.H{"module": module, "deleted": deleted})
}

func (h *MappingHandler) module(c *gin.Context) string {
	if module := strings.TrimSpace(c.Query("module")); module != "" {
		return module
	}
	return h.defaultModule
}
