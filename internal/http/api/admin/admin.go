package admin

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/automation-hub/hub/internal/config"
	handlers "github.com/automation-hub/hub/internal/http/api/admin/handlers"
	"github.com/automation-hub/hub/internal/importer"
	"github.com/automation-hub/hub/internal/mapping"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/ratelimit"
	"github.com/automation-hub/hub/internal/security"
	"github.com/automation-hub/hub/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Deps carries the services the admin routes are wired to.
type Deps struct {
	Store    *store.Store
	Importer *importer.Importer
	Mappings *mapping.Service
	Limiter  *ratelimit.Manager
	JWT      config.JWTConfig
}

// UserGetter loads the user named by a token.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// RegisterAdminRoutes registers health, login, import, and mapping maintenance routes.
func RegisterAdminRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.Store == nil || deps.Importer == nil || deps.Mappings == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.Store.DB())
	r.GET("/healthz", healthHandler.Healthz)

	authHandler := handlers.NewAuthHandler(deps.Store, deps.JWT)
	r.POST("/v0/auth/login", authHandler.Login)

	authMiddleware := UserAuthMiddleware(deps.Store, deps.JWT)

	importGroup := r.Group("/v0/import")
	importGroup.Use(authMiddleware, rateLimitMiddleware(deps.Limiter, "import"))

	importHandler := handlers.NewImportHandler(deps.Importer)
	importGroup.POST("/users", importHandler.ImportUser)
	importGroup.POST("/users/batch", importHandler.ImportUsers)
	importGroup.POST("/banks", importHandler.ImportBank)
	importGroup.POST("/banks/batch", importHandler.ImportBanks)
	importGroup.POST("/transactions", importHandler.ImportTransaction)
	importGroup.POST("/transactions/batch", importHandler.ImportTransactions)
	importGroup.GET("/health", importHandler.Health)
	importGroup.GET("/external-ids", importHandler.ExternalIDs)
	importGroup.GET("/sync-status", importHandler.SyncStatus)

	adminGroup := r.Group("/v0/admin")
	adminGroup.Use(authMiddleware, rateLimitMiddleware(deps.Limiter, "admin"))

	mappingHandler := handlers.NewMappingHandler(deps.Mappings, deps.Importer.Module())
	adminGroup.GET("/mappings/orphans", mappingHandler.Orphans)
	adminGroup.POST("/mappings/cleanup", mappingHandler.Cleanup)
}

// UserAuthMiddleware validates bearer JWTs and loads the caller into the context.
func UserAuthMiddleware(users UserGetter, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, errFind := users.GetUser(c.Request.Context(), claims.UserID)
		if errFind != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("userEmail", user.Email)
		c.Next()
	}
}

// rateLimitMiddleware enforces the per-caller limit of a route group.
// Limiter errors are logged and the request proceeds.
func rateLimitMiddleware(limiter *ratelimit.Manager, group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := ratelimit.KeyForCaller(group, c.GetString("userID"))
		result, errAllow := limiter.Allow(c.Request.Context(), key)
		if errAllow != nil {
			log.WithError(errAllow).Warn("rate limit check failed")
			c.Next()
			return
		}
		if !result.Allowed {
			if !result.Reset.IsZero() {
				retryAfter := int(time.Until(result.Reset).Seconds()) + 1
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Header("Retry-After", strconv.Itoa(retryAfter))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
