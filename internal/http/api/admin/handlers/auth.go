package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/automation-hub/hub/internal/config"
	"github.com/automation-hub/hub/internal/models"
	"github.com/automation-hub/hub/internal/security"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UserFinder resolves login emails to local users.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthHandler issues bearer tokens for local users.
type AuthHandler struct {
	users  UserFinder
	jwtCfg config.JWTConfig
	nowFn  func() time.Time
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users UserFinder, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{users: users, jwtCfg: jwtCfg, nowFn: time.Now}
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a signed token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.TrimSpace(body.Email)
	if email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or password"})
		return
	}

	user, errFind := h.users.FindUserByEmail(c.Request.Context(), email)
	if errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query user failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if errCheck := security.CheckPassword(user.Password, body.Password); errCheck != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, expiresAt, errIssue := security.IssueUserToken(h.jwtCfg.Secret, user.ID, user.Email, h.jwtCfg.Expiry, h.nowFn().UTC())
	if errIssue != nil {
		log.WithError(errIssue).Error("login: issue token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expiresAt})
}
