package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumilend/backend/internal/auth"
)

// SessionHandler moves a bearer token into the access cookie for browser
// clients of the realtime feed.
type SessionHandler struct {
	cookieCfg auth.CookieConfig
	accessTTL time.Duration
}

func NewSessionHandler(cookieCfg auth.CookieConfig, accessTTL time.Duration) *SessionHandler {
	return &SessionHandler{cookieCfg: cookieCfg, accessTTL: accessTTL}
}

func (h *SessionHandler) Create(c *gin.Context) {
	token := c.GetString("access_token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_bearer_token"})
		return
	}
	auth.SetAccessCookie(c.Writer, h.cookieCfg, token, h.accessTTL)
	c.JSON(http.StatusOK, gin.H{
		"account": c.GetString("account"),
		"role":    c.GetString("role"),
		"session": gin.H{"authenticated": true},
	})
}

func (h *SessionHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"account": c.GetString("account"),
		"role":    c.GetString("role"),
	})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	auth.ClearAccessCookie(c.Writer, h.cookieCfg)
	c.Status(http.StatusNoContent)
}
