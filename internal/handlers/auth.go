package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hamsterverse/internal/auth"
	"hamsterverse/internal/config"
	"hamsterverse/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService   *services.AuthService
	miningService *services.MiningService
	codec         *auth.SessionCodec
	cfg           *config.Config
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, miningService *services.MiningService, codec *auth.SessionCodec, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		miningService: miningService,
		codec:         codec,
		cfg:           cfg,
	}
}

// TelegramLogin authenticates a user from a Telegram Mini App initData
// payload, creates the account on first login and sets the session cookie.
// POST /api/auth/telegram
func (h *AuthHandler) TelegramLogin(c *gin.Context) {
	var req struct {
		InitData string `json:"initData" binding:"required"`
		Ref      string `json:"ref"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "initData missing"})
		return
	}

	claim, err := auth.VerifyInitData(req.InitData, h.cfg.Telegram.BotToken, h.cfg.App.ReplayWindow, time.Now())
	if err != nil {
		// the reason stays in the logs; the client sees one generic rejection
		log.Printf("initData rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "Unauthenticated"})
		return
	}

	user, isNew, err := h.authService.LoginOrCreate(c.Request.Context(), claim, req.Ref)
	if err != nil {
		log.Printf("login failed for telegram_id=%d: %v", claim.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Server error"})
		return
	}

	token, err := h.codec.Issue(user.TelegramID)
	if err != nil {
		log.Printf("token issue failed for telegram_id=%d: %v", user.TelegramID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Server error"})
		return
	}

	h.setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"user":  user,
		"isNew": isNew,
	})
}

// GetMe returns the currently authenticated user together with their live
// pending earnings.
// GET /api/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "Unauthenticated"})
		return
	}

	user, err := h.authService.GetUserByTelegramID(c.Request.Context(), telegramID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"user":    user,
		"pending": h.miningService.PendingEarnings(user, time.Now()),
	})
}

// Logout clears the session cookie.
// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	if h.cfg.IsProduction() {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(auth.SessionCookie, token, int(h.codec.Duration().Seconds()), "/", "", h.cfg.IsProduction(), true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	if h.cfg.IsProduction() {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", h.cfg.IsProduction(), true)
}
