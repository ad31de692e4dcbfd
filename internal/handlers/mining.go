package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hamsterverse/internal/auth"
	"hamsterverse/internal/services"
)

// MiningHandler handles mining session endpoints
type MiningHandler struct {
	miningService *services.MiningService
	authService   *services.AuthService
}

// NewMiningHandler creates a new MiningHandler
func NewMiningHandler(miningService *services.MiningService, authService *services.AuthService) *MiningHandler {
	return &MiningHandler{
		miningService: miningService,
		authService:   authService,
	}
}

// Start opens a new mining session.
// POST /api/mining/start
func (h *MiningHandler) Start(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "Unauthenticated"})
		return
	}

	user, err := h.miningService.StartMining(c.Request.Context(), telegramID)
	if err != nil {
		if errors.Is(err, services.ErrMiningActive) {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "message": "Mining already active"})
			return
		}
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

// Claim settles pending earnings into the balance and resets the session.
// POST /api/mining/claim
func (h *MiningHandler) Claim(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "Unauthenticated"})
		return
	}

	user, claimed, err := h.miningService.ClaimEarnings(c.Request.Context(), telegramID)
	if err != nil {
		if errors.Is(err, services.ErrMiningNotActive) {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "message": "Mining not active"})
			return
		}
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "message": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user, "claimed": claimed})
}

// Status returns the current mining state with live pending earnings.
// GET /api/mining/status
func (h *MiningHandler) Status(c *gin.Context) {
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

	now := time.Now()
	expired := user.MiningActive && user.MiningEndsAt != nil && !now.Before(*user.MiningEndsAt)

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"active":  user.MiningActive,
		"expired": expired,
		"pending": h.miningService.PendingEarnings(user, now),
		"endsAt":  user.MiningEndsAt,
	})
}
