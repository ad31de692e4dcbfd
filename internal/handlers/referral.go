package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hamsterverse/internal/auth"
	"hamsterverse/internal/services"
)

// ReferralHandler handles referral endpoints
type ReferralHandler struct {
	authService *services.AuthService
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(authService *services.AuthService) *ReferralHandler {
	return &ReferralHandler{
		authService: authService,
	}
}

// GetReferralInfo returns the caller's referral code, invite count and earned bonus.
// GET /api/referrals
func (h *ReferralHandler) GetReferralInfo(c *gin.Context) {
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
		"ok":           true,
		"referralCode": user.ReferralCode,
		"referrals":    user.Referrals,
		"bonus":        user.Bonus,
		"referredBy":   user.ReferredBy,
	})
}
