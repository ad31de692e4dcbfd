package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hamsterverse/internal/services"
)

// LeaderboardHandler handles the public leaderboard endpoint
type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard returns the top-balance players.
// GET /api/leaderboard
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	entries, err := h.leaderboardService.Top(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "leaderboard": entries})
}
