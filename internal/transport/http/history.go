package http

import (
	"net/http"
	"strconv"

	"github.com/dropmind/backend/internal/repository/postgres"
	"github.com/gin-gonic/gin"
)

// GameHistory is the read side of the history storage, satisfied by the
// plain repo and by its cache-aside wrapper.
type GameHistory interface {
	GetRecentGames(limit int) ([]postgres.GameRecord, error)
}

type HistoryHandler struct {
	History GameHistory
}

func NewHistoryHandler(history GameHistory) *HistoryHandler {
	return &HistoryHandler{History: history}
}

// GetHistory returns the most recently finished games
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History persistence is not configured"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	games, err := h.History.GetRecentGames(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"games": games})
}
