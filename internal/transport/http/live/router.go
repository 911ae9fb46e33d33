package livehttp

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"skew/internal/report"
)

type Router struct {
	collector *report.Collector
	store     *report.Store
}

func (r *Router) Register(group *gin.RouterGroup) {
	group.GET("/positions", r.handlePositions)
	group.GET("/outcomes", r.handleOutcomes)
	group.GET("/spread", r.handleSpread)
	group.GET("/history/positions", r.handlePositionHistory)
	group.GET("/history/txs", r.handleTxHistory)
}

func (r *Router) handlePositions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"positions": r.collector.Rows()})
}

func (r *Router) handleOutcomes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"outcomes": r.collector.Outcomes()})
}

func (r *Router) handleSpread(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"spread": r.collector.SpreadHistory()})
}

func (r *Router) handlePositionHistory(c *gin.Context) {
	if r.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report store disabled"})
		return
	}
	rows, err := r.store.RecentRows(c.Request.Context(), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": rows})
}

func (r *Router) handleTxHistory(c *gin.Context) {
	if r.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report store disabled"})
		return
	}
	txs, err := r.store.RecentTxs(c.Request.Context(), queryLimit(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"txs": txs})
}

func queryLimit(c *gin.Context) int {
	raw := c.Query("limit")
	if raw == "" {
		return 100
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 100
	}
	if n > 1000 {
		n = 1000
	}
	return n
}
