package cache

import (
	"net/http"

	aicache "pantry-scanner/internal/core/ai/cache"
	"pantry-scanner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Controller 快取管理介面
type Controller interface {
	CacheEnabled() bool
	CacheStats() aicache.Stats
	ClearCache()
}

// StatsResponse 快取統計響應
type StatsResponse struct {
	Enabled bool          `json:"enabled"`
	Stats   aicache.Stats `json:"stats"`
}

// Handler 快取管理處理器
type Handler struct {
	svc Controller
}

// NewHandler 創建快取管理處理器
func NewHandler(svc Controller) *Handler {
	return &Handler{svc: svc}
}

// Stats 處理 GET /api/v1/cache/stats
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		Enabled: h.svc.CacheEnabled(),
		Stats:   h.svc.CacheStats(),
	})
}

// Clear 處理 DELETE /api/v1/cache
func (h *Handler) Clear(c *gin.Context) {
	before := h.svc.CacheStats().Size
	h.svc.ClearCache()

	common.LogInfo("Cache cleared",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("entries", before),
	)
	c.JSON(http.StatusOK, gin.H{
		"status":  "cleared",
		"removed": before,
	})
}
