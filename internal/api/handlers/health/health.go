package health

import (
	"net/http"
	"runtime"
	"time"

	"pantry-scanner/internal/core/ai/cache"
	"pantry-scanner/internal/core/ai/queue"
	"pantry-scanner/internal/core/ai/service"

	"github.com/gin-gonic/gin"
)

// StatusSource 提供健康檢查所需的狀態
type StatusSource interface {
	QueueStatus() *queue.Status
	Providers() []service.ProviderStatus
	CacheEnabled() bool
	CacheStats() cache.Stats
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime"`
	Queue     *queue.Status            `json:"queue,omitempty"`
	Providers []service.ProviderStatus `json:"providers"`
	Cache     *cache.Stats             `json:"cache,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	source  StatusSource
}

// NewHandler 創建健康檢查處理器
func NewHandler(version string, source StatusSource) *Handler {
	return &Handler{version: version, source: source}
}

// HealthCheck 回報版本、執行環境、隊列與識別服務狀態；
// 沒有任何已設定的服務時為 degraded（仍可退回本地分析）
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	providers := h.source.Providers()
	status := "degraded"
	for _, p := range providers {
		if p.Configured {
			status = "ok"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Queue:     h.source.QueueStatus(),
		Providers: providers,
	}
	if h.source.CacheEnabled() {
		stats := h.source.CacheStats()
		response.Cache = &stats
	}

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 隊列未滿即視為就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	q := h.source.QueueStatus()
	if q.QueueLength >= q.MaxQueueSize {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "busy",
			"queue":  q,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
