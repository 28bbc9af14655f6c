package products

import (
	"context"
	"errors"
	"net/http"

	"pantry-scanner/internal/api/handlers"
	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recognizer 商品識別服務
type Recognizer interface {
	Recognize(ctx context.Context, in image.Input) (*product.RecognitionResult, error)
	MaxImageBytes() int64
}

// Handler 商品識別處理器
type Handler struct {
	svc Recognizer
}

// NewHandler 創建商品識別處理器
func NewHandler(svc Recognizer) *Handler {
	return &Handler{svc: svc}
}

// Recognize 處理 POST /api/v1/products/recognize
func (h *Handler) Recognize(c *gin.Context) {
	requestID := requestid.Get(c)

	in, err := handlers.ReadImage(c, h.svc.MaxImageBytes())
	if err != nil {
		common.LogWarn("Invalid recognition request", zap.String("request_id", requestID), zap.Error(err))
		common.WriteError(c, err)
		return
	}

	result, err := h.svc.Recognize(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = common.ErrGatewayTimeout
		}
		common.LogWarn("Recognition request failed",
			zap.String("request_id", requestID),
			zap.String("file_name", in.FileName),
			zap.Error(err),
		)
		common.WriteError(c, err)
		return
	}

	common.LogInfo("Products recognized",
		zap.String("request_id", requestID),
		zap.String("provider", result.ProviderUsed),
		zap.Int("products", len(result.Products)),
		zap.Bool("cache_hit", result.CacheHit),
		zap.Int64("processing_ms", result.ProcessingTimeMs),
	)
	c.JSON(http.StatusOK, result)
}
