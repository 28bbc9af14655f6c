package receipts

import (
	"context"
	"net/http"
	"strings"

	"pantry-scanner/internal/api/handlers"
	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Parser 收據解析服務
type Parser interface {
	ParseReceipt(ctx context.Context, in image.Input) (product.ReceiptParseResult, error)
	ParseReceiptText(text string) product.ReceiptParseResult
	MaxImageBytes() int64
}

// TextRequest 直接提交收據文字
type TextRequest struct {
	Text string `json:"text" binding:"required"`
}

// Handler 收據處理器
type Handler struct {
	svc Parser
}

// NewHandler 創建收據處理器
func NewHandler(svc Parser) *Handler {
	return &Handler{svc: svc}
}

// Parse 處理 POST /api/v1/receipts/parse；JSON 為文字，multipart 為圖片
func (h *Handler) Parse(c *gin.Context) {
	requestID := requestid.Get(c)

	if handlers.IsJSON(c) {
		var req TextRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
			common.WriteError(c, common.NewError(common.ErrCodeInvalidRequest, "text is required", http.StatusBadRequest, err))
			return
		}
		result := h.svc.ParseReceiptText(req.Text)
		common.LogInfo("Receipt text parsed",
			zap.String("request_id", requestID),
			zap.Int("items", len(result.Items)),
		)
		c.JSON(http.StatusOK, result)
		return
	}

	in, err := handlers.ReadMultipartImage(c, h.svc.MaxImageBytes())
	if err != nil {
		common.LogWarn("Invalid receipt request", zap.String("request_id", requestID), zap.Error(err))
		common.WriteError(c, err)
		return
	}

	result, err := h.svc.ParseReceipt(c.Request.Context(), in)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
