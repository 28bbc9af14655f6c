package common

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteError 將錯誤寫入 gin 回應，驗證錯誤與自定義錯誤會帶上對應狀態碼
func WriteError(c *gin.Context, err error) {
	if ve, ok := AsValidationError(err); ok {
		c.AbortWithStatusJSON(ve.Status, ErrorResponse{Code: ve.Code, Message: ve.Message})
		return
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		c.AbortWithStatusJSON(ce.Status, ErrorResponse{Code: ce.Code, Message: ce.Message})
		return
	}
	c.AbortWithStatusJSON(ErrInternalError.Status, ErrorResponse{
		Code:    ErrInternalError.Code,
		Message: ErrInternalError.Message,
	})
}
