package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"error"`             // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示輸入驗證錯誤，是識別流程中唯一會回傳給呼叫端的錯誤
type ValidationError struct {
	Code    string
	Message string
	Status  int
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(code, message string, status int) error {
	return &ValidationError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError 取出驗證錯誤
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodeInternalError   = "INTERNAL_ERROR"    // 500
	ErrCodeGatewayTimeout  = "GATEWAY_TIMEOUT"   // 504

	ErrCodeInvalidImageType = "INVALID_IMAGE_TYPE"
	ErrCodeInvalidImageSize = "INVALID_IMAGE_SIZE"
	ErrCodeEmptyImage       = "EMPTY_IMAGE"
)

// 預定義錯誤
var (
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)
	ErrInternalError   = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrGatewayTimeout  = NewError(ErrCodeGatewayTimeout, "gateway timeout", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrQueueFull          = NewError("QUEUE_FULL", "recognition queue is full", http.StatusServiceUnavailable, nil)
	ErrQueueClosed        = NewError("QUEUE_CLOSED", "recognition queue is closed", http.StatusServiceUnavailable, nil)
	ErrProviderNotReady   = errors.New("provider is not configured")
	ErrEmptyProviderReply = errors.New("provider returned an empty response")
)
