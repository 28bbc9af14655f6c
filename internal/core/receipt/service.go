package receipt

import (
	"context"
	"strings"
	"time"

	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	SourceOCR  = "ocr"
	SourceDemo = "demo"
	SourceText = "text"
)

// demoText OCR 不可用時使用的固定收據文字
const demoText = `ПЯТЕРОЧКА
Кассовый чек № 0042
2024-01-15
1. Молоко 3.2% - 89.90
2. Хлеб белый - 45.00
3. Яйца С1 10шт - 119.00
4. Бананы - 75.50
ИТОГ: 329.40`

// TextExtractor 從收據圖片擷取文字
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Service 收據識別服務
type Service struct {
	extractor TextExtractor
	timeout   time.Duration
}

// Option 設定 Service
type Option func(*Service)

// WithExtractor 指定文字擷取器
func WithExtractor(e TextExtractor) Option {
	return func(s *Service) { s.extractor = e }
}

// NewService 創建收據服務；有設定 Azure 時預設使用 Azure OCR
func NewService(cfg config.ReceiptConfig, opts ...Option) *Service {
	s := &Service{timeout: cfg.Timeout}
	if s.timeout <= 0 {
		s.timeout = 15 * time.Second
	}
	if az := NewAzureExtractor(cfg); az != nil {
		s.extractor = az
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractText 擷取收據文字；未設定或失敗時回傳示範文字
func (s *Service) ExtractText(ctx context.Context, data []byte) (string, string) {
	if s.extractor == nil {
		common.LogDebug("Receipt OCR not configured, using demo text")
		return demoText, SourceDemo
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.extractor.Extract(ctx, data)
	if err != nil {
		common.LogWarn("Receipt OCR failed, using demo text", zap.Error(err))
		return demoText, SourceDemo
	}
	if strings.TrimSpace(text) == "" {
		common.LogWarn("Receipt OCR returned no text, using demo text")
		return demoText, SourceDemo
	}
	return text, SourceOCR
}

// ParseReceipt 擷取並解析收據圖片
func (s *Service) ParseReceipt(ctx context.Context, data []byte) product.ReceiptParseResult {
	text, source := s.ExtractText(ctx, data)
	result := Parse(text)
	result.Source = source

	common.LogInfo("Receipt parsed",
		zap.String("source", source),
		zap.String("store", result.Store),
		zap.Int("items", len(result.Items)),
	)
	return result
}

// ParseText 解析使用者直接提供的收據文字
func (s *Service) ParseText(text string) product.ReceiptParseResult {
	result := Parse(text)
	result.Source = SourceText
	return result
}
