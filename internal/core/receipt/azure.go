package receipt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/infrastructure/config"
	"pantry-scanner/internal/pkg/common"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// AzureExtractor 使用 Azure Computer Vision OCR 擷取收據文字
type AzureExtractor struct {
	client   computervision.BaseClient
	language computervision.OcrLanguages
}

// NewAzureExtractor 創建 Azure OCR 擷取器；未設定端點或金鑰時回傳 nil
func NewAzureExtractor(cfg config.ReceiptConfig) *AzureExtractor {
	if cfg.AzureEndpoint == "" || cfg.AzureKey == "" {
		return nil
	}

	client := computervision.New(cfg.AzureEndpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(cfg.AzureKey)

	lang := cfg.Language
	if lang == "" {
		lang = "ru"
	}

	return &AzureExtractor{
		client:   client,
		language: computervision.OcrLanguages(lang),
	}
}

// Extract 先強化圖片再送 OCR，依區塊、行、字的順序組回文字
func (e *AzureExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	enhanced := enhanceForOCR(data)

	result, err := e.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(enhanced)),
		e.language,
	)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	if result.Regions == nil {
		return "", nil
	}

	var lines []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// enhanceForOCR 灰階、加強對比與銳化；無法解碼時原樣回傳
func enhanceForOCR(data []byte) []byte {
	src, err := image.Decode(data)
	if err != nil {
		common.LogDebug("Receipt image not decodable locally, sending as is", zap.Error(err))
		return data
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)

	b := img.Bounds()
	if b.Dx() > 3000 || b.Dy() > 3000 {
		img = imaging.Fit(img, 3000, 3000, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return data
	}
	return buf.Bytes()
}
