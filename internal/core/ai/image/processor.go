package image

import (
	"bytes"
	"errors"
	"fmt"
	stdimage "image"
	"net/http"
	"strings"

	_ "image/gif" // 支援 GIF

	"pantry-scanner/internal/pkg/common"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// Input 使用者上傳的圖片
type Input struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Upload 已準備好送往遠端服務的圖片
type Upload struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// Processor 圖片處理器：驗證輸入並縮小上傳尺寸
type Processor struct {
	maxSizeBytes int64
	maxSide      int
}

// NewProcessor 創建圖片處理器
func NewProcessor(maxSizeBytes int64, maxSide int) *Processor {
	if maxSide <= 0 {
		maxSide = 1024
	}
	return &Processor{
		maxSizeBytes: maxSizeBytes,
		maxSide:      maxSide,
	}
}

// MaxSizeBytes 允許的最大檔案大小
func (p *Processor) MaxSizeBytes() int64 {
	return p.maxSizeBytes
}

// ContentType 回傳宣告的 MIME 類型，未宣告時以內容判斷
func ContentType(in Input) string {
	ct := strings.TrimSpace(strings.ToLower(in.ContentType))
	if ct == "" && len(in.Data) > 0 {
		ct = http.DetectContentType(in.Data)
	}
	return ct
}

// Validate 驗證圖片類型與大小
func (p *Processor) Validate(in Input) error {
	if !strings.HasPrefix(ContentType(in), "image/") {
		return common.NewValidationError(common.ErrCodeInvalidImageType,
			fmt.Sprintf("unsupported content type %q, an image is required", in.ContentType),
			http.StatusBadRequest)
	}
	if p.maxSizeBytes > 0 && int64(len(in.Data)) > p.maxSizeBytes {
		return common.NewValidationError(common.ErrCodeInvalidImageSize,
			fmt.Sprintf("image size %d exceeds maximum limit of %d bytes", len(in.Data), p.maxSizeBytes),
			http.StatusRequestEntityTooLarge)
	}
	if len(in.Data) == 0 {
		return common.NewValidationError(common.ErrCodeEmptyImage, "image is empty", http.StatusBadRequest)
	}
	return nil
}

// MaxPixels 允許解碼的最大像素數
const MaxPixels = 40_000_000

// ErrTooManyPixels 圖片尺寸超過解碼上限
var ErrTooManyPixels = errors.New("image dimensions exceed decode limit")

// CheckDimensions 只讀取圖片標頭，寬乘高超過 MaxPixels 時回傳 ErrTooManyPixels
func CheckDimensions(data []byte) error {
	cfg, _, err := stdimage.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to read image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	return nil
}

// Decode 檢查尺寸後解碼圖片並依 EXIF 轉正
func Decode(data []byte) (stdimage.Image, error) {
	if err := CheckDimensions(data); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// PrepareUpload 將圖片縮到最長邊不超過 maxSide 並轉為 JPEG；
// 無法解碼時原樣回傳，交由遠端服務判斷
func (p *Processor) PrepareUpload(in Input) Upload {
	img, err := Decode(in.Data)
	if err != nil {
		common.LogDebug("Upload passthrough, image not decodable locally", zap.Error(err))
		return Upload{Data: in.Data, MIMEType: ContentType(in)}
	}

	bounds := img.Bounds()
	if bounds.Dx() > p.maxSide || bounds.Dy() > p.maxSide {
		img = imaging.Fit(img, p.maxSide, p.maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return Upload{Data: in.Data, MIMEType: ContentType(in), Width: bounds.Dx(), Height: bounds.Dy()}
	}

	b := img.Bounds()
	return Upload{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		Width:    b.Dx(),
		Height:   b.Dy(),
	}
}
