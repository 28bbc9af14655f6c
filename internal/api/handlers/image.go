package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// ImageField multipart 上傳欄位名稱
const ImageField = "image"

// ImageRequest JSON 形式的圖片請求，image 可為 data URI 或純 base64
type ImageRequest struct {
	Image    string `json:"image" binding:"required"`
	FileName string `json:"file_name,omitempty"`
}

// IsJSON 請求是否為 JSON
func IsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), gin.MIMEJSON)
}

// ReadImage 讀取上傳圖片，支援 multipart 與 JSON base64 兩種形式
func ReadImage(c *gin.Context, maxBytes int64) (image.Input, error) {
	if IsJSON(c) {
		var req ImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return image.Input{}, common.NewError(common.ErrCodeInvalidRequest, "invalid request body", http.StatusBadRequest, err)
		}
		data, mimeType, err := DecodeImageString(req.Image)
		if err != nil {
			return image.Input{}, common.NewError(common.ErrCodeInvalidRequest, "invalid image encoding", http.StatusBadRequest, err)
		}
		return image.Input{Data: data, ContentType: mimeType, FileName: req.FileName}, nil
	}
	return ReadMultipartImage(c, maxBytes)
}

// ReadMultipartImage 讀取 multipart 的 image 欄位；多讀一個位元組讓後續驗證能判斷超過上限
func ReadMultipartImage(c *gin.Context, maxBytes int64) (image.Input, error) {
	fh, err := c.FormFile(ImageField)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return image.Input{}, common.NewValidationError(common.ErrCodeInvalidImageSize,
				fmt.Sprintf("image exceeds maximum limit of %d bytes", maxBytes),
				http.StatusRequestEntityTooLarge)
		}
		return image.Input{}, common.NewValidationError(common.ErrCodeEmptyImage,
			fmt.Sprintf("multipart field %q is required", ImageField),
			http.StatusBadRequest)
	}

	f, err := fh.Open()
	if err != nil {
		return image.Input{}, common.NewError(common.ErrCodeInvalidRequest, "unreadable upload", http.StatusBadRequest, err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Input{}, common.NewError(common.ErrCodeInvalidRequest, "unreadable upload", http.StatusBadRequest, err)
	}

	return image.Input{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
		FileName:    fh.Filename,
	}, nil
}

// DecodeImageString 解碼 data URI 或純 base64；純 base64 的類型留空由內容判斷
func DecodeImageString(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return nil, "", errors.New("image URLs are not supported")
	}

	mimeType := ""
	if strings.HasPrefix(s, "data:") {
		parts := strings.SplitN(s, ";base64,", 2)
		if len(parts) != 2 {
			return nil, "", errors.New("invalid data URI")
		}
		mimeType = strings.TrimPrefix(parts[0], "data:")
		s = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 data: %w", err)
	}
	return data, mimeType, nil
}
