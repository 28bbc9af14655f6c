package image

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	stdimage "image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"pantry-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader 只有簽章與 IHDR 的 PNG，宣告的尺寸不需要實際像素
func pngHeader(t *testing.T, w, h uint32) []byte {
	t.Helper()
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(ihdr)))
	buf.Write(n[:])
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	binary.BigEndian.PutUint32(n[:], crc32.ChecksumIEEE(chunk))
	buf.Write(n[:])
	return buf.Bytes()
}

func TestCheckDimensions(t *testing.T) {
	require.NoError(t, CheckDimensions(encodePNG(t, 4, 4, color.White)))
	require.NoError(t, CheckDimensions(pngHeader(t, 8000, 5000)))

	err := CheckDimensions(pngHeader(t, 8000, 8000))
	assert.ErrorIs(t, err, ErrTooManyPixels)

	_, err = Decode(pngHeader(t, 20000, 20000))
	assert.ErrorIs(t, err, ErrTooManyPixels)

	assert.Error(t, CheckDimensions([]byte("not an image")))
}

func TestProcessor_Validate(t *testing.T) {
	p := NewProcessor(10*1024*1024, 1024)
	small := encodePNG(t, 4, 4, color.White)

	tests := []struct {
		name     string
		in       Input
		wantCode string
		status   int
	}{
		{
			name: "valid png",
			in:   Input{Data: small, ContentType: "image/png"},
		},
		{
			name: "sniffed type when not declared",
			in:   Input{Data: small},
		},
		{
			name:     "text content rejected",
			in:       Input{Data: []byte("hello"), ContentType: "text/plain"},
			wantCode: common.ErrCodeInvalidImageType,
			status:   http.StatusBadRequest,
		},
		{
			name:     "oversized file rejected",
			in:       Input{Data: make([]byte, 15*1024*1024), ContentType: "image/jpeg"},
			wantCode: common.ErrCodeInvalidImageSize,
			status:   http.StatusRequestEntityTooLarge,
		},
		{
			name:     "empty image rejected",
			in:       Input{ContentType: "image/jpeg"},
			wantCode: common.ErrCodeEmptyImage,
			status:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.in)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			ve, ok := common.AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.wantCode, ve.Code)
			assert.Equal(t, tt.status, ve.Status)
		})
	}
}

func TestProcessor_PrepareUploadShrinksLargeImages(t *testing.T) {
	p := NewProcessor(10*1024*1024, 100)
	data := encodePNG(t, 400, 200, color.RGBA{R: 200, G: 30, B: 30, A: 255})

	up := p.PrepareUpload(Input{Data: data, ContentType: "image/png"})

	assert.Equal(t, "image/jpeg", up.MIMEType)
	assert.Equal(t, 100, up.Width)
	assert.Equal(t, 50, up.Height)

	_, err := Decode(up.Data)
	assert.NoError(t, err)
}

func TestProcessor_PrepareUploadPassthroughOnGarbage(t *testing.T) {
	p := NewProcessor(10*1024*1024, 100)
	garbage := []byte("definitely not an image")

	up := p.PrepareUpload(Input{Data: garbage, ContentType: "image/heic"})

	assert.Equal(t, garbage, up.Data)
	assert.Equal(t, "image/heic", up.MIMEType)
}

func TestProcessor_PrepareUploadPassthroughOnHugeDimensions(t *testing.T) {
	p := NewProcessor(10*1024*1024, 100)
	data := pngHeader(t, 8000, 8000)

	up := p.PrepareUpload(Input{Data: data, ContentType: "image/png"})

	assert.Equal(t, data, up.Data)
	assert.Equal(t, "image/png", up.MIMEType)
	assert.Zero(t, up.Width)
}
