package analysis

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"pantry-scanner/internal/core/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRand struct {
	values []float64
	i      int
}

func (f *fixedRand) Float64() float64 {
	v := f.values[f.i%len(f.values)]
	f.i++
	return v
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func splitPNG(t *testing.T, w, h int, left, right color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, left)
			} else {
				img.Set(x, y, right)
			}
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

func names(ps []product.DetectedProduct) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestAnalyze_Brightness(t *testing.T) {
	a := NewAnalyzer(&fixedRand{values: []float64{0.5}})

	white := a.Analyze(solidPNG(t, 10, 20, color.White), "photo.png")
	assert.True(t, white.Decoded)
	assert.Equal(t, 10, white.Width)
	assert.Equal(t, 20, white.Height)
	assert.InDelta(t, 0.5, white.AspectRatio, 1e-9)
	assert.InDelta(t, 255.0, white.ColorAnalysis.AverageBrightness, 0.01)
	assert.False(t, white.IsDarkBackground)
	require.Len(t, white.ColorAnalysis.DominantColors, 1)
	assert.Equal(t, uint8(255), white.ColorAnalysis.DominantColors[0].R)
	assert.Equal(t, "photo", white.FileNameHint)

	black := a.Analyze(solidPNG(t, 8, 8, color.Black), "")
	assert.InDelta(t, 0.0, black.ColorAnalysis.AverageBrightness, 0.01)
	assert.True(t, black.IsDarkBackground)
}

func TestAnalyze_UndecodableIsNeutral(t *testing.T) {
	a := NewAnalyzer(nil)
	an := a.Analyze([]byte("not an image"), "IMG_001.jpg")

	assert.False(t, an.Decoded)
	assert.Equal(t, 128.0, an.ColorAnalysis.AverageBrightness)
	assert.Empty(t, an.ColorAnalysis.DominantColors)
	assert.Empty(t, a.InferProducts(an))
}

func TestAnalyze_HugeDimensionsAreNeutral(t *testing.T) {
	a := NewAnalyzer(&fixedRand{values: []float64{0.5}})
	an := a.Analyze(pngHeader(t, 8000, 8000), "banana.png")

	assert.False(t, an.Decoded)
	assert.Zero(t, an.Width)
	assert.Equal(t, "banana", an.FileNameHint)
	assert.Empty(t, a.InferProducts(an))
}

func TestAnalyze_DominantColorsTopFive(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 7, 10))
	palette := []color.NRGBA{
		{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}, {255, 255, 0, 255},
		{0, 255, 255, 255}, {255, 0, 255, 255}, {128, 128, 128, 255},
	}
	for y := 0; y < 10; y++ {
		for x := 0; x < 7; x++ {
			img.Set(x, y, palette[x])
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	an := NewAnalyzer(nil).Analyze(buf.Bytes(), "")
	assert.Len(t, an.ColorAnalysis.DominantColors, 5)
}

func TestAnalyze_LargeImageSampled(t *testing.T) {
	an := NewAnalyzer(nil).Analyze(solidPNG(t, 1200, 600, color.NRGBA{R: 255, G: 128, B: 0, A: 255}), "")

	assert.Equal(t, 1200, an.Width)
	assert.Equal(t, 600, an.Height)
	require.NotEmpty(t, an.ColorAnalysis.DominantColors)
	top := an.ColorAnalysis.DominantColors[0]
	assert.Equal(t, []uint8{255, 128, 0}, []uint8{top.R, top.G, top.B})
	assert.InDelta(t, 1.0, top.Share, 1e-9)
}

func TestInferProducts_ColorSignatures(t *testing.T) {
	tests := []struct {
		name  string
		color color.Color
		want  string
	}{
		{name: "orange", color: color.NRGBA{R: 250, G: 140, B: 20, A: 255}, want: "Апельсин"},
		{name: "red", color: color.NRGBA{R: 220, G: 20, B: 30, A: 255}, want: "Помидор"},
		{name: "green", color: color.NRGBA{R: 40, G: 180, B: 50, A: 255}, want: "Огурец"},
		{name: "yellow", color: color.NRGBA{R: 250, G: 230, B: 40, A: 255}, want: "Банан"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(&fixedRand{values: []float64{0.5}})
			ps := a.InferProducts(a.Analyze(solidPNG(t, 16, 16, tt.color), ""))
			require.Len(t, ps, 1)
			assert.Equal(t, tt.want, ps[0].Name)
			assert.InDelta(t, 0.85, ps[0].Confidence, 1e-9)
		})
	}
}

func TestInferProducts_DeterministicForSeed(t *testing.T) {
	data := splitPNG(t, 20, 20, color.NRGBA{R: 220, G: 20, B: 30, A: 255}, color.NRGBA{R: 40, G: 180, B: 50, A: 255})

	run := func() []product.DetectedProduct {
		a := NewAnalyzer(rand.New(rand.NewSource(42)))
		return a.InferProducts(a.Analyze(data, "basket.png"))
	}
	first, second := run(), run()

	require.Len(t, first, 2)
	assert.ElementsMatch(t, []string{"Помидор", "Огурец"}, names(first))
	assert.Equal(t, names(first), names(second))
	for i := range first {
		assert.Equal(t, first[i].Confidence, second[i].Confidence)
		assert.GreaterOrEqual(t, first[i].Confidence, 0.75)
		assert.Less(t, first[i].Confidence, 0.95)
	}
	assert.GreaterOrEqual(t, first[0].Confidence, first[1].Confidence)
}

func TestInferProducts_FileNameHint(t *testing.T) {
	a := NewAnalyzer(&fixedRand{values: []float64{0.1, 0.9}})
	gray := solidPNG(t, 8, 8, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	ps := a.InferProducts(a.Analyze(gray, "/tmp/Fresh_Banana.JPG"))
	require.Len(t, ps, 1)
	assert.Equal(t, "Банан", ps[0].Name)
	assert.InDelta(t, 0.77, ps[0].Confidence, 1e-9)
}

func TestInferProducts_BrightnessFallback(t *testing.T) {
	a := NewAnalyzer(&fixedRand{values: []float64{0.5}})

	bright := a.InferProducts(a.Analyze(solidPNG(t, 8, 8, color.White), ""))
	assert.Equal(t, []string{"Яйца", "Сыр"}, names(bright))
	assert.Equal(t, product.CategoryEggs, bright[0].Category)
	assert.Equal(t, 0.65, bright[0].Confidence)
	assert.Equal(t, 0.60, bright[1].Confidence)

	dark := a.InferProducts(a.Analyze(solidPNG(t, 8, 8, color.Black), ""))
	assert.Equal(t, []string{"Шоколад", "Кофе"}, names(dark))
	assert.Equal(t, 0.60, dark[0].Confidence)
	assert.Equal(t, 0.55, dark[1].Confidence)

	mid := a.InferProducts(a.Analyze(solidPNG(t, 8, 8, color.NRGBA{R: 128, G: 128, B: 128, A: 255}), ""))
	assert.Empty(t, mid)
}

func TestInferProducts_CappedAtFour(t *testing.T) {
	a := NewAnalyzer(&fixedRand{values: []float64{0.1, 0.2, 0.3, 0.4}})
	an := ImageAnalysis{
		Decoded:      true,
		FileNameHint: "orange_tomato_cucumber_banana",
		ColorAnalysis: ColorAnalysis{
			AverageBrightness: 128,
		},
	}
	ps := a.InferProducts(an)
	require.Len(t, ps, 4)
	for i := 1; i < len(ps); i++ {
		assert.GreaterOrEqual(t, ps[i-1].Confidence, ps[i].Confidence)
	}
	assert.Equal(t, "Банан", ps[0].Name)
}
