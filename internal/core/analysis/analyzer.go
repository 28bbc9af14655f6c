package analysis

import (
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/product"
	"pantry-scanner/internal/pkg/common"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	// sampleSide 分析前的最長邊，超過時以最近鄰縮小以保留原色
	sampleSide = 512
	// binStep 顏色分箱的步長
	binStep = 32
	// topColors 保留的主色數量
	topColors = 5
	// maxProducts 推論結果上限
	maxProducts = 4

	neutralBrightness = 128.0
	brightThreshold   = 170.0
	darkThreshold     = 85.0
	darkBackground    = 100.0

	// minSignatureShare 主色至少要佔的像素比例才算命中
	minSignatureShare = 0.10

	signatureBase   = 0.75
	signatureSpread = 0.20
)

// Rand 可注入的亂數來源，*rand.Rand 即可滿足
type Rand interface {
	Float64() float64
}

// DominantColor 分箱後的主色
type DominantColor struct {
	R     uint8   `json:"r"`
	G     uint8   `json:"g"`
	B     uint8   `json:"b"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// ColorAnalysis 顏色統計
type ColorAnalysis struct {
	AverageBrightness float64         `json:"averageBrightness"`
	DominantColors    []DominantColor `json:"dominantColors"`
}

// ImageAnalysis 單次後備分析的結果，不會被保存
type ImageAnalysis struct {
	Width            int           `json:"width"`
	Height           int           `json:"height"`
	AspectRatio      float64       `json:"aspectRatio"`
	ColorAnalysis    ColorAnalysis `json:"colorAnalysis"`
	IsDarkBackground bool          `json:"isDarkBackground"`
	FileNameHint     string        `json:"fileNameHint,omitempty"`
	Decoded          bool          `json:"decoded"`
}

// candidate 啟發式規則對應的商品
type candidate struct {
	name     string
	category product.Category
	hints    []string
}

// signature 顏色特徵
type signature struct {
	name  string
	match func(r, g, b int) bool
	cand  candidate
}

// signatures 依序檢查：橘、紅、綠、黃
var signatures = []signature{
	{
		name:  "orange",
		match: func(r, g, b int) bool { return r >= 200 && g >= 96 && g <= 180 && b <= 96 },
		cand:  candidate{name: "Апельсин", category: product.CategoryFruits, hints: []string{"orange", "апельсин", "mandarin", "мандарин"}},
	},
	{
		name:  "red",
		match: func(r, g, b int) bool { return r >= 160 && g < 96 && b < 96 },
		cand:  candidate{name: "Помидор", category: product.CategoryVegetables, hints: []string{"tomato", "помидор", "томат"}},
	},
	{
		name:  "green",
		match: func(r, g, b int) bool { return g >= 96 && g > r+32 && g > b+32 },
		cand:  candidate{name: "Огурец", category: product.CategoryVegetables, hints: []string{"cucumber", "огур", "salad", "салат"}},
	},
	{
		name:  "yellow",
		match: func(r, g, b int) bool { return r >= 192 && g >= 192 && b <= 128 },
		cand:  candidate{name: "Банан", category: product.CategoryFruits, hints: []string{"banana", "банан", "lemon", "лимон"}},
	},
}

// Analyzer 本地圖片啟發式分析器
type Analyzer struct {
	mu  sync.Mutex
	rnd Rand
}

// NewAnalyzer 創建分析器，rnd 為 nil 時使用以時間為種子的亂數
func NewAnalyzer(rnd Rand) *Analyzer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Analyzer{rnd: rnd}
}

// NeutralAnalysis 無法解碼時的中性分析結果
func NeutralAnalysis(fileName string) ImageAnalysis {
	return ImageAnalysis{
		AspectRatio:   1,
		ColorAnalysis: ColorAnalysis{AverageBrightness: neutralBrightness},
		FileNameHint:  fileNameHint(fileName),
	}
}

// Analyze 解碼圖片並計算亮度與主色，永遠不回傳錯誤；尺寸過大時回傳中性分析
func (a *Analyzer) Analyze(data []byte, fileName string) ImageAnalysis {
	img, err := image.Decode(data)
	if err != nil {
		common.LogDebug("Heuristic analysis could not decode image", zap.Error(err))
		return NeutralAnalysis(fileName)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return NeutralAnalysis(fileName)
	}

	if width > sampleSide || height > sampleSide {
		img = imaging.Fit(img, sampleSide, sampleSide, imaging.NearestNeighbor)
	}
	pix := imaging.Clone(img)

	type binKey struct{ r, g, b uint8 }
	bins := make(map[binKey]int)
	var total float64
	var pixels int

	for i := 0; i+3 < len(pix.Pix); i += 4 {
		r, g, bl := int(pix.Pix[i]), int(pix.Pix[i+1]), int(pix.Pix[i+2])
		total += 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)
		bins[binKey{bin(r), bin(g), bin(bl)}]++
		pixels++
	}

	brightness := neutralBrightness
	if pixels > 0 {
		brightness = total / float64(pixels)
	}

	colors := make([]DominantColor, 0, len(bins))
	for k, count := range bins {
		colors = append(colors, DominantColor{R: k.r, G: k.g, B: k.b, Count: count, Share: float64(count) / float64(pixels)})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Count != colors[j].Count {
			return colors[i].Count > colors[j].Count
		}
		if colors[i].R != colors[j].R {
			return colors[i].R < colors[j].R
		}
		if colors[i].G != colors[j].G {
			return colors[i].G < colors[j].G
		}
		return colors[i].B < colors[j].B
	})
	if len(colors) > topColors {
		colors = colors[:topColors]
	}

	return ImageAnalysis{
		Width:       width,
		Height:      height,
		AspectRatio: float64(width) / float64(height),
		ColorAnalysis: ColorAnalysis{
			AverageBrightness: brightness,
			DominantColors:    colors,
		},
		IsDarkBackground: brightness < darkBackground,
		FileNameHint:     fileNameHint(fileName),
		Decoded:          true,
	}
}

// InferProducts 依顏色特徵、檔名與亮度推論商品；未解碼的分析不產生任何商品
func (a *Analyzer) InferProducts(an ImageAnalysis) []product.DetectedProduct {
	if !an.Decoded {
		return nil
	}

	var products []product.DetectedProduct
	for _, sig := range signatures {
		if !signatureFires(sig, an) {
			continue
		}
		products = append(products, product.DetectedProduct{
			ID:         common.GenerateUUID(),
			Name:       sig.cand.name,
			Category:   sig.cand.category,
			Confidence: signatureBase + a.draw()*signatureSpread,
		})
	}

	if len(products) == 0 {
		switch {
		case an.ColorAnalysis.AverageBrightness > brightThreshold:
			products = append(products,
				fixed("Яйца", product.CategoryEggs, 0.65),
				fixed("Сыр", product.CategoryDairy, 0.60),
			)
		case an.ColorAnalysis.AverageBrightness < darkThreshold:
			products = append(products,
				fixed("Шоколад", product.CategorySweets, 0.60),
				fixed("Кофе", product.CategoryBeverages, 0.55),
			)
		}
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Confidence > products[j].Confidence
	})
	if len(products) > maxProducts {
		products = products[:maxProducts]
	}
	return products
}

func (a *Analyzer) draw() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rnd.Float64()
}

func signatureFires(sig signature, an ImageAnalysis) bool {
	for _, c := range an.ColorAnalysis.DominantColors {
		if c.Share >= minSignatureShare && sig.match(int(c.R), int(c.G), int(c.B)) {
			return true
		}
	}
	if an.FileNameHint != "" {
		for _, h := range sig.cand.hints {
			if strings.Contains(an.FileNameHint, h) {
				return true
			}
		}
	}
	return false
}

func fixed(name string, cat product.Category, conf float64) product.DetectedProduct {
	return product.DetectedProduct{
		ID:         common.GenerateUUID(),
		Name:       name,
		Category:   cat,
		Confidence: conf,
	}
}

// bin 將通道值四捨五入到最接近的 32 的倍數
func bin(c int) uint8 {
	v := ((c + binStep/2) / binStep) * binStep
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

func fileNameHint(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.ToLower(base)
}
