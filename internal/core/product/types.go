package product

import "strings"

// Category 商品分類（固定分類表）
type Category string

const (
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategoryFish       Category = "fish"
	CategoryVegetables Category = "vegetables"
	CategoryFruits     Category = "fruits"
	CategoryBakery     Category = "bakery"
	CategoryGrains     Category = "grains"
	CategoryBeverages  Category = "beverages"
	CategorySweets     Category = "sweets"
	CategoryFrozen     Category = "frozen"
	CategoryCanned     Category = "canned"
	CategorySpices     Category = "spices"
	CategoryEggs       Category = "eggs"
	CategoryOther      Category = "other"
)

// Categories 全部分類
var Categories = []Category{
	CategoryDairy, CategoryMeat, CategoryFish, CategoryVegetables, CategoryFruits,
	CategoryBakery, CategoryGrains, CategoryBeverages, CategorySweets, CategoryFrozen,
	CategoryCanned, CategorySpices, CategoryEggs, CategoryOther,
}

// Valid 是否屬於固定分類表
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// 識別結果來源標記
const (
	ProviderClarifai     = "clarifai"
	ProviderGoogleVision = "google_vision"
	ProviderOpenRouter   = "openrouter"
	ProviderGemini       = "gemini"
	ProviderHeuristic    = "heuristic"
	ProviderDemo         = "demo"
)

// BoundingBox 以圖片尺寸百分比表示的框選範圍
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Attributes 選填的商品屬性
type Attributes struct {
	Freshness string  `json:"freshness,omitempty"`
	Quantity  float64 `json:"quantity,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	Brand     string  `json:"brand,omitempty"`
}

// DetectedProduct 偵測到的商品
type DetectedProduct struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    Category     `json:"category"`
	Confidence  float64      `json:"confidence"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
	Attributes  *Attributes  `json:"attributes,omitempty"`
}

// Key 去重用的識別鍵（小寫正規名稱）
func (p DetectedProduct) Key() string {
	return strings.ToLower(strings.TrimSpace(p.Name))
}

// AttemptSummary 單次識別服務嘗試的摘要
type AttemptSummary struct {
	Provider   string `json:"provider"`
	Outcome    string `json:"outcome"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// RecognitionResult 識別結果
type RecognitionResult struct {
	Products         []DetectedProduct `json:"products"`
	ImageDescription string            `json:"imageDescription,omitempty"`
	Confidence       float64           `json:"confidence"`
	ProcessingTimeMs int64             `json:"processingTimeMs"`
	ProviderUsed     string            `json:"providerUsed"`
	CacheHit         bool              `json:"cacheHit"`
	Attempts         []AttemptSummary  `json:"attempts,omitempty"`
}

// Empty 是否沒有任何商品
func (r *RecognitionResult) Empty() bool {
	return r == nil || len(r.Products) == 0
}

// AverageConfidence 計算商品平均信心值
func AverageConfidence(products []DetectedProduct) float64 {
	if len(products) == 0 {
		return 0
	}
	var sum float64
	for _, p := range products {
		sum += p.Confidence
	}
	return sum / float64(len(products))
}

// ReceiptItem 收據中的單一品項
type ReceiptItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ReceiptParseResult 收據解析結果
type ReceiptParseResult struct {
	Products []string      `json:"products"`
	Items    []ReceiptItem `json:"items"`
	Store    string        `json:"store,omitempty"`
	Total    *float64      `json:"total,omitempty"`
	Date     string        `json:"date,omitempty"`
	Source   string        `json:"source,omitempty"`
}
