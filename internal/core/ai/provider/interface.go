package provider

import (
	"context"
	"time"

	"pantry-scanner/internal/core/ai/image"
	"pantry-scanner/internal/core/product"
)

// Facet 回應中的資料面向，各面向有自己的信心門檻
type Facet string

const (
	FacetObject  Facet = "object"
	FacetLabel   Facet = "label"
	FacetWeb     Facet = "web"
	FacetText    Facet = "text"
	FacetConcept Facet = "concept"
)

// Label 遠端服務回傳的原始標籤（尚未正規化）
type Label struct {
	Name        string
	Confidence  float64
	Facet       Facet
	BoundingBox *product.BoundingBox
	Attributes  *product.Attributes
}

// Parsed 解析後的服務回應，所有面向已合併
type Parsed struct {
	Labels      []Label
	Description string
}

// Adapter 遠端識別服務介面，每個服務一個實作
type Adapter interface {
	// Name 服務標記，會寫入 RecognitionResult.ProviderUsed
	Name() string

	// Configured 是否具備呼叫所需的憑證
	Configured() bool

	// Send 發送請求並回傳原始回應
	Send(ctx context.Context, up image.Upload) ([]byte, error)

	// Parse 將原始回應轉為標籤
	Parse(raw []byte) (*Parsed, error)

	// Close 關閉連線
	Close() error
}

// Outcome 單次嘗試的結果類型
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeEmpty
	OutcomeSuccess
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	default:
		return "failed"
	}
}

// Attempt 單次服務嘗試
type Attempt struct {
	Provider    string
	Outcome     Outcome
	Products    []product.DetectedProduct
	Description string
	Err         error
	Duration    time.Duration
}

// Summary 轉為對外的摘要
func (a Attempt) Summary() product.AttemptSummary {
	s := product.AttemptSummary{
		Provider:   a.Provider,
		Outcome:    a.Outcome.String(),
		DurationMs: a.Duration.Milliseconds(),
	}
	if a.Err != nil {
		s.Error = a.Err.Error()
	}
	return s
}
